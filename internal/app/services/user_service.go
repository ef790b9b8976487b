package services

import (
	"context"
	"io"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"

	appAuth "github.com/yigit/kebele/internal/app/auth"
	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/pkg/apperrors"
	"github.com/yigit/kebele/internal/pkg/auth"
	"github.com/yigit/kebele/internal/pkg/helpers"
	"github.com/yigit/kebele/internal/pkg/validation"
)

// RegisterInput is an open account registration
type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	FullName       string
	PhoneNumber    *string
	Address        *string
	ProfilePicture *multipart.FileHeader
}

// UpdateUserInput is a partial account update. Nil fields are unchanged.
type UpdateUserInput struct {
	Username       *string
	Email          *string
	Password       *string
	FullName       *string
	PhoneNumber    *string
	Address        *string
	ProfilePicture *multipart.FileHeader
}

// UserService manages resident and staff accounts
type UserService struct {
	users  UserStore
	apps   ApplicationStore
	tokens TokenStore
	files  *UploadHandler
	logger zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(users UserStore, apps ApplicationStore, tokens TokenStore, files *UploadHandler, logger zerolog.Logger) *UserService {
	return &UserService{
		users:  users,
		apps:   apps,
		tokens: tokens,
		files:  files,
		logger: logger,
	}
}

// FileURL resolves profile picture keys for responses
func (s *UserService) FileURL(key string) string {
	return s.files.URL(key)
}

func checkUsername(username string) error {
	if !validation.NewStringValidation(username).WithPattern(validation.CompiledPatterns.Username).Validate() {
		return apperrors.NewFieldError("username",
			"Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	return nil
}

func checkEmail(email string) error {
	if !validation.NewStringValidation(email).WithPattern(validation.CompiledPatterns.Email).Validate() {
		return apperrors.NewFieldError("email", "Enter a valid email address.")
	}
	return nil
}

func checkPassword(password string) error {
	if problem := validation.PasswordProblem(password); problem != "" {
		return apperrors.NewFieldError("password", problem)
	}
	return nil
}

// Register creates a non-staff account. The password is stored as a bcrypt hash.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := checkUsername(in.Username); err != nil {
		return nil, err
	}
	if err := checkEmail(in.Email); err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	if err := s.files.ValidateImage("profile_picture", in.ProfilePicture); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:    in.Username,
		Email:       in.Email,
		Password:    hash,
		FullName:    strings.TrimSpace(in.FullName),
		PhoneNumber: in.PhoneNumber,
		Address:     in.Address,
	}

	var pictureKey string
	if in.ProfilePicture != nil {
		if pictureKey, err = s.files.Save(in.ProfilePicture, models.ProfilePictureDir); err != nil {
			return nil, err
		}
		user.ProfilePicture = &pictureKey
	}

	if err := s.users.Create(ctx, user); err != nil {
		if pictureKey != "" {
			s.files.DeleteKeys([]string{pictureKey})
		}
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("username", user.Username).Msg("User registered")
	return user, nil
}

// List returns a page of users. Staff only.
func (s *UserService) List(ctx context.Context, actor appAuth.Actor, page, size int) ([]*models.User, int64, error) {
	if err := appAuth.RequireStaff(actor); err != nil {
		return nil, 0, err
	}
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return s.users.List(ctx, offset, limit)
}

// Get returns a user the actor may manage
func (s *UserService) Get(ctx context.Context, actor appAuth.Actor, id int64) (*models.User, error) {
	if err := appAuth.CanManageUser(actor, id); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// Update applies a partial change. A new password revokes every refresh
// token of the account.
func (s *UserService) Update(ctx context.Context, actor appAuth.Actor, id int64, in UpdateUserInput) (*models.User, error) {
	user, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if err := checkUsername(name); err != nil {
			return nil, err
		}
		user.Username = name
	}
	if in.Email != nil {
		addr := strings.TrimSpace(*in.Email)
		if err := checkEmail(addr); err != nil {
			return nil, err
		}
		user.Email = addr
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.PhoneNumber != nil {
		user.PhoneNumber = in.PhoneNumber
	}
	if in.Address != nil {
		user.Address = in.Address
	}

	passwordChanged := false
	if in.Password != nil && *in.Password != "" {
		if err := checkPassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
		passwordChanged = true
	}

	if err := s.files.ValidateImage("profile_picture", in.ProfilePicture); err != nil {
		return nil, err
	}
	var oldPicture, newPicture string
	if in.ProfilePicture != nil {
		if user.ProfilePicture != nil {
			oldPicture = *user.ProfilePicture
		}
		if newPicture, err = s.files.Save(in.ProfilePicture, models.ProfilePictureDir); err != nil {
			return nil, err
		}
		user.ProfilePicture = &newPicture
	}

	if err := s.users.Update(ctx, user); err != nil {
		if newPicture != "" {
			s.files.DeleteKeys([]string{newPicture})
		}
		return nil, err
	}
	if oldPicture != "" {
		s.files.DeleteKeys([]string{oldPicture})
	}

	if passwordChanged {
		if err := s.tokens.RevokeAllUserTokens(ctx, user.ID); err != nil {
			s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to revoke tokens after password change")
		}
	}
	return user, nil
}

// Delete removes an account together with its applications and stored files
func (s *UserService) Delete(ctx context.Context, actor appAuth.Actor, id int64) error {
	user, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}

	keys, err := s.apps.AttachmentKeysByUser(ctx, id)
	if err != nil {
		return err
	}
	if user.ProfilePicture != nil && *user.ProfilePicture != "" {
		keys = append(keys, *user.ProfilePicture)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.files.DeleteKeys(keys)

	s.logger.Info().Int64("userID", id).Int64("actorID", actor.UserID).Msg("User deleted")
	return nil
}

// OpenProfilePicture returns a stored profile picture to its user or staff
func (s *UserService) OpenProfilePicture(ctx context.Context, actor appAuth.Actor, key string) (io.ReadSeekCloser, error) {
	user, err := s.users.GetByProfilePicture(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := appAuth.CanManageUser(actor, user.ID); err != nil {
		return nil, err
	}
	return s.files.Open(key)
}
