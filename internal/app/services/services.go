package services

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/app/notification"
	"github.com/yigit/kebele/internal/app/repositories"
	"github.com/yigit/kebele/internal/app/rules"
	"github.com/yigit/kebele/internal/pkg/auth"
	"github.com/yigit/kebele/internal/pkg/filestorage"
	"github.com/yigit/kebele/internal/pkg/metrics"
)

// ApplicationStore persists applications
type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	GetByAttachmentKey(ctx context.Context, key string) (*models.Application, error)
	List(ctx context.Context, ownerID *int64, offset, limit uint64) ([]*models.Application, int64, error)
	HasPending(ctx context.Context, userID int64) (bool, error)
	Update(ctx context.Context, app *models.Application) error
	Delete(ctx context.Context, id int64) error
	AttachmentKeysByUser(ctx context.Context, userID int64) ([]string, error)
}

// UserStore persists users
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByProfilePicture(ctx context.Context, key string) (*models.User, error)
	List(ctx context.Context, offset, limit uint64) ([]*models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}

// TokenStore persists refresh tokens
type TokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetUserIDByToken(ctx context.Context, token string) (int64, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
}

// StatusNotifier tells an owner their application changed status
type StatusNotifier interface {
	StatusChanged(ctx context.Context, app *models.Application, owner *models.User) notification.Outcome
}

// Uploads maps attachment slots to the files submitted for them
type Uploads map[models.Attachment]*multipart.FileHeader

// Slots returns the attachment slots present in u
func (u Uploads) Slots() []models.Attachment {
	slots := make([]models.Attachment, 0, len(u))
	for _, slot := range models.Attachments {
		if u[slot] != nil {
			slots = append(slots, slot)
		}
	}
	return slots
}

// Dependencies groups everything NewServices needs
type Dependencies struct {
	Repos          *repositories.Repositories
	Storage        filestorage.FileStorage
	Notifier       StatusNotifier
	JWT            *auth.JWTService
	Denylist       auth.Denylist
	Metrics        *metrics.Metrics
	PhotoLimits    rules.PhotoLimits
	MaxUploadBytes int64
	Logger         zerolog.Logger
}

// Services holds all the service instances
type Services struct {
	ApplicationService *ApplicationService
	UserService        *UserService
	AuthService        *AuthService
}

// NewServices wires the services onto the postgres repositories
func NewServices(deps Dependencies) *Services {
	files := NewUploadHandler(deps.Storage, deps.PhotoLimits, deps.MaxUploadBytes, deps.Logger)
	return &Services{
		ApplicationService: NewApplicationService(
			deps.Repos.ApplicationRepository,
			deps.Repos.UserRepository,
			files,
			deps.Notifier,
			deps.Metrics,
			deps.Logger.With().Str("service", "applications").Logger(),
		),
		UserService: NewUserService(
			deps.Repos.UserRepository,
			deps.Repos.ApplicationRepository,
			deps.Repos.TokenRepository,
			files,
			deps.Logger.With().Str("service", "users").Logger(),
		),
		AuthService: NewAuthService(
			deps.Repos.UserRepository,
			deps.Repos.TokenRepository,
			deps.JWT,
			deps.Denylist,
			deps.Logger.With().Str("service", "auth").Logger(),
		),
	}
}
