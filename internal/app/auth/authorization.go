package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/pkg/apperrors"
	"github.com/yigit/kebele/internal/pkg/logger"
)

// Messages returned with permission errors
const (
	MsgNotOwner         = "You do not have permission to perform this action."
	MsgUpdateNotPending = "You can only update while application is pending."
	MsgStatusStaffOnly  = "Only staff can change application status."
	MsgStaffOnly        = "Only staff can perform this action."
	MsgUserNotSelf      = "You can only manage your own account."
)

// Actor is the authenticated caller of a request, resolved fresh per request
type Actor struct {
	UserID  int64
	IsAdmin bool
}

// UserLookup loads users for actor resolution
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthorizationService handles authorization operations
type AuthorizationService struct {
	users UserLookup
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(users UserLookup) *AuthorizationService {
	return &AuthorizationService{users: users}
}

// ResolveActor loads the user behind a token so staff changes and deletions
// take effect immediately rather than when the token expires.
func (s *AuthorizationService) ResolveActor(ctx context.Context, userID int64) (Actor, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return Actor{}, fmt.Errorf("%w: account no longer exists", apperrors.ErrUnauthenticated)
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error loading user in ResolveActor")
		return Actor{}, err
	}
	return Actor{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

// CanAccessApplication allows staff and the owning resident
func CanAccessApplication(actor Actor, app *models.Application) error {
	if actor.IsAdmin || app.UserID == actor.UserID {
		return nil
	}
	return apperrors.NewForbiddenError(MsgNotOwner)
}

// ValidateApplicationUpdate allows staff at any status and the owner only
// while the application is still pending.
func ValidateApplicationUpdate(actor Actor, app *models.Application) error {
	if err := CanAccessApplication(actor, app); err != nil {
		return err
	}
	if !actor.IsAdmin && app.Status != models.StatusPending {
		return apperrors.NewForbiddenError(MsgUpdateNotPending)
	}
	return nil
}

// ValidateStatusChange rejects status writes from anyone but staff.
// Re-sending the current status is not a change.
func ValidateStatusChange(actor Actor, current models.ApplicationStatus, requested *models.ApplicationStatus) error {
	if requested == nil || *requested == current || actor.IsAdmin {
		return nil
	}
	return apperrors.NewForbiddenError(MsgStatusStaffOnly)
}

// CanManageUser allows a user to manage their own account, and staff any account
func CanManageUser(actor Actor, targetID int64) error {
	if actor.IsAdmin || actor.UserID == targetID {
		return nil
	}
	return apperrors.NewForbiddenError(MsgUserNotSelf)
}

// RequireStaff rejects non-staff actors
func RequireStaff(actor Actor) error {
	if actor.IsAdmin {
		return nil
	}
	return apperrors.NewForbiddenError(MsgStaffOnly)
}
