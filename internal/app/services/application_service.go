package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	appAuth "github.com/yigit/kebele/internal/app/auth"
	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/app/notification"
	"github.com/yigit/kebele/internal/app/rules"
	"github.com/yigit/kebele/internal/pkg/apperrors"
	"github.com/yigit/kebele/internal/pkg/helpers"
	"github.com/yigit/kebele/internal/pkg/metrics"
)

// CreateApplicationInput is a resident's submission
type CreateApplicationInput struct {
	Type   models.ApplicationType
	Fields models.ApplicationFields
	Files  Uploads
}

// UpdateApplicationInput is a partial change to an existing application
type UpdateApplicationInput struct {
	Type   *models.ApplicationType
	Status *models.ApplicationStatus
	Fields models.ApplicationFields
	Files  Uploads
}

// ApplicationService implements the application workflow: submission,
// the pending-only edit window for residents and status review by staff.
type ApplicationService struct {
	apps     ApplicationStore
	users    UserStore
	files    *UploadHandler
	notifier StatusNotifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(
	apps ApplicationStore,
	users UserStore,
	files *UploadHandler,
	notifier StatusNotifier,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *ApplicationService {
	return &ApplicationService{
		apps:     apps,
		users:    users,
		files:    files,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// FileURL resolves attachment keys for responses
func (s *ApplicationService) FileURL(key string) string {
	return s.files.URL(key)
}

func checkType(t models.ApplicationType) error {
	if !t.IsValid() {
		return apperrors.NewFieldError("application_type", fmt.Sprintf("%q is not a valid choice.", string(t)))
	}
	return nil
}

// Create validates and stores a new application owned by the actor.
// The status is always PENDING regardless of input.
func (s *ApplicationService) Create(ctx context.Context, actor appAuth.Actor, in CreateApplicationInput) (*models.Application, error) {
	if err := checkType(in.Type); err != nil {
		return nil, err
	}
	if err := s.files.ValidateAttachments(in.Files); err != nil {
		return nil, err
	}

	app := &models.Application{
		UserID:          actor.UserID,
		ApplicationType: in.Type,
		Status:          models.StatusPending,
	}
	in.Fields.ApplyTo(app)

	if err := rules.CheckRequired(app, in.Files.Slots()...); err != nil {
		return nil, err
	}

	pending, err := s.apps.HasPending(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperrors.ErrPendingApplication
	}

	keys, err := s.files.SaveAttachments(in.Files)
	if err != nil {
		return nil, err
	}
	for slot, key := range keys {
		k := key
		app.SetAttachment(slot, &k)
	}

	if err := s.apps.Create(ctx, app); err != nil {
		s.files.DeleteKeys(valuesOf(keys))
		return nil, err
	}

	s.metrics.IncrementApplicationsCreated(string(app.ApplicationType))
	s.logger.Info().
		Int64("applicationID", app.ID).
		Int64("userID", app.UserID).
		Str("type", string(app.ApplicationType)).
		Msg("Application submitted")
	return app, nil
}

// Get returns an application the actor may see
func (s *ApplicationService) Get(ctx context.Context, actor appAuth.Actor, id int64) (*models.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := appAuth.CanAccessApplication(actor, app); err != nil {
		return nil, err
	}
	return app, nil
}

// List returns a page of applications: all of them for staff, the actor's
// own otherwise.
func (s *ApplicationService) List(ctx context.Context, actor appAuth.Actor, page, size int) ([]*models.Application, int64, error) {
	var owner *int64
	if !actor.IsAdmin {
		id := actor.UserID
		owner = &id
	}
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return s.apps.List(ctx, owner, offset, limit)
}

// Update merges in onto the stored application. Residents may edit only
// their own pending records and never the status. When staff change the
// status the owner is notified once the change is persisted; the outcome
// of that notification never affects the result.
func (s *ApplicationService) Update(ctx context.Context, actor appAuth.Actor, id int64, in UpdateApplicationInput) (*models.Application, error) {
	current, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := appAuth.ValidateApplicationUpdate(actor, current); err != nil {
		return nil, err
	}
	if err := appAuth.ValidateStatusChange(actor, current.Status, in.Status); err != nil {
		return nil, err
	}

	candidate := current.Clone()
	if in.Type != nil {
		if err := checkType(*in.Type); err != nil {
			return nil, err
		}
		candidate.ApplicationType = *in.Type
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return nil, apperrors.NewFieldError("status", fmt.Sprintf("%q is not a valid choice.", string(*in.Status)))
		}
		candidate.Status = *in.Status
	}
	in.Fields.ApplyTo(candidate)

	if err := s.files.ValidateAttachments(in.Files); err != nil {
		return nil, err
	}
	if err := rules.CheckRequired(candidate, in.Files.Slots()...); err != nil {
		return nil, err
	}

	priorStatus := current.Status

	keys, err := s.files.SaveAttachments(in.Files)
	if err != nil {
		return nil, err
	}
	var replaced []string
	for slot, key := range keys {
		if old := current.AttachmentKey(slot); old != nil {
			replaced = append(replaced, *old)
		}
		k := key
		candidate.SetAttachment(slot, &k)
	}

	if err := s.apps.Update(ctx, candidate); err != nil {
		s.files.DeleteKeys(valuesOf(keys))
		return nil, err
	}
	s.files.DeleteKeys(replaced)

	if actor.IsAdmin && candidate.Status != priorStatus {
		s.notifyStatusChange(ctx, candidate, priorStatus)
	}
	return candidate, nil
}

func (s *ApplicationService) notifyStatusChange(ctx context.Context, app *models.Application, prior models.ApplicationStatus) {
	log := s.logger.With().
		Int64("applicationID", app.ID).
		Str("from", string(prior)).
		Str("to", string(app.Status)).
		Logger()

	owner, err := s.users.GetByID(ctx, app.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Could not load application owner for notification")
		return
	}

	out := s.notifier.StatusChanged(ctx, app, owner)
	switch out.Status {
	case notification.Sent:
		log.Info().Str("email", owner.Email).Msg("Status notification sent")
	case notification.Skipped:
		log.Warn().Err(out.Err).Msg("Status notification skipped")
	default:
		log.Error().Err(out.Err).Msg("Status notification failed")
	}
}

// Delete removes an application and its stored files. Owner or staff only.
func (s *ApplicationService) Delete(ctx context.Context, actor appAuth.Actor, id int64) error {
	app, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.apps.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrApplicationNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete application %d: %w", id, err)
	}

	var keys []string
	for _, slot := range models.Attachments {
		if key := app.AttachmentKey(slot); key != nil {
			keys = append(keys, *key)
		}
	}
	s.files.DeleteKeys(keys)
	return nil
}

// OpenAttachment returns a stored attachment to the owner of its
// application or to staff. Keys no application references are not found.
func (s *ApplicationService) OpenAttachment(ctx context.Context, actor appAuth.Actor, key string) (io.ReadSeekCloser, error) {
	app, err := s.apps.GetByAttachmentKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := appAuth.CanAccessApplication(actor, app); err != nil {
		return nil, err
	}
	return s.files.Open(key)
}
