package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"

	appAuth "github.com/yigit/kebele/internal/app/auth"
	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/app/notification"
	"github.com/yigit/kebele/internal/pkg/apperrors"
	"github.com/yigit/kebele/internal/pkg/metrics"
)

type ApplicationServiceSuite struct {
	suite.Suite

	ctx      context.Context
	apps     *memApplications
	users    *memUsers
	storage  *memStorage
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	svc      *ApplicationService

	resident appAuth.Actor
	other    appAuth.Actor
	staff    appAuth.Actor
}

func TestApplicationServiceSuite(t *testing.T) {
	suite.Run(t, new(ApplicationServiceSuite))
}

func (s *ApplicationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.apps = newMemApplications()
	s.users = newMemUsers(
		&models.User{ID: 1, Username: "abebe", Email: "abebe@example.com"},
		&models.User{ID: 2, Username: "chaltu", Email: "chaltu@example.com"},
		&models.User{ID: 3, Username: "clerk", Email: "clerk@kebele.local", IsAdmin: true},
	)
	s.storage = newMemStorage()
	s.notifier = &recordingNotifier{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.svc = NewApplicationService(s.apps, s.users, newTestUploads(s.storage), s.notifier, s.metrics, zerolog.Nop())

	s.resident = appAuth.Actor{UserID: 1}
	s.other = appAuth.Actor{UserID: 2}
	s.staff = appAuth.Actor{UserID: 3, IsAdmin: true}
}

func (s *ApplicationServiceSuite) newIDInput() CreateApplicationInput {
	name := "Abebe Kebede"
	return CreateApplicationInput{
		Type:   models.ApplicationTypeNewID,
		Fields: models.ApplicationFields{FullName: &name},
		Files: Uploads{
			models.AttachmentPhoto:          fileHeader(s.T(), "photo", "me.png", pngBytes(s.T(), 400, 400)),
			models.AttachmentResidenceProof: fileHeader(s.T(), "residence_proof", "bill.pdf", []byte("%PDF-1.4")),
		},
	}
}

func (s *ApplicationServiceSuite) create(actor appAuth.Actor) *models.Application {
	app, err := s.svc.Create(s.ctx, actor, s.newIDInput())
	s.Require().NoError(err)
	return app
}

func (s *ApplicationServiceSuite) requireField(err error, field, msg string) {
	var fe *apperrors.FieldError
	s.Require().True(errors.As(err, &fe), "expected field error, got %v", err)
	s.Equal(field, fe.Field())
	if msg != "" {
		s.Equal(msg, fe.Fields[field])
	}
}

func (s *ApplicationServiceSuite) TestCreateAssignsOwnerAndPending() {
	app := s.create(s.resident)

	s.Equal(int64(1), app.UserID)
	s.Equal(models.StatusPending, app.Status)
	s.Require().NotNil(app.Photo)
	s.True(s.storage.Has(*app.Photo))
	s.Contains(*app.ResidenceProof, "applications/proofs/")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ApplicationsCreated.WithLabelValues("NEW_ID")))
}

func (s *ApplicationServiceSuite) TestCreateMissingPhoto() {
	in := s.newIDInput()
	delete(in.Files, models.AttachmentPhoto)

	_, err := s.svc.Create(s.ctx, s.resident, in)
	s.requireField(err, "photo", "Photo is required for NEW_ID applications.")
	s.Empty(s.storage.Files())
}

func (s *ApplicationServiceSuite) TestCreateRejectsDocxResidenceProof() {
	in := s.newIDInput()
	in.Files[models.AttachmentResidenceProof] = fileHeader(s.T(), "residence_proof", "lease.docx", []byte("PK"))

	_, err := s.svc.Create(s.ctx, s.resident, in)
	s.requireField(err, "residence_proof", "Residence proof must be a PDF file.")
}

func (s *ApplicationServiceSuite) TestCreateRejectsSmallPhoto() {
	in := s.newIDInput()
	in.Files[models.AttachmentPhoto] = fileHeader(s.T(), "photo", "tiny.png", pngBytes(s.T(), 200, 200))

	_, err := s.svc.Create(s.ctx, s.resident, in)
	s.requireField(err, "photo", "Photo must be between 1x1 inch (300x300 px) and 2x2 inch (600x600 px).")
}

func (s *ApplicationServiceSuite) TestCreateRejectsOversizedUpload() {
	in := s.newIDInput()
	in.Files[models.AttachmentResidenceProof] = fileHeader(s.T(), "residence_proof", "big.pdf", make([]byte, 2<<20))

	_, err := s.svc.Create(s.ctx, s.resident, in)
	s.requireField(err, "residence_proof", "")
}

func (s *ApplicationServiceSuite) TestCreateUnknownType() {
	in := s.newIDInput()
	in.Type = "PASSPORT"

	_, err := s.svc.Create(s.ctx, s.resident, in)
	s.requireField(err, "application_type", "")
}

func (s *ApplicationServiceSuite) TestSecondPendingRejected() {
	s.create(s.resident)

	_, err := s.svc.Create(s.ctx, s.resident, s.newIDInput())
	s.True(errors.Is(err, apperrors.ErrPendingApplication))
	s.Equal("You already have a pending application.", err.Error())

	// Another resident is unaffected
	s.create(s.other)
}

func (s *ApplicationServiceSuite) TestNewApplicationAllowedAfterReview() {
	app := s.create(s.resident)
	ready := models.StatusReady
	_, err := s.svc.Update(s.ctx, s.staff, app.ID, UpdateApplicationInput{Status: &ready})
	s.Require().NoError(err)

	s.create(s.resident)
}

func (s *ApplicationServiceSuite) TestOwnerCanUpdateWhilePending() {
	app := s.create(s.resident)
	addr := "Kebele 07"

	updated, err := s.svc.Update(s.ctx, s.resident, app.ID, UpdateApplicationInput{
		Fields: models.ApplicationFields{ResidentAddress: &addr},
	})
	s.Require().NoError(err)
	s.Equal("Kebele 07", *updated.ResidentAddress)
	s.Equal("Abebe Kebede", *updated.FullName)
	s.Empty(s.notifier.Calls())
}

func (s *ApplicationServiceSuite) TestOwnerBlockedAfterReview() {
	app := s.create(s.resident)
	rejected := models.StatusRejected
	_, err := s.svc.Update(s.ctx, s.staff, app.ID, UpdateApplicationInput{Status: &rejected})
	s.Require().NoError(err)

	addr := "Kebele 07"
	_, err = s.svc.Update(s.ctx, s.resident, app.ID, UpdateApplicationInput{
		Fields: models.ApplicationFields{ResidentAddress: &addr},
	})
	s.True(errors.Is(err, apperrors.ErrPermissionDenied))
	s.Equal("You can only update while application is pending.", err.Error())
}

func (s *ApplicationServiceSuite) TestOwnerCannotChangeStatus() {
	app := s.create(s.resident)
	ready := models.StatusReady

	_, err := s.svc.Update(s.ctx, s.resident, app.ID, UpdateApplicationInput{Status: &ready})
	s.True(errors.Is(err, apperrors.ErrPermissionDenied))
	s.Empty(s.notifier.Calls())
}

func (s *ApplicationServiceSuite) TestNonOwnerForbidden() {
	app := s.create(s.resident)

	_, err := s.svc.Get(s.ctx, s.other, app.ID)
	s.True(errors.Is(err, apperrors.ErrPermissionDenied))

	name := "Hijack"
	_, err = s.svc.Update(s.ctx, s.other, app.ID, UpdateApplicationInput{Fields: models.ApplicationFields{FullName: &name}})
	s.True(errors.Is(err, apperrors.ErrPermissionDenied))

	s.True(errors.Is(s.svc.Delete(s.ctx, s.other, app.ID), apperrors.ErrPermissionDenied))
}

func (s *ApplicationServiceSuite) TestStaffStatusChangeNotifiesOnce() {
	app := s.create(s.resident)
	ready := models.StatusReady

	_, err := s.svc.Update(s.ctx, s.staff, app.ID, UpdateApplicationInput{Status: &ready})
	s.Require().NoError(err)
	s.Equal([]models.ApplicationStatus{models.StatusReady}, s.notifier.Calls())

	// Same status again is not a change
	_, err = s.svc.Update(s.ctx, s.staff, app.ID, UpdateApplicationInput{Status: &ready})
	s.Require().NoError(err)
	s.Len(s.notifier.Calls(), 1)
}

func (s *ApplicationServiceSuite) TestStaffFieldEditDoesNotNotify() {
	app := s.create(s.resident)
	gender := "M"

	_, err := s.svc.Update(s.ctx, s.staff, app.ID, UpdateApplicationInput{Fields: models.ApplicationFields{Gender: &gender}})
	s.Require().NoError(err)
	s.Empty(s.notifier.Calls())
}

func (s *ApplicationServiceSuite) TestNotificationFailureDoesNotFailUpdate() {
	s.notifier.Out = notification.Outcome{Status: notification.Failed, Err: errors.New("smtp down")}
	app := s.create(s.resident)
	ready := models.StatusReady

	updated, err := s.svc.Update(s.ctx, s.staff, app.ID, UpdateApplicationInput{Status: &ready})
	s.Require().NoError(err)
	s.Equal(models.StatusReady, updated.Status)

	stored, err := s.apps.GetByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusReady, stored.Status)
	s.Len(s.notifier.Calls(), 1)
}

func (s *ApplicationServiceSuite) TestTypeChangeRechecksRequiredAttachments() {
	app := s.create(s.resident)
	renewal := models.ApplicationTypeIDRenewal

	_, err := s.svc.Update(s.ctx, s.resident, app.ID, UpdateApplicationInput{Type: &renewal})
	s.requireField(err, "old_id_card", "Old ID card is required for ID_RENEWAL applications.")

	updated, err := s.svc.Update(s.ctx, s.resident, app.ID, UpdateApplicationInput{
		Type:  &renewal,
		Files: Uploads{models.AttachmentOldIDCard: fileHeader(s.T(), "old_id_card", "old.png", []byte("img"))},
	})
	s.Require().NoError(err)
	s.Equal(models.ApplicationTypeIDRenewal, updated.ApplicationType)
}

func (s *ApplicationServiceSuite) TestReplacingAttachmentRemovesOldFile() {
	app := s.create(s.resident)
	oldPhoto := *app.Photo

	updated, err := s.svc.Update(s.ctx, s.resident, app.ID, UpdateApplicationInput{
		Files: Uploads{models.AttachmentPhoto: fileHeader(s.T(), "photo", "new.png", pngBytes(s.T(), 500, 500))},
	})
	s.Require().NoError(err)
	s.NotEqual(oldPhoto, *updated.Photo)
	s.False(s.storage.Has(oldPhoto))
	s.True(s.storage.Has(*updated.Photo))
}

func (s *ApplicationServiceSuite) TestListScopes() {
	s.create(s.resident)
	s.create(s.other)

	mine, total, err := s.svc.List(s.ctx, s.resident, 1, 10)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Len(mine, 1)
	s.Equal(int64(1), mine[0].UserID)

	all, total, err := s.svc.List(s.ctx, s.staff, 1, 10)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(all, 2)
}

func (s *ApplicationServiceSuite) TestDeleteRemovesFiles() {
	app := s.create(s.resident)

	s.Require().NoError(s.svc.Delete(s.ctx, s.resident, app.ID))
	s.False(s.storage.Has(*app.Photo))

	_, err := s.svc.Get(s.ctx, s.resident, app.ID)
	s.True(errors.Is(err, apperrors.ErrApplicationNotFound))
}
