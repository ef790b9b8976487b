package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/pkg/apperrors"
)

type stubUsers map[int64]*models.User

func (s stubUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

var (
	owner    = Actor{UserID: 1}
	stranger = Actor{UserID: 2}
	staff    = Actor{UserID: 3, IsAdmin: true}
)

func TestCanAccessApplication(t *testing.T) {
	app := &models.Application{UserID: 1, Status: models.StatusPending}

	assert.NoError(t, CanAccessApplication(owner, app))
	assert.NoError(t, CanAccessApplication(staff, app))

	err := CanAccessApplication(stranger, app)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
}

func TestValidateApplicationUpdate(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		status  models.ApplicationStatus
		wantErr bool
	}{
		{"owner pending", owner, models.StatusPending, false},
		{"owner ready", owner, models.StatusReady, true},
		{"owner rejected", owner, models.StatusRejected, true},
		{"staff ready", staff, models.StatusReady, false},
		{"stranger pending", stranger, models.StatusPending, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateApplicationUpdate(tt.actor, &models.Application{UserID: 1, Status: tt.status})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
		})
	}

	err := ValidateApplicationUpdate(owner, &models.Application{UserID: 1, Status: models.StatusReady})
	assert.Equal(t, MsgUpdateNotPending, err.Error())
}

func TestValidateStatusChange(t *testing.T) {
	ready := models.StatusReady
	pending := models.StatusPending

	assert.NoError(t, ValidateStatusChange(owner, models.StatusPending, nil))
	assert.NoError(t, ValidateStatusChange(owner, models.StatusPending, &pending))
	assert.NoError(t, ValidateStatusChange(staff, models.StatusPending, &ready))

	err := ValidateStatusChange(owner, models.StatusPending, &ready)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
}

func TestCanManageUser(t *testing.T) {
	assert.NoError(t, CanManageUser(owner, 1))
	assert.NoError(t, CanManageUser(staff, 1))
	assert.True(t, errors.Is(CanManageUser(stranger, 1), apperrors.ErrPermissionDenied))
	assert.True(t, errors.Is(RequireStaff(owner), apperrors.ErrPermissionDenied))
	assert.NoError(t, RequireStaff(staff))
}

func TestResolveActor(t *testing.T) {
	svc := NewAuthorizationService(stubUsers{
		1: {ID: 1},
		3: {ID: 3, IsAdmin: true},
	})

	actor, err := svc.ResolveActor(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, Actor{UserID: 3, IsAdmin: true}, actor)

	_, err = svc.ResolveActor(context.Background(), 99)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))
}
