package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appAuth "github.com/yigit/kebele/internal/app/auth"
	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/pkg/apperrors"
	"github.com/yigit/kebele/internal/pkg/auth"
)

func newUserServiceForTest(users *memUsers) (*UserService, *memStorage, *memTokens, *memApplications) {
	storage := newMemStorage()
	tokens := newMemTokens()
	apps := newMemApplications()
	return NewUserService(users, apps, tokens, newTestUploads(storage), zerolog.Nop()), storage, tokens, apps
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, _, _, _ := newUserServiceForTest(newMemUsers())

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "abebe",
		Email:    "abebe@example.com",
		Password: "secret123",
		FullName: "Abebe Kebede",
	})
	require.NoError(t, err)

	assert.NotEqual(t, "secret123", user.Password)
	assert.True(t, auth.CheckPassword(user.Password, "secret123"))
	assert.False(t, user.IsAdmin)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newUserServiceForTest(newMemUsers())

	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"weak password", RegisterInput{Username: "abebe", Email: "a@example.com", Password: "password"}, "password"},
		{"bad email", RegisterInput{Username: "abebe", Email: "nope", Password: "secret123"}, "email"},
		{"bad username", RegisterInput{Username: "a b", Email: "a@example.com", Password: "secret123"}, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			var fe *apperrors.FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.field, fe.Field())
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newUserServiceForTest(newMemUsers(&models.User{ID: 1, Username: "abebe", Email: "abebe@example.com"}))

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "abebe2", Email: "abebe@example.com", Password: "secret123",
	})
	assert.True(t, errors.Is(err, apperrors.ErrEmailAlreadyExists))
}

func TestRegisterStoresProfilePicture(t *testing.T) {
	svc, storage, _, _ := newUserServiceForTest(newMemUsers())

	user, err := svc.Register(context.Background(), RegisterInput{
		Username:       "abebe",
		Email:          "abebe@example.com",
		Password:       "secret123",
		ProfilePicture: fileHeader(t, "profile_picture", "me.png", pngBytes(t, 50, 50)),
	})
	require.NoError(t, err)
	require.NotNil(t, user.ProfilePicture)
	assert.Contains(t, *user.ProfilePicture, "profiles/")
	assert.True(t, storage.Has(*user.ProfilePicture))
}

func TestUserAccessRules(t *testing.T) {
	users := newMemUsers(
		&models.User{ID: 1, Username: "abebe", Email: "abebe@example.com"},
		&models.User{ID: 2, Username: "chaltu", Email: "chaltu@example.com"},
	)
	svc, _, _, _ := newUserServiceForTest(users)
	ctx := context.Background()
	self := appAuth.Actor{UserID: 1}
	staff := appAuth.Actor{UserID: 99, IsAdmin: true}

	_, err := svc.Get(ctx, self, 1)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, self, 2)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))

	_, err = svc.Get(ctx, staff, 2)
	assert.NoError(t, err)

	_, _, err = svc.List(ctx, self, 1, 10)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))

	list, total, err := svc.List(ctx, staff, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)
}

func TestUpdatePasswordRevokesTokens(t *testing.T) {
	users := newMemUsers(&models.User{ID: 1, Username: "abebe", Email: "abebe@example.com"})
	svc, _, tokens, _ := newUserServiceForTest(users)
	ctx := context.Background()
	require.NoError(t, tokens.CreateToken(ctx, "refresh-1", 1, farFuture()))

	newPass := "newsecret9"
	fullName := "Abebe K."
	updated, err := svc.Update(ctx, appAuth.Actor{UserID: 1}, 1, UpdateUserInput{Password: &newPass, FullName: &fullName})
	require.NoError(t, err)

	assert.Equal(t, "Abebe K.", updated.FullName)
	assert.True(t, auth.CheckPassword(updated.Password, newPass))

	_, err = tokens.GetUserIDByToken(ctx, "refresh-1")
	assert.True(t, errors.Is(err, apperrors.ErrTokenRevoked))
}

func TestDeleteUserRemovesApplicationFiles(t *testing.T) {
	users := newMemUsers(&models.User{ID: 1, Username: "abebe", Email: "abebe@example.com"})
	svc, storage, _, apps := newUserServiceForTest(users)
	ctx := context.Background()

	key, err := storage.SaveFileWithPath(fileHeader(t, "photo", "p.png", []byte("x")), "applications/photos")
	require.NoError(t, err)
	require.NoError(t, apps.Create(ctx, &models.Application{UserID: 1, ApplicationType: models.ApplicationTypeNewID, Status: models.StatusReady, Photo: &key}))

	require.NoError(t, svc.Delete(ctx, appAuth.Actor{UserID: 1}, 1))
	assert.False(t, storage.Has(key))

	_, err = users.GetByID(ctx, 1)
	assert.True(t, errors.Is(err, apperrors.ErrUserNotFound))
}

func TestOpenProfilePictureSelfOrStaff(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers(&models.User{ID: 9, Username: "clerk", Email: "clerk@example.com", IsAdmin: true})
	svc, _, _, _ := newUserServiceForTest(users)

	user, err := svc.Register(ctx, RegisterInput{
		Username:       "abebe",
		Email:          "abebe@example.com",
		Password:       "secret123",
		ProfilePicture: fileHeader(t, "profile_picture", "me.png", pngBytes(t, 50, 50)),
	})
	require.NoError(t, err)
	require.NotNil(t, user.ProfilePicture)
	key := *user.ProfilePicture

	for _, actor := range []appAuth.Actor{{UserID: user.ID}, {UserID: 9, IsAdmin: true}} {
		f, err := svc.OpenProfilePicture(ctx, actor, key)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	_, err = svc.OpenProfilePicture(ctx, appAuth.Actor{UserID: 42}, key)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.OpenProfilePicture(ctx, appAuth.Actor{UserID: user.ID}, "profiles/other.png")
	assert.ErrorIs(t, err, apperrors.ErrFileNotFound)
}
