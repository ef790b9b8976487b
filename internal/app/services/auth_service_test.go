package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/pkg/apperrors"
	"github.com/yigit/kebele/internal/pkg/auth"
)

func farFuture() time.Time { return time.Now().Add(24 * time.Hour) }

type memDenylist struct {
	mu  sync.Mutex
	ids map[string]time.Duration
}

func (m *memDenylist) Deny(_ context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ids == nil {
		m.ids = map[string]time.Duration{}
	}
	m.ids[id] = ttl
	return nil
}

func (m *memDenylist) IsDenied(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[id]
	return ok, nil
}

func newAuthServiceForTest(t *testing.T) (*AuthService, *memTokens, *memDenylist, *auth.JWTService) {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)

	users := newMemUsers(&models.User{ID: 1, Username: "abebe", Email: "abebe@example.com", Password: hash})
	tokens := newMemTokens()
	deny := &memDenylist{}
	jwtSvc := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "test",
	})
	return NewAuthService(users, tokens, jwtSvc, deny, zerolog.Nop()), tokens, deny, jwtSvc
}

func TestLogin(t *testing.T) {
	svc, _, _, jwtSvc := newAuthServiceForTest(t)
	ctx := context.Background()

	for _, login := range []string{"abebe", "abebe@example.com"} {
		session, err := svc.Login(ctx, login, "secret123")
		require.NoError(t, err, login)

		claims, err := jwtSvc.ValidateToken(session.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, int64(1), claims.UserID)
	}

	_, err := svc.Login(ctx, "abebe", "wrong")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))

	_, err = svc.Login(ctx, "nobody", "secret123")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))
}

func TestRefreshRotates(t *testing.T) {
	svc, _, _, _ := newAuthServiceForTest(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "abebe", "secret123")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, session.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.Tokens.RefreshToken, next.Tokens.RefreshToken)

	_, err = svc.Refresh(ctx, session.Tokens.RefreshToken)
	assert.True(t, errors.Is(err, apperrors.ErrTokenRevoked))
}

func TestLogoutDeniesAccessTokenAndRevokesRefresh(t *testing.T) {
	svc, tokens, deny, jwtSvc := newAuthServiceForTest(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "abebe", "secret123")
	require.NoError(t, err)
	claims, err := jwtSvc.ValidateToken(session.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims, session.Tokens.RefreshToken))

	denied, _ := deny.IsDenied(ctx, claims.ID)
	assert.True(t, denied)

	_, err = tokens.GetUserIDByToken(ctx, session.Tokens.RefreshToken)
	assert.True(t, errors.Is(err, apperrors.ErrTokenRevoked))
}

func TestLogoutRejectsForeignRefreshToken(t *testing.T) {
	svc, tokens, _, _ := newAuthServiceForTest(t)
	ctx := context.Background()
	require.NoError(t, tokens.CreateToken(ctx, "someone-else", 42, farFuture()))

	err := svc.Logout(ctx, &auth.Claims{UserID: 1}, "someone-else")
	assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))
}
