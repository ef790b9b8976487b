package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/pkg/apperrors"
	"github.com/yigit/kebele/internal/pkg/auth"
)

// Session is the result of a successful login or refresh
type Session struct {
	User   *models.User
	Tokens *auth.TokenPair
}

// AuthService handles authentication operations
type AuthService struct {
	users      UserStore
	tokens     TokenStore
	jwtService *auth.JWTService
	denylist   auth.Denylist
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService. denylist may be nil, in which
// case logout only revokes refresh tokens.
func NewAuthService(users UserStore, tokens TokenStore, jwtService *auth.JWTService, denylist auth.Denylist, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwtService: jwtService,
		denylist:   denylist,
		logger:     logger,
	}
}

// Login authenticates by username or email
func (s *AuthService) Login(ctx context.Context, login, password string) (*Session, error) {
	if login == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.Password, password) {
		s.logger.Warn().Str("login", login).Msg("Failed login attempt")
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	userID, err := s.tokens.GetUserIDByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, err
	}

	if err := s.tokens.RevokeToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	return s.issue(ctx, user)
}

// Logout denylists the presented access token for the rest of its lifetime
// and revokes refreshToken, or every refresh token of the user when empty.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims, refreshToken string) error {
	if s.denylist != nil && claims.ID != "" && claims.ExpiresAt != nil {
		if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
			if err := s.denylist.Deny(ctx, claims.ID, ttl); err != nil {
				return fmt.Errorf("failed to revoke access token: %w", err)
			}
		}
	}

	if refreshToken == "" {
		return s.tokens.RevokeAllUserTokens(ctx, claims.UserID)
	}

	owner, err := s.tokens.GetUserIDByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenRevoked) || errors.Is(err, apperrors.ErrTokenExpired) {
			return nil
		}
		return err
	}
	if owner != claims.UserID {
		return apperrors.ErrTokenInvalid
	}
	return s.tokens.RevokeToken(ctx, refreshToken)
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*Session, error) {
	pair, err := s.jwtService.GenerateTokenPair(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return &Session{User: user, Tokens: pair}, nil
}
