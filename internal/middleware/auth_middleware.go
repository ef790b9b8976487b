package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appAuth "github.com/yigit/kebele/internal/app/auth"
	"github.com/yigit/kebele/internal/app/models/dto"
	"github.com/yigit/kebele/internal/pkg/apperrors"
	"github.com/yigit/kebele/internal/pkg/auth"
	"github.com/yigit/kebele/internal/pkg/logger"
)

// Context keys set by the auth middleware
const (
	ContextClaims = "claims"
	ContextUserID = "userID"
	ContextActor  = "actor"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	denylist   auth.Denylist
	authz      *appAuth.AuthorizationService
}

// NewAuthMiddleware creates a new AuthMiddleware. denylist may be nil.
func NewAuthMiddleware(jwtService *auth.JWTService, denylist auth.Denylist, authz *appAuth.AuthorizationService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		denylist:   denylist,
		authz:      authz,
	}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// JWTAuth validates the bearer access token and rejects revoked ones
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.Trim(c.GetHeader("Authorization"), "\"'")
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Invalid token format")
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		if m.denylist != nil {
			denied, err := m.denylist.IsDenied(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Error().Err(err).Str("jti", claims.ID).Msg("Token denylist lookup failed")
				HandleAPIError(c, err)
				c.Abort()
				return
			}
			if denied {
				HandleAPIError(c, apperrors.ErrTokenRevoked)
				c.Abort()
				return
			}
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

// ResolveActor loads the current user behind the token and stores an
// appAuth.Actor on the context. Must run after JWTAuth.
func (m *AuthMiddleware) ResolveActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := c.Get(ContextUserID)
		id, isInt := userID.(int64)
		if !ok || !isInt {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User information not found")
			return
		}

		actor, err := m.authz.ResolveActor(c.Request.Context(), id)
		if err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextActor, actor)
		c.Next()
	}
}

// RequireAdmin rejects non-staff actors. Must run after ResolveActor.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User information not found")
			return
		}
		if err := appAuth.RequireStaff(actor); err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetActor returns the actor stored by ResolveActor
func GetActor(c *gin.Context) (appAuth.Actor, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return appAuth.Actor{}, false
	}
	actor, ok := v.(appAuth.Actor)
	return actor, ok
}

// GetClaims returns the token claims stored by JWTAuth
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
