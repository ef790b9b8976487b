// Package controllers handles HTTP request handling
package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/kebele/internal/app/models/dto"
	"github.com/yigit/kebele/internal/app/services"
	"github.com/yigit/kebele/internal/middleware"
	"github.com/yigit/kebele/internal/pkg/apperrors"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService *services.AuthService
	fileURL     func(string) string
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController. fileURL resolves profile
// picture keys in the returned user.
func NewAuthController(authService *services.AuthService, fileURL func(string) string, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		fileURL:     fileURL,
		logger:      logger,
	}
}

func (c *AuthController) authResponse(session *services.Session) dto.AuthResponse {
	return dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           session.Tokens.AccessToken,
			TokenType:             "Bearer",
			ExpiresIn:             int64(session.Tokens.ExpiresIn),
			RefreshToken:          session.Tokens.RefreshToken,
			RefreshTokenExpiresIn: int64(session.Tokens.RefreshExpiresIn),
		},
		User: dto.NewUserResponse(session.User, c.fileURL),
	}
}

// Login handles user login
// @Summary User login
// @Description Authenticates with a username or email address and returns an access and refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		bindError(ctx, err)
		return
	}

	session, err := c.authService.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.logger.Warn().Err(err).Str("login", req.Username).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", session.User.ID).Msg("User logged in successfully")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(c.authResponse(session), "Login successful"))
}

// RefreshToken handles refresh token request
// @Summary Refresh access token
// @Description Exchanges a valid refresh token for a new token pair. The old refresh token is revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Token refreshed successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Invalid refresh token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid refresh token request payload")
		bindError(ctx, err)
		return
	}

	session, err := c.authService.Refresh(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Refresh token failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(c.authResponse(session), "Token refreshed"))
}

// Logout revokes the caller's tokens
// @Summary Logout
// @Description Revokes the given refresh token, or every refresh token of the user when none is given, and denylists the current access token
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.LogoutRequest false "Refresh token to revoke"
// @Success 200 {object} dto.APIResponse "Logged out"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrUnauthenticated)
		return
	}

	// The body is optional
	var req dto.LogoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(ctx, err)
		return
	}

	if err := c.authService.Logout(ctx.Request.Context(), claims, req.RefreshToken); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", claims.UserID).Msg("User logged out")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Logged out"))
}
