package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/kebele/internal/app/controllers"
	"github.com/yigit/kebele/internal/app/models/dto"
	"github.com/yigit/kebele/internal/middleware"
)

// Controllers groups the HTTP handlers mounted under /api/v1
type Controllers struct {
	Auth        *controllers.AuthController
	User        *controllers.UserController
	Application *controllers.ApplicationController
	File        *controllers.FileController
}

// HealthCheck reports whether a backing dependency is reachable
type HealthCheck func(ctx context.Context) error

// SetupRouter configures all application routes. uploadLimit caps the body
// of multipart endpoints.
func SetupRouter(
	router *gin.Engine,
	ctrl Controllers,
	authMiddleware *middleware.AuthMiddleware,
	health HealthCheck,
	uploadLimit int64,
) {
	dto.RegisterTagNames()

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", ctrl.Auth.Login)
		auth.POST("/refresh", ctrl.Auth.RefreshToken)
	}
	v1.POST("/users/register", middleware.LimitBody(uploadLimit), ctrl.User.Register)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth(), authMiddleware.ResolveActor())
	{
		authenticated.POST("/auth/logout", ctrl.Auth.Logout)

		users := authenticated.Group("/users")
		{
			users.GET("", authMiddleware.RequireAdmin(), ctrl.User.ListUsers)
			users.GET("/:id", ctrl.User.GetUser)
			users.PUT("/:id", middleware.LimitBody(uploadLimit), ctrl.User.UpdateUser)
			users.PATCH("/:id", middleware.LimitBody(uploadLimit), ctrl.User.UpdateUser)
			users.DELETE("/:id", ctrl.User.DeleteUser)
		}

		applications := authenticated.Group("/applications")
		applications.Use(middleware.LimitBody(uploadLimit))
		{
			applications.POST("", ctrl.Application.CreateApplication)
			applications.GET("", ctrl.Application.ListApplications)
			applications.GET("/:id", ctrl.Application.GetApplication)
			applications.PUT("/:id", ctrl.Application.UpdateApplication)
			applications.PATCH("/:id", ctrl.Application.UpdateApplication)
			applications.DELETE("/:id", ctrl.Application.DeleteApplication)
		}

		authenticated.GET("/files/*key", ctrl.File.ServeFile)
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		if health != nil {
			if err := health(c.Request.Context()); err != nil {
				errorDetail := dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Service unavailable").
					WithDetails(err.Error())
				c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(errorDetail))
				return
			}
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}, ""))
	})
}
