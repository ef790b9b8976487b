package controllers

import (
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/app/services"
	"github.com/yigit/kebele/internal/middleware"
	"github.com/yigit/kebele/internal/pkg/apperrors"
)

// FileController streams stored attachments and profile pictures to callers
// allowed to see the record that references them
type FileController struct {
	applicationService *services.ApplicationService
	userService        *services.UserService
	logger             zerolog.Logger
}

// NewFileController creates a new FileController
func NewFileController(applicationService *services.ApplicationService, userService *services.UserService, logger zerolog.Logger) *FileController {
	return &FileController{
		applicationService: applicationService,
		userService:        userService,
		logger:             logger,
	}
}

// ServeFile returns a stored file
// @Summary Download a stored file
// @Description Returns an application attachment to its owner or staff, or a profile picture to its user or staff. The links in application and user responses point here.
// @Tags files
// @Produce octet-stream
// @Security BearerAuth
// @Param key path string true "Storage key, e.g. applications/photos/<uuid>.png"
// @Success 200 {file} binary "File content"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not permitted"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /files/{key} [get]
func (c *FileController) ServeFile(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	key := strings.TrimPrefix(ctx.Param("key"), "/")
	if key == "" {
		middleware.HandleAPIError(ctx, apperrors.ErrFileNotFound)
		return
	}

	var (
		file io.ReadSeekCloser
		err  error
	)
	if strings.HasPrefix(key, models.ProfilePictureDir+"/") {
		file, err = c.userService.OpenProfilePicture(ctx.Request.Context(), actor, key)
	} else {
		file, err = c.applicationService.OpenAttachment(ctx.Request.Context(), actor, key)
	}
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Int64("userID", actor.UserID).Msg("File access refused")
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer file.Close()

	ctx.Header("Cache-Control", "private, no-store")
	http.ServeContent(ctx.Writer, ctx.Request, path.Base(key), time.Time{}, file)
}
