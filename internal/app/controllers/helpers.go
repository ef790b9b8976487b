package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appAuth "github.com/yigit/kebele/internal/app/auth"
	"github.com/yigit/kebele/internal/app/models/dto"
	"github.com/yigit/kebele/internal/middleware"
	"github.com/yigit/kebele/internal/pkg/apperrors"
)

// parseID reads a positive int64 path parameter
func parseID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid ID").
			WithField(name).
			WithDetails("ID must be a positive integer")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// currentActor returns the actor placed by the ResolveActor middleware
func currentActor(ctx *gin.Context) (appAuth.Actor, bool) {
	actor, ok := middleware.GetActor(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrUnauthenticated)
		return appAuth.Actor{}, false
	}
	return actor, true
}

// bindError writes the response for a failed ShouldBind
func bindError(ctx *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodePayloadTooLarge, "Request body too large").
			WithDetails(tooLarge.Error())
		ctx.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(errorDetail))
		return
	}
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
}

// optionalFile returns the uploaded file under field, or nil when the
// request carries none. JSON and urlencoded bodies have no files.
func optionalFile(ctx *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := ctx.FormFile(field)
	switch {
	case err == nil:
		return fh, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	default:
		return nil, err
	}
}
