package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/app/models/dto"
	"github.com/yigit/kebele/internal/app/rules"
	"github.com/yigit/kebele/internal/app/services"
	"github.com/yigit/kebele/internal/middleware"
	"github.com/yigit/kebele/internal/pkg/helpers"
)

// ApplicationController handles identity-document applications
type ApplicationController struct {
	applicationService *services.ApplicationService
	logger             zerolog.Logger
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(applicationService *services.ApplicationService, logger zerolog.Logger) *ApplicationController {
	return &ApplicationController{
		applicationService: applicationService,
		logger:             logger,
	}
}

// readUploads collects the attachment files present in a multipart request
func readUploads(ctx *gin.Context) (services.Uploads, error) {
	files := services.Uploads{}
	for _, slot := range models.Attachments {
		fh, err := optionalFile(ctx, string(slot))
		if err != nil {
			return nil, err
		}
		if fh != nil {
			files[slot] = fh
		}
	}
	return files, nil
}

func (c *ApplicationController) view(app *models.Application) interface{} {
	return rules.Project(app, c.applicationService.FileURL)
}

// CreateApplication handles application submission
// @Summary Submit an application
// @Description Submits a NEW_ID, ID_RENEWAL or BIRTH_CERTIFICATE application with its attachments. The applicant is the authenticated user and the status starts as PENDING. Only one pending application per user is allowed.
// @Tags applications
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param application_type formData string true "Application type" Enums(NEW_ID, ID_RENEWAL, BIRTH_CERTIFICATE)
// @Param full_name formData string false "Applicant full name"
// @Param dob formData string false "Date of birth (YYYY-MM-DD)"
// @Param photo formData file false "Applicant photo (required for NEW_ID and ID_RENEWAL)"
// @Param residence_proof formData file false "Residence proof PDF (required for NEW_ID)"
// @Param old_id_card formData file false "Previous ID card (required for ID_RENEWAL)"
// @Param hospital_proof formData file false "Hospital birth proof (required for BIRTH_CERTIFICATE)"
// @Param parent_id formData file false "Parent ID (required for BIRTH_CERTIFICATE)"
// @Param birth_certificate_photo formData file false "Child photo"
// @Success 201 {object} dto.APIResponse "Application created"
// @Failure 400 {object} dto.ErrorResponse "Validation error or pending application exists"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /applications [post]
func (c *ApplicationController) CreateApplication(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req dto.CreateApplicationRequest
	if err := ctx.ShouldBind(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid application payload")
		bindError(ctx, err)
		return
	}

	fields, err := req.ToFields()
	if err != nil {
		bindError(ctx, err)
		return
	}
	files, err := readUploads(ctx)
	if err != nil {
		bindError(ctx, err)
		return
	}

	app, err := c.applicationService.Create(ctx.Request.Context(), actor, services.CreateApplicationInput{
		Type:   models.ApplicationType(req.ApplicationType),
		Fields: fields,
		Files:  files,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(c.view(app), "Application submitted"))
}

// ListApplications lists applications visible to the caller
// @Summary List applications
// @Description Staff see every application, residents only their own. Each item shows only the fields relevant to its type.
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse "Applications retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /applications [get]
func (c *ApplicationController) ListApplications(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	apps, total, err := c.applicationService.List(ctx.Request.Context(), actor, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	views := make([]interface{}, 0, len(apps))
	for _, app := range apps {
		views = append(views, c.view(app))
	}
	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(views, helpers.NewPaginationInfo(total, page, size)))
}

// GetApplication retrieves one application
// @Summary Get application by ID
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.APIResponse "Application retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /applications/{id} [get]
func (c *ApplicationController) GetApplication(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	app, err := c.applicationService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(c.view(app), ""))
}

// UpdateApplication merges changes onto an application
// @Summary Update an application
// @Description Partially updates an application. Residents may edit their own application while it is PENDING. Only staff may change the status, which emails the applicant.
// @Tags applications
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param application_type formData string false "Application type" Enums(NEW_ID, ID_RENEWAL, BIRTH_CERTIFICATE)
// @Param status formData string false "Status (staff only)" Enums(PENDING, READY, REJECTED)
// @Param photo formData file false "Replacement photo"
// @Param residence_proof formData file false "Replacement residence proof PDF"
// @Success 200 {object} dto.APIResponse "Application updated"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not permitted"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /applications/{id} [put]
// @Router /applications/{id} [patch]
func (c *ApplicationController) UpdateApplication(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateApplicationRequest
	if err := ctx.ShouldBind(&req); err != nil {
		c.logger.Warn().Err(err).Int64("applicationID", id).Msg("Invalid application update payload")
		bindError(ctx, err)
		return
	}

	fields, err := req.ToFields()
	if err != nil {
		bindError(ctx, err)
		return
	}
	files, err := readUploads(ctx)
	if err != nil {
		bindError(ctx, err)
		return
	}

	in := services.UpdateApplicationInput{Fields: fields, Files: files}
	if req.ApplicationType != nil {
		t := models.ApplicationType(*req.ApplicationType)
		in.Type = &t
	}
	if req.Status != nil {
		s := models.ApplicationStatus(*req.Status)
		in.Status = &s
	}

	app, err := c.applicationService.Update(ctx.Request.Context(), actor, id, in)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(c.view(app), "Application updated"))
}

// DeleteApplication removes an application
// @Summary Delete an application
// @Tags applications
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 204 "Application deleted"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /applications/{id} [delete]
func (c *ApplicationController) DeleteApplication(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.applicationService.Delete(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
