package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/services"
	"github.com/yigit/collegeerp/internal/middleware"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
)

// multipart overhead allowed on top of the document itself
const odFormOverhead = 1 << 20

// ODController handles on-duty requests
type ODController struct {
	odService *services.ODService
	logger    zerolog.Logger
}

// NewODController creates a new ODController
func NewODController(odService *services.ODService, logger zerolog.Logger) *ODController {
	return &ODController{
		odService: odService,
		logger:    logger,
	}
}

// SubmitRequest files an OD request
// @Summary Submit OD request
// @Description Multipart form with an optional supporting document (pdf, doc, docx, jpg, png; 10 MB max)
// @Tags od-requests
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param reason formData string true "Reason"
// @Param request_date formData string true "Date (YYYY-MM-DD)"
// @Param document formData file false "Supporting document"
// @Success 201 {object} dto.APIResponse{data=models.ODRequest}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid form data"
// @Router /od-requests [post]
func (c *ODController) SubmitRequest(ctx *gin.Context) {
	studentID, ok := currentSubject(ctx)
	if !ok {
		return
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, services.MaxODDocumentSize+odFormOverhead)
	if err := ctx.Request.ParseMultipartForm(services.MaxODDocumentSize); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid OD request form")
		middleware.HandleAPIError(ctx, fmt.Errorf("%w: invalid multipart form or document too large", apperrors.ErrValidationFailed))
		return
	}

	in := services.SubmitODInput{
		StudentID:   studentID,
		Reason:      ctx.PostForm("reason"),
		RequestDate: ctx.PostForm("request_date"),
	}

	fileHeader, err := ctx.FormFile("document")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("could not read document"))
		return
	default:
		if fileHeader.Size > services.MaxODDocumentSize {
			middleware.HandleAPIError(ctx, fmt.Errorf("%w: document must be at most 10 MB", apperrors.ErrValidationFailed))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		defer file.Close()
		in.Document = &services.ODDocument{Filename: fileHeader.Filename, Content: file}
	}

	req, err := c.odService.SubmitRequest(ctx.Request.Context(), in)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(req))
}

// MyRequests lists the signed-in student's OD requests
// @Summary Own OD requests
// @Tags od-requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.ODRequest}
// @Router /od-requests/me [get]
func (c *ODController) MyRequests(ctx *gin.Context) {
	studentID, ok := currentSubject(ctx)
	if !ok {
		return
	}
	requests, err := c.odService.ListStudentRequests(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(requests))
}

// ListRequests lists OD requests for review
// @Summary List OD requests
// @Tags od-requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "Pending, Approved or Rejected"
// @Success 200 {object} dto.APIResponse{data=[]models.ODRequest}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid status"
// @Router /od-requests [get]
func (c *ODController) ListRequests(ctx *gin.Context) {
	requests, err := c.odService.ListRequests(ctx.Request.Context(), ctx.Query("status"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(requests))
}

// UpdateStatus approves or rejects an OD request
// @Summary Review OD request
// @Tags od-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "OD request ID"
// @Param request body dto.UpdateODStatusRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=models.ODRequest}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid status"
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "OD request not found"
// @Router /od-requests/{id} [patch]
func (c *ODController) UpdateStatus(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateODStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondValidationError(ctx, err)
		return
	}

	updated, err := c.odService.UpdateStatus(ctx.Request.Context(), id, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(updated))
}
