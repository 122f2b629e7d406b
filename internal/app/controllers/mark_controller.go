package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/services"
	"github.com/yigit/collegeerp/internal/middleware"
	"github.com/yigit/collegeerp/internal/pkg/helpers"
)

// MarkController handles mark uploads and reports
type MarkController struct {
	markService *services.MarkService
	logger      zerolog.Logger
}

// NewMarkController creates a new MarkController
func NewMarkController(markService *services.MarkService, logger zerolog.Logger) *MarkController {
	return &MarkController{
		markService: markService,
		logger:      logger,
	}
}

// UploadMarks records scores for a course
// @Summary Upload marks
// @Description Upserts one mark per (student, course). The grade is derived from the score.
// @Tags marks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UploadMarksRequest true "Marks sheet"
// @Success 200 {object} dto.APIResponse{data=dto.BulkResult}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid request data"
// @Router /marks [post]
func (c *MarkController) UploadMarks(ctx *gin.Context) {
	var req dto.UploadMarksRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid marks payload")
		middleware.RespondValidationError(ctx, err)
		return
	}

	result, err := c.markService.UploadMarks(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(result))
}

// MyMarks lists the signed-in student's marks
// @Summary Own marks
// @Tags marks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Mark}
// @Router /marks/me [get]
func (c *MarkController) MyMarks(ctx *gin.Context) {
	studentID, ok := currentSubject(ctx)
	if !ok {
		return
	}
	marks, err := c.markService.ListStudentMarks(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(marks))
}

// ListMarks lists marks across students
// @Summary All marks
// @Tags marks
// @Produce json
// @Security BearerAuth
// @Param departmentId query string false "Student department ID"
// @Param year query string false "Year of study"
// @Param course query string false "Course name or code contains"
// @Success 200 {object} dto.APIResponse{data=[]models.Mark}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid filter"
// @Router /marks [get]
func (c *MarkController) ListMarks(ctx *gin.Context) {
	departmentID, err := helpers.ParseOptionalUUIDQuery(ctx, "departmentId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	marks, err := c.markService.ListMarks(ctx.Request.Context(), departmentID, ctx.Query("year"), ctx.Query("course"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(marks))
}
