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

// AttendanceController handles attendance marking and reports
type AttendanceController struct {
	attendanceService *services.AttendanceService
	logger            zerolog.Logger
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(attendanceService *services.AttendanceService, logger zerolog.Logger) *AttendanceController {
	return &AttendanceController{
		attendanceService: attendanceService,
		logger:            logger,
	}
}

// MarkAttendance records a class's attendance for one date
// @Summary Mark attendance
// @Description Upserts one record per (student, course, date). A reason is kept only for absences.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.MarkAttendanceRequest true "Attendance sheet"
// @Success 200 {object} dto.APIResponse{data=dto.BulkResult}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid request data"
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail} "Forbidden"
// @Router /attendance [post]
func (c *AttendanceController) MarkAttendance(ctx *gin.Context) {
	var req dto.MarkAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid attendance payload")
		middleware.RespondValidationError(ctx, err)
		return
	}

	result, err := c.attendanceService.MarkAttendance(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(result))
}

// MyAttendance lists the signed-in student's attendance
// @Summary Own attendance
// @Description Newest first, with the course name
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Attendance}
// @Router /attendance/me [get]
func (c *AttendanceController) MyAttendance(ctx *gin.Context) {
	studentID, ok := currentSubject(ctx)
	if !ok {
		return
	}
	records, err := c.attendanceService.ListStudentAttendance(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(records))
}

// ListAttendance lists attendance across students
// @Summary All attendance
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD)"
// @Param departmentId query string false "Student department ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Attendance}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid filter"
// @Router /attendance [get]
func (c *AttendanceController) ListAttendance(ctx *gin.Context) {
	date, err := helpers.ParseOptionalDateQuery(ctx, "date")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	departmentID, err := helpers.ParseOptionalUUIDQuery(ctx, "departmentId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	records, err := c.attendanceService.ListAttendance(ctx.Request.Context(), date, departmentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(records))
}
