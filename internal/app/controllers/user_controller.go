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

// UserController handles user administration, the own profile and the
// student directory.
type UserController struct {
	userService *services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(userService *services.UserService, logger zerolog.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

// CreateTeacher creates a teacher account
// @Summary Create teacher
// @Description Creates the credential and the TEACHER profile in one transaction and mails the new user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTeacherRequest true "Teacher"
// @Success 201 {object} dto.APIResponse{data=models.Profile} "Teacher created"
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid request data"
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail} "Forbidden"
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Email or username already exists"
// @Router /users/teachers [post]
func (c *UserController) CreateTeacher(ctx *gin.Context) {
	var req dto.CreateTeacherRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid create teacher payload")
		middleware.RespondValidationError(ctx, err)
		return
	}

	profile, err := c.userService.CreateTeacher(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(profile))
}

// CreateStudent creates a student account
// @Summary Create student
// @Description Creates the credential and the STUDENT profile in one transaction and mails the new user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateStudentRequest true "Student"
// @Success 201 {object} dto.APIResponse{data=models.Profile} "Student created"
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid request data"
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail} "Forbidden"
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Email, username or roll number already exists"
// @Router /users/students [post]
func (c *UserController) CreateStudent(ctx *gin.Context) {
	var req dto.CreateStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid create student payload")
		middleware.RespondValidationError(ctx, err)
		return
	}

	profile, err := c.userService.CreateStudent(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(profile))
}

// ListUsers lists all profiles
// @Summary List users
// @Description Profiles ordered by role then first name
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (0-based)" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.UserListResponse}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail} "Forbidden"
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	resp, err := c.userService.ListUsers(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// GetUser returns one profile
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} dto.APIResponse{data=models.Profile}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid user ID"
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	profile, err := c.userService.GetUser(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(profile))
}

// UpdateUser edits a profile, including its role
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body dto.UpdateUserRequest true "Profile fields"
// @Success 200 {object} dto.APIResponse{data=models.Profile}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid request data"
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "User not found"
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Duplicate username or roll number"
// @Router /users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Str("userID", id.String()).Msg("Invalid update user payload")
		middleware.RespondValidationError(ctx, err)
		return
	}

	profile, err := c.userService.UpdateUser(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(profile))
}

// DeleteUser removes a user and their profile
// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid ID or own account"
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "User not found"
// @Router /users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	actorID, ok := currentSubject(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.userService.DeleteUser(ctx.Request.Context(), actorID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "User deleted successfully"}))
}

// GetProfile returns the signed-in user's profile
// @Summary Own profile
// @Description The caller's profile joined with the department name
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.Profile}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "Profile not found"
// @Router /profile [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	id, ok := currentSubject(ctx)
	if !ok {
		return
	}
	profile, err := c.userService.GetOwnProfile(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(profile))
}

// ListStudents lists the student directory
// @Summary List students
// @Description Students ordered by roll number, optionally filtered by department and year
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param departmentId query string false "Department ID"
// @Param year query string false "Year of study"
// @Success 200 {object} dto.APIResponse{data=[]models.Profile}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid department ID"
// @Router /students [get]
func (c *UserController) ListStudents(ctx *gin.Context) {
	departmentID, err := helpers.ParseOptionalUUIDQuery(ctx, "departmentId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	students, err := c.userService.ListStudents(ctx.Request.Context(), dto.StudentFilterRequest{
		DepartmentID: departmentID,
		Year:         ctx.Query("year"),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(students))
}
