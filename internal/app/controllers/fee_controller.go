package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/services"
	"github.com/yigit/collegeerp/internal/middleware"
)

// FeeController handles fee records and payments
type FeeController struct {
	feeService *services.FeeService
	logger     zerolog.Logger
}

// NewFeeController creates a new FeeController
func NewFeeController(feeService *services.FeeService, logger zerolog.Logger) *FeeController {
	return &FeeController{
		feeService: feeService,
		logger:     logger,
	}
}

// ListFees lists fee records
// @Summary List fees
// @Description Ordered by due date with the student's name and roll number
// @Tags fees
// @Produce json
// @Security BearerAuth
// @Param status query string false "Outstanding or Paid"
// @Success 200 {object} dto.APIResponse{data=[]models.Fee}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid status"
// @Router /fees [get]
func (c *FeeController) ListFees(ctx *gin.Context) {
	fees, err := c.feeService.ListFees(ctx.Request.Context(), ctx.Query("status"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(fees))
}

// CreateFee creates a fee record
// @Summary Create fee
// @Tags fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateFeeRequest true "Fee"
// @Success 201 {object} dto.APIResponse{data=models.Fee}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid request data"
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "Student not found"
// @Router /fees [post]
func (c *FeeController) CreateFee(ctx *gin.Context) {
	var req dto.CreateFeeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid fee payload")
		middleware.RespondValidationError(ctx, err)
		return
	}

	fee, err := c.feeService.CreateFee(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(fee))
}

// RecordPayment records a payment against a fee
// @Summary Record payment
// @Description Amount must be positive and no more than the outstanding amount. The fee becomes Paid when nothing is left.
// @Tags fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Fee ID"
// @Param request body dto.RecordPaymentRequest true "Payment"
// @Success 200 {object} dto.APIResponse{data=models.Fee}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid amount"
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "Fee not found"
// @Router /fees/{id}/payments [post]
func (c *FeeController) RecordPayment(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.RecordPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Str("feeID", id.String()).Msg("Invalid payment payload")
		middleware.RespondValidationError(ctx, err)
		return
	}

	fee, err := c.feeService.RecordPayment(ctx.Request.Context(), id, req.Amount)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(fee))
}

// MyFees lists the signed-in student's fees
// @Summary Own fees
// @Tags fees
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Fee}
// @Router /fees/me [get]
func (c *FeeController) MyFees(ctx *gin.Context) {
	studentID, ok := currentSubject(ctx)
	if !ok {
		return
	}
	fees, err := c.feeService.ListStudentFees(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(fees))
}
