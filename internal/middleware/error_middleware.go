package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/auth"
	"github.com/yigit/collegeerp/internal/pkg/breaker"
	"github.com/yigit/collegeerp/internal/pkg/filestorage"
	"github.com/yigit/collegeerp/internal/pkg/logger"
)

type errorMapping struct {
	targets []error
	status  int
	code    dto.ErrorCode
	message string
}

// errorMappings are checked in order; the first match wins. An empty message
// means the error's own text is shown.
var errorMappings = []errorMapping{
	{[]error{apperrors.ErrInvalidCredentials}, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid email or password"},
	{[]error{apperrors.ErrTokenExpired, auth.ErrExpiredToken}, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{[]error{apperrors.ErrTokenRevoked}, http.StatusUnauthorized, dto.ErrorCodeTokenRevoked, "Token revoked"},
	{[]error{apperrors.ErrTokenInvalid, auth.ErrInvalidToken, auth.ErrInvalidFormat}, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{[]error{apperrors.ErrNotAuthenticated}, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required"},
	{[]error{apperrors.ErrOAuthFailed}, http.StatusUnauthorized, dto.ErrorCodeExternalServiceError, "Sign-in with the identity provider failed"},
	{[]error{apperrors.ErrPermissionDenied}, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},

	{[]error{apperrors.ErrValidationFailed, apperrors.ErrInvalidPayment, apperrors.ErrPaymentExceedsDue}, http.StatusBadRequest, dto.ErrorCodeValidationFailed, ""},
	{[]error{apperrors.ErrBadRequest, filestorage.ErrInvalidObjectPath}, http.StatusBadRequest, dto.ErrorCodeBadRequest, ""},

	{[]error{
		apperrors.ErrResourceNotFound,
		apperrors.ErrUserNotFound,
		apperrors.ErrDepartmentNotFound,
		apperrors.ErrCourseNotFound,
		apperrors.ErrFeeNotFound,
		apperrors.ErrODRequestNotFound,
		filestorage.ErrObjectNotFound,
	}, http.StatusNotFound, dto.ErrorCodeResourceNotFound, ""},

	{[]error{
		apperrors.ErrResourceAlreadyExists,
		apperrors.ErrEmailAlreadyExists,
		apperrors.ErrUsernameExists,
		apperrors.ErrRollNumberExists,
		apperrors.ErrDepartmentAlreadyExists,
		apperrors.ErrCourseAlreadyExists,
	}, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, ""},
	{[]error{apperrors.ErrConflict, apperrors.ErrDepartmentHasRelations}, http.StatusConflict, dto.ErrorCodeConflict, ""},

	{[]error{apperrors.ErrUnavailable, breaker.ErrOpen, context.DeadlineExceeded}, http.StatusServiceUnavailable, dto.ErrorCodeServiceUnavailable, "Service temporarily unavailable"},
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	status, detail := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func errorResponse(err error) (int, *dto.ErrorDetail) {
	var custom *apperrors.CustomError
	hasCustom := errors.As(err, &custom)

	for _, m := range errorMappings {
		if !apperrors.Is(err, m.targets[0], m.targets[1:]...) {
			continue
		}
		message := m.message
		if message == "" {
			message = err.Error()
		}
		detail := dto.NewErrorDetail(m.code, message)
		if hasCustom {
			if custom.Message != "" && m.message == "" {
				detail.Message = custom.Message
			}
			if custom.Details != nil {
				detail.WithDetails(custom.Details)
			}
		}
		return m.status, detail
	}

	return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
}

// RespondValidationError writes a 400 for a request that failed binding.
func RespondValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
}
