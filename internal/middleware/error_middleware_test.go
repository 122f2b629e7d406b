package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/breaker"
)

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"bad credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, "AUTH_001", "Invalid email or password"},
		{"revoked", fmt.Errorf("refresh: %w", apperrors.ErrTokenRevoked), http.StatusUnauthorized, "AUTH_007", "Token revoked"},
		{"oauth", apperrors.ErrOAuthFailed, http.StatusUnauthorized, "SRV_003", "Sign-in with the identity provider failed"},
		{"validation", fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed), http.StatusBadRequest, "VAL_001", "validation failed: name cannot be empty"},
		{"payment", apperrors.ErrPaymentExceedsDue, http.StatusBadRequest, "VAL_001", "payment amount exceeds outstanding amount"},
		{"bad request", apperrors.NewBadRequestError("you cannot delete your own account"), http.StatusBadRequest, "VAL_002", "you cannot delete your own account"},
		{"not found", apperrors.ErrCourseNotFound, http.StatusNotFound, "RES_001", "course not found"},
		{"duplicate", apperrors.ErrEmailAlreadyExists, http.StatusConflict, "RES_002", "email already exists"},
		{"relations", apperrors.ErrDepartmentHasRelations, http.StatusConflict, "RES_004", "department has associated data and cannot be deleted"},
		{"breaker", errors.Join(breaker.ErrOpen, errors.New("open")), http.StatusServiceUnavailable, "SRV_004", "Service temporarily unavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "SRV_001", "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(c, tt.err)

			require.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"code":%q,"message":%q,"severity":"ERROR"}`, tt.code, tt.message), errorJSON(t, w))
		})
	}
}

func TestHandleAPIError_CustomDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	err := apperrors.NewCustomError(apperrors.ErrBadRequest, "invalid id").
		WithDetails(map[string]interface{}{"field": "id"})
	HandleAPIError(c, err)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"code":"VAL_002","message":"invalid id","severity":"ERROR","details":{"field":"id"}}`, errorJSON(t, w))
}

func errorJSON(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error map[string]interface{} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	out, err := json.Marshal(body.Error)
	require.NoError(t, err)
	return string(out)
}
