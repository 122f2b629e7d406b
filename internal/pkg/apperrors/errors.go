package apperrors

import "errors"

// Generic kinds. Handlers map these to HTTP statuses.
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrOAuthFailed        = errors.New("oauth sign-in failed")
	ErrPermissionDenied   = errors.New("permission denied")

	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	ErrUnavailable = errors.New("service temporarily unavailable")
)

// Accounts
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUsernameExists     = errors.New("username already exists")
	ErrRollNumberExists   = errors.New("roll number already exists")
)

// Catalogue
var (
	ErrDepartmentNotFound      = errors.New("department not found")
	ErrDepartmentAlreadyExists = errors.New("department with this name or code already exists")
	ErrDepartmentHasRelations  = errors.New("department has associated data and cannot be deleted")
	ErrCourseNotFound          = errors.New("course not found")
	ErrCourseAlreadyExists     = errors.New("course with this code already exists")
)

// Fees and OD requests
var (
	ErrFeeNotFound       = errors.New("fee record not found")
	ErrInvalidPayment    = errors.New("payment amount must be positive")
	ErrPaymentExceedsDue = errors.New("payment amount exceeds outstanding amount")
	ErrODRequestNotFound = errors.New("od request not found")
)

// CustomError attaches a user-facing message and optional details to one of
// the kinds above.
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

func (e *CustomError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "unknown error"
	}
}

func (e *CustomError) Unwrap() error { return e.Err }

// NewCustomError wraps kind with message.
func NewCustomError(kind error, message string) *CustomError {
	return &CustomError{Err: kind, Message: message}
}

// WithDetails attaches structured context rendered in the error response.
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// NewResourceNotFoundError reports a missing resource with a specific message.
func NewResourceNotFoundError(message string) error {
	return NewCustomError(ErrResourceNotFound, message)
}

// NewBadRequestError reports a malformed request with a specific message.
func NewBadRequestError(message string) error {
	return NewCustomError(ErrBadRequest, message)
}

// Is reports whether err matches target or any of others.
func Is(err, target error, others ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, o := range others {
		if errors.Is(err, o) {
			return true
		}
	}
	return false
}
