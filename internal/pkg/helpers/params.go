package helpers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
)

// DateLayout is the calendar date format used in requests and responses.
const DateLayout = "2006-01-02"

// ParseUUIDParam parses a path parameter as a UUID.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.NewCustomError(apperrors.ErrBadRequest, fmt.Sprintf("invalid %s", name)).
			WithDetails(map[string]interface{}{"field": name, "value": c.Param(name)})
	}
	return id, nil
}

// ParseOptionalUUIDQuery parses an optional query parameter as a UUID.
func ParseOptionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.NewCustomError(apperrors.ErrBadRequest, fmt.Sprintf("invalid %s", name)).
			WithDetails(map[string]interface{}{"field": name, "value": raw})
	}
	return &id, nil
}

// ParseOptionalDateQuery parses an optional YYYY-MM-DD query parameter.
func ParseOptionalDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, apperrors.NewCustomError(apperrors.ErrBadRequest, fmt.Sprintf("invalid %s, expected YYYY-MM-DD", name)).
			WithDetails(map[string]interface{}{"field": name, "value": raw})
	}
	return &d, nil
}
