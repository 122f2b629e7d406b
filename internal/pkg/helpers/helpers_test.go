package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/collegeerp/internal/pkg/apperrors"
)

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 10)
	assert.Equal(t, uint64(20), offset)
	assert.Equal(t, uint64(10), limit)

	offset, limit = CalculateOffsetLimit(0, 1000)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, uint64(DefaultPageSize), limit)
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(45, 2, 20)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)

	info = NewPaginationInfo(0, 5, 20)
	assert.Equal(t, 1, info.TotalPages)
	assert.Equal(t, 1, info.CurrentPage)
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/users?page=2&size=500", nil)

	page, size := ParsePaginationParams(c)
	assert.Equal(t, 2, page)
	assert.Equal(t, DefaultPageSize, size)
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, NullIfEmpty("   "))
	assert.Equal(t, "x", *NullIfEmpty(" x "))
	assert.Equal(t, "", Deref(nil))
}


func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	c := testContext("/")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	got, err := ParseUUIDParam(c, "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	c.Params = gin.Params{{Key: "id", Value: "42"}}
	_, err = ParseUUIDParam(c, "id")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestParseOptionalQueries(t *testing.T) {
	c := testContext("/attendance?date=2024-03-05&departmentId=nope")

	date, err := ParseOptionalDateQuery(c, "date")
	require.NoError(t, err)
	assert.True(t, date.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))

	_, err = ParseOptionalUUIDQuery(c, "departmentId")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	missing, err := ParseOptionalUUIDQuery(c, "courseId")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = ParseOptionalDateQuery(testContext("/attendance?date=05-03-2024"), "date")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}
