package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yigit/collegeerp/internal/middleware"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/helpers"
)

// StreamRecorder counts open realtime streams.
type StreamRecorder interface {
	WebsocketOpened(stream string)
	WebsocketClosed(stream string)
}

// currentSubject returns the signed-in user's id, writing a 401 when the
// request carries no session.
func currentSubject(ctx *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetSubjectID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrNotAuthenticated)
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses a UUID path parameter, writing a 400 when it is malformed.
func pathID(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := helpers.ParseUUIDParam(ctx, name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return uuid.Nil, false
	}
	return id, true
}
