package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/services"
	"github.com/yigit/collegeerp/internal/middleware"
	"github.com/yigit/collegeerp/internal/pkg/websocket"
)

const dashboardStream = "dashboard"

// DashboardController serves the dashboard counters
type DashboardController struct {
	dashboardService *services.DashboardService
	realtime         *services.RealtimeService
	hub              *websocket.Hub
	upgrader         *gorilla.Upgrader
	streams          StreamRecorder
	logger           zerolog.Logger
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(
	dashboardService *services.DashboardService,
	realtime *services.RealtimeService,
	hub *websocket.Hub,
	upgrader *gorilla.Upgrader,
	streams StreamRecorder,
	logger zerolog.Logger,
) *DashboardController {
	return &DashboardController{
		dashboardService: dashboardService,
		realtime:         realtime,
		hub:              hub,
		upgrader:         upgrader,
		streams:          streams,
		logger:           logger,
	}
}

// Stats returns the dashboard counters
// @Summary Dashboard stats
// @Description Profile, department, course and pending OD request counts
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.DashboardStats}
// @Router /dashboard/stats [get]
func (c *DashboardController) Stats(ctx *gin.Context) {
	stats, err := c.dashboardService.Stats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(stats))
}

// Stream pushes refreshed counters over a websocket
// @Summary Dashboard stream
// @Description Upgrades to a websocket and pushes a stats snapshot now and whenever profiles, departments, courses or OD requests change
// @Tags dashboard
// @Security BearerAuth
// @Param access_token query string false "Access token for clients that cannot set headers"
// @Success 101 "Switching protocols"
// @Router /dashboard/ws [get]
func (c *DashboardController) Stream(ctx *gin.Context) {
	subjectID, ok := currentSubject(ctx)
	if !ok {
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to upgrade dashboard connection")
		return
	}

	client := websocket.NewClient(
		context.WithoutCancel(ctx.Request.Context()),
		c.hub, conn,
		services.TopicDashboard,
		subjectID.String(),
		nil,
		c.logger,
	)
	client.Serve()
	trackStream(client, c.streams, dashboardStream)

	go func() {
		if err := c.realtime.DashboardStream(client.Context(), client.Send); err != nil {
			c.logger.Warn().Err(err).Str("subjectID", subjectID.String()).Msg("Dashboard stream ended")
		}
	}()
}
