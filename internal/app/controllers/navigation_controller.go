package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/session"
	"github.com/yigit/collegeerp/internal/middleware"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
)

// NavigationController exposes the sidebar and guard verdicts for the
// current session.
type NavigationController struct {
	views *session.Views
}

// NewNavigationController creates a new NavigationController
func NewNavigationController(views *session.Views) *NavigationController {
	return &NavigationController{views: views}
}

// Menu returns the sidebar for the current role
// @Summary Sidebar menu
// @Description Lists the views of the signed-in role with the guard verdict of each. Empty while anonymous or without a role.
// @Tags navigation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MenuResponse}
// @Router /navigation/menu [get]
func (c *NavigationController) Menu(ctx *gin.Context) {
	state := middleware.GetSessionState(ctx)
	items := c.views.Menu(state)
	if items == nil {
		items = []session.MenuItem{}
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.MenuResponse{
		Role:  state.Role.String(),
		Items: items,
	}))
}

// Guard evaluates the route guard for a view path
// @Summary Guard verdict
// @Description Returns wait, redirect (with location) or allow for the given view path and the current session
// @Tags navigation
// @Produce json
// @Param path query string true "View path, e.g. /erp/manage-users"
// @Success 200 {object} dto.APIResponse{data=dto.GuardResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Missing path"
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "Unknown view"
// @Router /navigation/guard [get]
func (c *NavigationController) Guard(ctx *gin.Context) {
	path := ctx.Query("path")
	if path == "" {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("path is required"))
		return
	}

	verdict, err := c.views.Check(middleware.GetSessionState(ctx), path)
	if err != nil {
		if errors.Is(err, session.ErrUnknownView) {
			err = apperrors.NewCustomError(apperrors.ErrResourceNotFound, "unknown view").
				WithDetails(map[string]interface{}{"path": path})
		}
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.GuardResponse{Path: path, Verdict: verdict}))
}
