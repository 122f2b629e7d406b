// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/services"
	"github.com/yigit/collegeerp/internal/middleware"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/auth"
)

const oauthStateKey = "oauth_state"

// AuthController handles sign-in, token refresh and sign-out.
type AuthController struct {
	authService *services.AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Login handles user login
// @Summary User login
// @Description Authenticates with email and password, resolves the role and returns tokens plus the navigation outcome
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid request format or validation error"
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid credentials"
// @Failure 500 {object} dto.APIResponse{error=dto.ErrorDetail} "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		middleware.RespondValidationError(ctx, err)
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Rotates the refresh token and issues a new access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.TokenResponse} "Token refreshed"
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid request format"
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid, expired or revoked refresh token"
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid refresh token request payload")
		middleware.RespondValidationError(ctx, err)
		return
	}

	resp, err := c.authService.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// Logout handles user logout
// @Summary Sign out
// @Description Revokes the current access token and, when given, the refresh token. Navigation returns to the landing view.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.LogoutRequest false "Refresh token to revoke"
// @Success 200 {object} dto.APIResponse{data=dto.SignOutResponse} "Signed out"
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail} "Not signed in"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	var req dto.LogoutRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			middleware.RespondValidationError(ctx, err)
			return
		}
	}

	jti, expiry := middleware.GetTokenInfo(ctx)
	resp, err := c.authService.Logout(ctx.Request.Context(), jti, expiry, req.RefreshToken)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// GoogleLogin starts the Google sign-in flow
// @Summary Sign in with Google
// @Description Redirects the browser to Google. The anti-forgery state is kept in a session cookie.
// @Tags auth
// @Success 302 "Redirect to the identity provider"
// @Failure 503 {object} dto.APIResponse{error=dto.ErrorDetail} "Google sign-in is not configured"
// @Router /auth/google/login [get]
func (c *AuthController) GoogleLogin(ctx *gin.Context) {
	if !c.authService.GoogleEnabled() {
		middleware.HandleAPIError(ctx, apperrors.NewCustomError(apperrors.ErrUnavailable, "Google sign-in is not configured"))
		return
	}

	state, err := auth.GenerateState()
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	sess := sessions.Default(ctx)
	sess.Set(oauthStateKey, state)
	if err := sess.Save(); err != nil {
		c.logger.Error().Err(err).Msg("Failed to save OAuth state")
		middleware.HandleAPIError(ctx, err)
		return
	}

	url, err := c.authService.GoogleAuthURL(state)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, url)
}

// GoogleCallback completes the Google sign-in flow
// @Summary Google sign-in callback
// @Description Exchanges the authorization code, creates a student profile for unknown emails and signs in
// @Tags auth
// @Produce json
// @Param state query string true "Anti-forgery state"
// @Param code query string true "Authorization code"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "State mismatch or missing code"
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail} "Identity provider rejected the sign-in"
// @Router /auth/google/callback [get]
func (c *AuthController) GoogleCallback(ctx *gin.Context) {
	sess := sessions.Default(ctx)
	expected, _ := sess.Get(oauthStateKey).(string)
	sess.Delete(oauthStateKey)
	if err := sess.Save(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to clear OAuth state")
	}

	if expected == "" || ctx.Query("state") != expected {
		c.logger.Warn().Msg("OAuth state mismatch")
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("invalid OAuth state"))
		return
	}
	code := ctx.Query("code")
	if code == "" {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("missing authorization code"))
		return
	}

	resp, err := c.authService.GoogleCallback(ctx.Request.Context(), code)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// Session reports the current request's resolution
// @Summary Current session
// @Description Returns the resolved session state, the resolution result and any notices. Anonymous requests are allowed.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SessionResponse}
// @Router /session [get]
func (c *AuthController) Session(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SessionResponse{
		State:   middleware.GetSessionState(ctx),
		Result:  middleware.GetSessionResult(ctx),
		Notices: middleware.GetSessionNotices(ctx),
	}))
}
