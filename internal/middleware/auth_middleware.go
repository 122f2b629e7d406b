package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/session"
	"github.com/yigit/collegeerp/internal/pkg/auth"
)

// Context keys set by Authenticate.
const (
	ContextKeyState       = "sessionState"
	ContextKeyResult      = "sessionResult"
	ContextKeyNotices     = "sessionNotices"
	ContextKeySubjectID   = "subjectID"
	ContextKeyEmail       = "email"
	ContextKeyTokenID     = "tokenID"
	ContextKeyTokenExpiry = "tokenExpiry"
)

// AccessTokenQueryParam carries the access token for websocket upgrades,
// which cannot set headers from a browser.
const AccessTokenQueryParam = "access_token"

// RevocationChecker reports whether an access token id was signed out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// GuardRecorder observes route guard verdicts.
type GuardRecorder interface {
	GuardDecision(view, decision string)
}

// AuthMiddleware resolves the request's session and gates views by role.
type AuthMiddleware struct {
	jwtService *auth.JWTService
	denyList   RevocationChecker
	resolver   *session.Resolver
	views      *session.Views
	recorder   GuardRecorder
	logger     zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. denyList and recorder may
// be nil.
func NewAuthMiddleware(jwtService *auth.JWTService, denyList RevocationChecker, resolver *session.Resolver, views *session.Views, recorder GuardRecorder, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		denyList:   denyList,
		resolver:   resolver,
		views:      views,
		recorder:   recorder,
		logger:     logger,
	}
}

// Authenticate resolves the bearer token, if any, into a session state. A
// request without a token continues as anonymous; a malformed, expired or
// revoked token is rejected.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFromRequest(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized,
				dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed").WithDetails("Invalid token format"))
			return
		}

		var current *session.Session
		if tokenString != "" {
			claims, err := m.jwtService.ValidateToken(tokenString)
			if err != nil {
				detail := dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed").WithDetails("Invalid token")
				if errors.Is(err, auth.ErrExpiredToken) {
					detail = dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Authentication failed").WithDetails("Token has expired")
				}
				abortWithError(c, http.StatusUnauthorized, detail)
				return
			}

			subjectID, err := claims.SubjectID()
			if err != nil {
				abortWithError(c, http.StatusUnauthorized,
					dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed").WithDetails("Invalid token subject"))
				return
			}

			if m.denyList != nil {
				revoked, err := m.denyList.IsRevoked(c.Request.Context(), claims.ID)
				if err != nil {
					m.logger.Warn().Err(err).Msg("Failed to check token deny list")
				} else if revoked {
					abortWithError(c, http.StatusUnauthorized,
						dto.NewErrorDetail(dto.ErrorCodeTokenRevoked, "Authentication failed").WithDetails("Token has been revoked"))
					return
				}
			}

			current = &session.Session{SubjectID: subjectID, ExpiresAt: claims.Expiry()}
			c.Set(ContextKeySubjectID, subjectID)
			c.Set(ContextKeyEmail, claims.Email)
			c.Set(ContextKeyTokenID, claims.ID)
			c.Set(ContextKeyTokenExpiry, claims.Expiry())
		}

		out := session.NewContext(m.resolver).Bootstrap(c.Request.Context(), current)
		c.Set(ContextKeyState, out.State)
		c.Set(ContextKeyResult, out.Result)
		if len(out.Notices) > 0 {
			c.Set(ContextKeyNotices, out.Notices)
		}

		c.Next()
	}
}

// RequireView gates a route with the roles permitted on the registered view
// pattern.
func (m *AuthMiddleware) RequireView(pattern string) gin.HandlerFunc {
	return m.gate(pattern, m.views.MustPermitted(pattern))
}

// RequireSession admits any session holding a known role.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return m.gate("any", nil)
}

// RequireAuthenticated admits any request carrying a valid session, whether
// or not a role was resolved for it. Signing out must stay possible for a
// principal without a profile.
func (m *AuthMiddleware) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetSessionState(c).Session == nil {
			if m.recorder != nil {
				m.recorder.GuardDecision("authenticated", session.DecisionRedirect.String())
			}
			abortWithError(c, http.StatusUnauthorized,
				dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
					WithDetails(gin.H{"redirectTo": session.LandingPath}))
			return
		}
		if m.recorder != nil {
			m.recorder.GuardDecision("authenticated", session.DecisionAllow.String())
		}
		c.Next()
	}
}

func (m *AuthMiddleware) gate(view string, permitted []session.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		verdict := session.Decide(GetSessionState(c), permitted)
		if m.recorder != nil {
			m.recorder.GuardDecision(view, verdict.Decision.String())
		}

		switch {
		case verdict.Decision == session.DecisionAllow:
			c.Next()
		case verdict.Decision == session.DecisionWait:
			abortWithError(c, http.StatusServiceUnavailable,
				dto.NewErrorDetail(dto.ErrorCodeServiceUnavailable, "Session is still loading"))
		case verdict.Location == session.LandingPath:
			abortWithError(c, http.StatusUnauthorized,
				dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
					WithDetails(gin.H{"redirectTo": verdict.Location}))
		default:
			abortWithError(c, http.StatusForbidden,
				dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
					WithDetails(gin.H{"redirectTo": verdict.Location}))
		}
	}
}

func tokenFromRequest(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		return auth.ExtractBearerToken(header)
	}
	return strings.TrimSpace(c.Query(AccessTokenQueryParam)), nil
}

func abortWithError(c *gin.Context, status int, detail *dto.ErrorDetail) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

// GetSessionState returns the state resolved by Authenticate. Without it the
// request is anonymous.
func GetSessionState(c *gin.Context) session.State {
	if v, ok := c.Get(ContextKeyState); ok {
		if state, ok := v.(session.State); ok {
			return state
		}
	}
	return session.State{}
}

// GetSessionResult returns the resolution computed by Authenticate.
func GetSessionResult(c *gin.Context) session.Result {
	if v, ok := c.Get(ContextKeyResult); ok {
		if result, ok := v.(session.Result); ok {
			return result
		}
	}
	return session.Anonymous()
}

// GetSessionNotices returns notices produced while resolving the session.
func GetSessionNotices(c *gin.Context) []session.Notice {
	if v, ok := c.Get(ContextKeyNotices); ok {
		if notices, ok := v.([]session.Notice); ok {
			return notices
		}
	}
	return nil
}

// GetSubjectID returns the authenticated user id.
func GetSubjectID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextKeySubjectID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetTokenInfo returns the access token id and expiry.
func GetTokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString(ContextKeyTokenID)
	var exp time.Time
	if v, ok := c.Get(ContextKeyTokenExpiry); ok {
		exp, _ = v.(time.Time)
	}
	return jti, exp
}
