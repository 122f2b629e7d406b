package dto

import "github.com/yigit/collegeerp/internal/app/session"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"student1@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LogoutRequest optionally carries the refresh token to revoke.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int    `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int    `json:"refreshTokenExpiresIn,omitempty"`
}

// AuthResponse is returned by sign-in: the tokens plus the session outcome
// (resolved state, navigation target, notices).
type AuthResponse struct {
	Token   TokenResponse   `json:"token"`
	Outcome session.Outcome `json:"outcome"`
}

// SignOutResponse carries the outcome of a sign-out.
type SignOutResponse struct {
	Outcome session.Outcome `json:"outcome"`
}

// SessionResponse describes the current request's resolved session.
type SessionResponse struct {
	State   session.State    `json:"state"`
	Result  session.Result   `json:"result"`
	Notices []session.Notice `json:"notices,omitempty"`
}
