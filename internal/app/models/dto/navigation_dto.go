package dto

import "github.com/yigit/collegeerp/internal/app/session"

// MenuResponse is the sidebar for the current session.
type MenuResponse struct {
	Role  string             `json:"role"`
	Items []session.MenuItem `json:"items"`
}

// GuardResponse is the guard's verdict for one view path.
type GuardResponse struct {
	Path    string          `json:"path"`
	Verdict session.Verdict `json:"verdict"`
}
