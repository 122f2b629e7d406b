package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is an authenticated principal as issued by the auth layer.
type Session struct {
	SubjectID uuid.UUID `json:"subjectId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the credential has expired at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// EventKind enumerates auth state change events.
type EventKind int

const (
	EventOther EventKind = iota
	EventSignedIn
	EventSignedOut
)

func (k EventKind) String() string {
	switch k {
	case EventSignedIn:
		return "signed_in"
	case EventSignedOut:
		return "signed_out"
	default:
		return "other"
	}
}

// Event is one auth state change delivered to a session Context.
type Event struct {
	Kind    EventKind
	Session *Session
}

// State is the resolver-owned view of who is logged in and with what role.
type State struct {
	Loading bool     `json:"loading"`
	Session *Session `json:"session,omitempty"`
	Role    Role     `json:"role"`
}

// NoticeLevel is the severity of a user-visible notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient, user-visible message produced by a transition.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Outcome is what a transition produced: the new state, the resolution it was
// derived from, an optional navigation target and notices.
type Outcome struct {
	State    State    `json:"state"`
	Result   Result   `json:"result"`
	Navigate string   `json:"navigate,omitempty"`
	Notices  []Notice `json:"notices,omitempty"`
}
