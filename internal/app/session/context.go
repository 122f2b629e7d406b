package session

import (
	"context"
	"sync"
)

const (
	msgSignedIn       = "Logged in successfully!"
	msgSignedOut      = "Logged out successfully!"
	msgRoleLoadFailed = "Failed to load user role."
)

// Context owns the session state of one principal (one client connection or
// one request). It is constructed explicitly and handed to whatever needs it;
// consumers only read it through State.
type Context struct {
	mu       sync.Mutex
	resolver *Resolver
	state    State
}

// NewContext returns a Context in the initial loading state.
func NewContext(resolver *Resolver) *Context {
	return &Context{
		resolver: resolver,
		state:    State{Loading: true},
	}
}

// State returns a snapshot of the current state.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Bootstrap applies the provider's initial session. It resolves exactly like
// an event but never navigates.
func (c *Context) Bootstrap(ctx context.Context, current *Session) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := c.resolver.ResolveSession(ctx, current)
	out := Outcome{Result: result}
	c.apply(current, result)
	if result.Err != nil {
		out.Notices = append(out.Notices, Notice{Level: NoticeError, Message: msgRoleLoadFailed})
	}
	out.State = c.state
	return out
}

// Handle applies one auth state change. Events are serialized: a sign-in's
// navigation is computed only after its profile lookup has completed.
func (c *Context) Handle(ctx context.Context, ev Event) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := c.resolver.ResolveSession(ctx, ev.Session)
	out := Outcome{Result: result}
	c.apply(ev.Session, result)

	if result.Err != nil {
		out.Notices = append(out.Notices, Notice{Level: NoticeError, Message: msgRoleLoadFailed})
	}

	if c.state.Session != nil {
		if ev.Kind == EventSignedIn {
			out.Notices = append(out.Notices, Notice{Level: NoticeSuccess, Message: msgSignedIn})
			if result.Kind == KindAuthorized {
				out.Navigate = DashboardPath(result.Role)
			} else {
				out.Navigate = FallbackSignInPath
			}
		}
	} else if ev.Kind == EventSignedOut {
		out.Notices = append(out.Notices, Notice{Level: NoticeSuccess, Message: msgSignedOut})
		out.Navigate = LandingPath
	}

	out.State = c.state
	return out
}

func (c *Context) apply(s *Session, result Result) {
	c.state.Loading = false
	if result.Kind == KindAnonymous {
		c.state.Session = nil
		c.state.Role = RoleNone
		return
	}
	c.state.Session = s
	c.state.Role = result.Role
}
