package session

// Decision is the guard's verdict kind.
type Decision int

const (
	// DecisionWait defers the decision while the session is still loading.
	DecisionWait Decision = iota
	DecisionRedirect
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionRedirect:
		return "redirect"
	case DecisionAllow:
		return "allow"
	default:
		return "wait"
	}
}

// MarshalText encodes the decision by name.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Verdict is what the guard decided. Location is set only for redirects.
type Verdict struct {
	Decision Decision `json:"decision"`
	Location string   `json:"location,omitempty"`
}

// Decide gates access to content permitted for the given roles.
// An empty permitted set admits any known role; role none never passes.
func Decide(state State, permitted []Role) Verdict {
	if state.Loading {
		return Verdict{Decision: DecisionWait}
	}
	if state.Session == nil {
		return Verdict{Decision: DecisionRedirect, Location: LandingPath}
	}
	if !state.Role.Valid() {
		return Verdict{Decision: DecisionRedirect, Location: LandingPath}
	}
	if len(permitted) > 0 && !state.Role.In(permitted) {
		return Verdict{Decision: DecisionRedirect, Location: DashboardPath(state.Role)}
	}
	return Verdict{Decision: DecisionAllow}
}
