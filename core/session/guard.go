package session

// Outcome is the guard's decision for a single navigation attempt.
type Outcome int

const (
	// Allow renders the requested view.
	Allow Outcome = iota
	// RedirectToLogin is the outcome for any unauthenticated attempt.
	RedirectToLogin
	// RedirectHome is the outcome for an authenticated attempt whose role
	// is not in the route's allowed set.
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectHome:
		return "redirect-home"
	}
	return "unknown"
}

// Decide evaluates a navigation attempt against the current session.
// It is a pure function of its inputs: no state, no IO, evaluated fresh
// and synchronously before the view renders.
//
// An empty allowed set means "any authenticated user". Roles outside the
// closed set never match: fail closed, not open.
func Decide(s *Session, allowed ...Role) Outcome {
	if !s.IsAuthenticated() {
		return RedirectToLogin
	}
	if len(allowed) == 0 {
		return Allow
	}
	role, ok := s.Role()
	if ok && role.Valid() && role.In(allowed) {
		return Allow
	}
	return RedirectHome
}

// Route declares a guarded path and the roles allowed through.
// Declarations are static; they are never mutated at runtime.
type Route struct {
	Path    string
	Allowed []Role
}

// Guard composes the route declaration with Decide: the returned function
// is the route-level decision point, evaluated once per attempt.
func (r Route) Guard() func(*Session) Outcome {
	return func(s *Session) Outcome {
		return Decide(s, r.Allowed...)
	}
}
