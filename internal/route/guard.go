package route

import (
	"sync"

	"github.com/neuropassword/npass/internal/constants"
	"github.com/neuropassword/npass/internal/logging"
)

// State is the outcome of one guard evaluation.
type State int

const (
	// Allowed means the requested content may render.
	Allowed State = iota
	// Redirecting means navigation elsewhere happened and nothing renders.
	Redirecting
)

func (s State) String() string {
	switch s {
	case Allowed:
		return "ALLOWED"
	case Redirecting:
		return "REDIRECTING"
	default:
		return "UNKNOWN"
	}
}

// Authenticator is the part of the session the guard reads and writes.
type Authenticator interface {
	IsAuthenticated() bool
	SetRedirectPath(path string) error
	ConsumeRedirectPath() string
}

// Guard gates protected and public routes on the session.
type Guard struct {
	mu      sync.Mutex
	session Authenticator
	nav     Navigator
	logger  *logging.Logger
	state   State
}

// NewGuard creates a guard.
func NewGuard(session Authenticator, nav Navigator, logger *logging.Logger) *Guard {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Guard{session: session, nav: nav, logger: logger}
}

// Evaluate checks a protected path. Without a session the path is recorded
// for after login and the user is sent to /login.
func (g *Guard) Evaluate(path string) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session.IsAuthenticated() {
		g.state = Allowed
		return g.state
	}

	if err := g.session.SetRedirectPath(path); err != nil {
		g.logger.Warn().Err(err).Str("path", path).Msg("failed to remember redirect path")
	}
	g.state = Redirecting
	g.nav.Navigate(constants.RouteLogin, true)
	return g.state
}

// EvaluatePublic checks /login or /register. With a session the user is
// sent to the remembered path instead of seeing the form.
func (g *Guard) EvaluatePublic(path string) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.session.IsAuthenticated() {
		g.state = Allowed
		return g.state
	}

	target := g.session.ConsumeRedirectPath()
	g.logger.Debug().Str("from", path).Str("to", target).Msg("already signed in")
	g.state = Redirecting
	g.nav.Navigate(target, true)
	return g.state
}

// State returns the result of the last evaluation.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
