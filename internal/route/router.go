package route

import (
	"path"
	"strings"

	"github.com/neuropassword/npass/internal/constants"
)

// Kind classifies a client route.
type Kind int

const (
	KindNotFound Kind = iota
	KindLogin
	KindRegister
	KindDashboard
)

func (k Kind) String() string {
	switch k {
	case KindLogin:
		return "login"
	case KindRegister:
		return "register"
	case KindDashboard:
		return "dashboard"
	default:
		return "not-found"
	}
}

// Route is a resolved client path.
type Route struct {
	Path string
	Kind Kind
	// Redirected is set when the requested path was an alias (such as "/").
	Redirected bool
}

// Protected reports whether the route needs a session.
func (r Route) Protected() bool {
	return r.Kind == KindDashboard
}

// Public reports whether the route is a sign-in entry point.
func (r Route) Public() bool {
	return r.Kind == KindLogin || r.Kind == KindRegister
}

// Resolve maps a requested path onto a route. "/" resolves to /dashboard.
func Resolve(p string) Route {
	p = strings.TrimSpace(p)
	if p == "" {
		p = constants.RouteRoot
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = path.Clean(p)

	switch {
	case p == constants.RouteRoot:
		return Route{Path: constants.RouteDashboard, Kind: KindDashboard, Redirected: true}
	case p == constants.RouteLogin:
		return Route{Path: p, Kind: KindLogin}
	case p == constants.RouteRegister:
		return Route{Path: p, Kind: KindRegister}
	case p == constants.RouteDashboard || strings.HasPrefix(p, constants.RouteDashboard+"/"):
		return Route{Path: p, Kind: KindDashboard}
	default:
		return Route{Path: p, Kind: KindNotFound}
	}
}

// Router resolves paths and runs the guard for them.
type Router struct {
	guard *Guard
	nav   Navigator
}

// NewRouter creates a router.
func NewRouter(guard *Guard, nav Navigator) *Router {
	return &Router{guard: guard, nav: nav}
}

// Visit resolves p, navigates to it and evaluates the guard. The returned
// state is Allowed when the route's content should be shown.
func (r *Router) Visit(p string) (Route, State) {
	rt := Resolve(p)
	r.nav.Navigate(rt.Path, rt.Redirected)

	switch {
	case rt.Protected():
		return rt, r.guard.Evaluate(rt.Path)
	case rt.Public():
		return rt, r.guard.EvaluatePublic(rt.Path)
	default:
		return rt, Allowed
	}
}
