// Package access decides which screens a role may reach and where to send
// it otherwise. The resolver is a pure function of (table, role, route): it
// reads no session state and performs no I/O, so the surrounding handlers
// and middleware stay trivially testable.
package access

import (
	"github.com/markaz-annoor/annoor-api/internal/models"
)

// Route identifies a navigable screen by its path string.
type Route string

// Root is the neutral entry point. Authenticated principals landing here
// are redirected to their role's home route.
const Root Route = "/"

// Table holds the immutable route permissions loaded once at startup.
type Table struct {
	routes   map[Route]map[models.Role]struct{}
	defaults map[models.Role]Route
}

// NewTable builds a Table from literal route and default-route maps.
func NewTable(routes map[Route][]models.Role, defaults map[models.Role]Route) *Table {
	t := &Table{
		routes:   make(map[Route]map[models.Role]struct{}, len(routes)),
		defaults: make(map[models.Role]Route, len(defaults)),
	}
	for route, roles := range routes {
		set := make(map[models.Role]struct{}, len(roles))
		for _, role := range roles {
			set[role] = struct{}{}
		}
		t.routes[route] = set
	}
	for role, route := range defaults {
		t.defaults[role] = route
	}
	return t
}

// Routes returns every registered route. Order is unspecified.
func (t *Table) Routes() []Route {
	routes := make([]Route, 0, len(t.routes))
	for route := range t.routes {
		routes = append(routes, route)
	}
	return routes
}

// DefaultRouteFor returns the canonical landing route for a role. The
// second return is false for unknown roles and for RoleNone.
func (t *Table) DefaultRouteFor(role models.Role) (Route, bool) {
	route, ok := t.defaults[role]
	return route, ok
}

// IsRouteAllowed reports whether the role may render the route. Unknown
// routes and unknown roles are simply not allowed; an unregistered route
// is inaccessible rather than open, which is the safe failure direction.
func (t *Table) IsRouteAllowed(route Route, role models.Role) bool {
	if role == models.RoleNone {
		return false
	}
	allowed, ok := t.routes[route]
	if !ok {
		return false
	}
	_, ok = allowed[role]
	return ok
}

// DecisionKind enumerates navigation outcomes.
type DecisionKind string

const (
	// DecisionUnauthenticated means the login surface must be rendered.
	DecisionUnauthenticated DecisionKind = "unauthenticated"
	// DecisionRedirect means navigation must continue at Target.
	DecisionRedirect DecisionKind = "redirect"
	// DecisionAllow means the requested route may be rendered.
	DecisionAllow DecisionKind = "allow"
)

// Decision is the outcome of resolving a navigation attempt.
type Decision struct {
	Kind   DecisionKind `json:"kind"`
	Target Route        `json:"target,omitempty"`
}

// ResolveNavigation maps the requested route and authenticated role to a
// navigation decision. Anonymous principals always get the login surface,
// never a redirect, since no default route exists for them. A role landing
// on the root or on a route it may not see is sent to its own home route;
// the home route is itself always allowed for the role, so redirects never
// loop.
func (t *Table) ResolveNavigation(route Route, role models.Role) Decision {
	if role == models.RoleNone {
		return Decision{Kind: DecisionUnauthenticated}
	}
	if route != Root && t.IsRouteAllowed(route, role) {
		return Decision{Kind: DecisionAllow}
	}
	home, ok := t.DefaultRouteFor(role)
	if !ok {
		// Unknown role: nowhere safe to send it.
		return Decision{Kind: DecisionUnauthenticated}
	}
	return Decision{Kind: DecisionRedirect, Target: home}
}
