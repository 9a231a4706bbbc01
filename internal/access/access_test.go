package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaz-annoor/annoor-api/internal/models"
)

var allRoles = []models.Role{models.RoleAdmin, models.RoleStaff, models.RoleStudent}

func TestDefaultRouteIsSelfConsistent(t *testing.T) {
	table := DefaultTable()
	for _, role := range allRoles {
		home, ok := table.DefaultRouteFor(role)
		require.True(t, ok, "role %s has no default route", role)
		assert.True(t, table.IsRouteAllowed(home, role),
			"default route %s must be allowed for %s", home, role)
	}
}

func TestIsRouteAllowed(t *testing.T) {
	table := DefaultTable()

	assert.True(t, table.IsRouteAllowed(RouteUsers, models.RoleAdmin))
	assert.False(t, table.IsRouteAllowed(RouteUsers, models.RoleStaff))
	assert.False(t, table.IsRouteAllowed(RouteUsers, models.RoleStudent))
	assert.True(t, table.IsRouteAllowed(RouteStudents, models.RoleStaff))
	assert.True(t, table.IsRouteAllowed(RouteMyProgress, models.RoleStudent))
}

func TestIsRouteAllowedFailsClosed(t *testing.T) {
	table := DefaultTable()

	// Unregistered route is inaccessible for everyone.
	for _, role := range allRoles {
		assert.False(t, table.IsRouteAllowed("/definitely/not/registered", role))
	}
	// Unknown role never passes.
	assert.False(t, table.IsRouteAllowed(RouteStudents, models.Role("JANITOR")))
	// Anonymous principals never pass, even on registered routes.
	for _, route := range table.Routes() {
		assert.False(t, table.IsRouteAllowed(route, models.RoleNone))
	}
}

func TestResolveNavigationUnauthenticated(t *testing.T) {
	table := DefaultTable()
	routes := append(table.Routes(), Root, "/unknown")
	for _, route := range routes {
		decision := table.ResolveNavigation(route, models.RoleNone)
		assert.Equal(t, DecisionUnauthenticated, decision.Kind, "route %s", route)
		assert.Empty(t, decision.Target)
	}
}

func TestResolveNavigationRedirectsFromRoot(t *testing.T) {
	table := DefaultTable()
	for _, role := range allRoles {
		decision := table.ResolveNavigation(Root, role)
		require.Equal(t, DecisionRedirect, decision.Kind)
		home, _ := table.DefaultRouteFor(role)
		assert.Equal(t, home, decision.Target)
	}
}

func TestResolveNavigationRedirectsDisallowed(t *testing.T) {
	table := DefaultTable()

	decision := table.ResolveNavigation(RouteUsers, models.RoleStudent)
	require.Equal(t, DecisionRedirect, decision.Kind)
	assert.Equal(t, RouteStudentHome, decision.Target)

	decision = table.ResolveNavigation("/unknown", models.RoleStaff)
	require.Equal(t, DecisionRedirect, decision.Kind)
	assert.Equal(t, RouteStaffHome, decision.Target)
}

func TestResolveNavigationAllowsPermittedRoutes(t *testing.T) {
	table := DefaultTable()
	decision := table.ResolveNavigation(RouteAlerts, models.RoleStaff)
	assert.Equal(t, DecisionAllow, decision.Kind)
}

// Every redirect target must itself be allowed for the role, for every
// registered route and every role, so navigation can never loop.
func TestResolveNavigationNeverLoops(t *testing.T) {
	table := DefaultTable()
	routes := append(table.Routes(), Root, "/unknown", "/another/unknown")
	for _, role := range allRoles {
		for _, route := range routes {
			decision := table.ResolveNavigation(route, role)
			if decision.Kind != DecisionRedirect {
				continue
			}
			require.True(t, table.IsRouteAllowed(decision.Target, role),
				"redirect target %s not allowed for %s", decision.Target, role)
			next := table.ResolveNavigation(decision.Target, role)
			assert.Equal(t, DecisionAllow, next.Kind,
				"redirect from %s for %s did not settle", route, role)
		}
	}
}

func TestUnknownRoleGetsLoginSurface(t *testing.T) {
	table := DefaultTable()
	decision := table.ResolveNavigation(RouteStudents, models.Role("JANITOR"))
	assert.Equal(t, DecisionUnauthenticated, decision.Kind)
}
