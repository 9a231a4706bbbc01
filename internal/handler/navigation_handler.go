package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markaz-annoor/annoor-api/internal/access"
	"github.com/markaz-annoor/annoor-api/internal/models"
	"github.com/markaz-annoor/annoor-api/pkg/response"
)

// NavigationHandler resolves SPA navigation attempts against the
// permission table. It runs behind OptionalJWT so anonymous calls
// resolve to the login surface instead of failing.
type NavigationHandler struct {
	table *access.Table
}

func NewNavigationHandler(table *access.Table) *NavigationHandler {
	return &NavigationHandler{table: table}
}

// Resolve godoc
// @Summary Resolve a navigation attempt
// @Tags navigation
// @Produce json
// @Param route query string false "Requested route, defaults to /"
// @Success 200 {object} response.Envelope{data=access.Decision}
// @Router /navigation/resolve [get]
func (h *NavigationHandler) Resolve(c *gin.Context) {
	route := access.Route(c.Query("route"))
	if route == "" {
		route = access.Root
	}

	role := models.RoleNone
	if claims, ok := claimsFromContext(c); ok {
		role = claims.Role
	}

	decision := h.table.ResolveNavigation(route, role)
	response.JSON(c, http.StatusOK, decision, nil)
}
