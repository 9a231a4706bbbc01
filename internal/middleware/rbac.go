package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/markaz-annoor/annoor-api/internal/access"
	"github.com/markaz-annoor/annoor-api/internal/models"
	appErrors "github.com/markaz-annoor/annoor-api/pkg/errors"
	"github.com/markaz-annoor/annoor-api/pkg/response"
)

// RoleSelf lets a route owner through regardless of role, matched against
// the :id path parameter.
const RoleSelf = "SELF"

// RequireRoles blocks requests whose authenticated role is not in the
// allowed set. Must run after JWT.
func RequireRoles(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := currentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		for _, role := range allowed {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRolesOrSelf behaves like RequireRoles but additionally admits the
// request when the :id path parameter equals the caller's user id.
func RequireRolesOrSelf(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := currentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if id := c.Param("id"); id != "" && id == claims.UserID {
			c.Next()
			return
		}

		for _, role := range allowed {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RouteAccess gates an API group with the same permission table the SPA
// navigation resolver uses, so screen access and data access cannot drift.
func RouteAccess(table *access.Table, route access.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := currentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !table.IsRouteAllowed(route, claims.Role) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}

func currentClaims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
