package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/markaz-annoor/annoor-api/internal/access"
	"github.com/markaz-annoor/annoor-api/internal/models"
)

func setClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}

func performGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func okHandler(c *gin.Context) {
	c.Status(http.StatusOK)
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		claims *models.JWTClaims
		want   int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"allowed role", &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}, http.StatusOK},
		{"denied role", &models.JWTClaims{UserID: "u2", Role: models.RoleStudent}, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/users", setClaims(tc.claims), RequireRoles(models.RoleAdmin, models.RoleStaff), okHandler)

			rec := performGet(r, "/users")
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequireRolesOrSelfAdmitsOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)

	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}

	r := gin.New()
	r.GET("/users/:id", setClaims(claims), RequireRolesOrSelf(models.RoleAdmin), okHandler)

	assert.Equal(t, http.StatusOK, performGet(r, "/users/u1").Code)
	assert.Equal(t, http.StatusForbidden, performGet(r, "/users/u9").Code)
}

func TestRouteAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	table := access.DefaultTable()

	cases := []struct {
		name   string
		route  access.Route
		claims *models.JWTClaims
		want   int
	}{
		{"no claims", access.RouteStudents, nil, http.StatusUnauthorized},
		{"staff reads students", access.RouteStudents, &models.JWTClaims{UserID: "u1", Role: models.RoleStaff}, http.StatusOK},
		{"staff blocked from users", access.RouteUsers, &models.JWTClaims{UserID: "u1", Role: models.RoleStaff}, http.StatusForbidden},
		{"student blocked from students", access.RouteStudents, &models.JWTClaims{UserID: "u2", Role: models.RoleStudent}, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/page", setClaims(tc.claims), RouteAccess(table, tc.route), okHandler)

			rec := performGet(r, "/page")
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
