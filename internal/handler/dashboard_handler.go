package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markaz-annoor/annoor-api/internal/models"
	"github.com/markaz-annoor/annoor-api/internal/service"
	appErrors "github.com/markaz-annoor/annoor-api/pkg/errors"
	"github.com/markaz-annoor/annoor-api/pkg/response"
)

// DashboardHandler exposes the aggregated role dashboards.
type DashboardHandler struct {
	dashboards *service.DashboardService
	students   *service.StudentService
	metrics    *service.MetricsService
}

func NewDashboardHandler(dashboards *service.DashboardService, students *service.StudentService, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, students: students, metrics: metrics}
}

// Admin godoc
// @Summary School-wide dashboard for administrators
// @Tags dashboard
// @Produce json
// @Success 200 {object} response.Envelope{data=dto.AdminDashboardResponse}
// @Security BearerAuth
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	result, err := h.dashboards.AdminDashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Staff godoc
// @Summary Recent activity dashboard for staff
// @Tags dashboard
// @Produce json
// @Param teacher_id query string false "Teacher to inspect (admin only, defaults to caller)"
// @Success 200 {object} response.Envelope{data=dto.StaffDashboardResponse}
// @Security BearerAuth
// @Router /dashboard/staff [get]
func (h *DashboardHandler) Staff(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	teacherID := claims.UserID
	if override := c.Query("teacher_id"); override != "" {
		if claims.Role != models.RoleAdmin {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		teacherID = override
	}

	result, err := h.dashboards.StaffDashboard(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// StudentProgress godoc
// @Summary Progress view for a single student
// @Tags dashboard
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope{data=dto.StudentProgressResponse}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/progress [get]
func (h *DashboardHandler) StudentProgress(c *gin.Context) {
	result, err := h.dashboards.StudentProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// MyProgress godoc
// @Summary Progress view for the authenticated student
// @Tags dashboard
// @Produce json
// @Success 200 {object} response.Envelope{data=dto.StudentProgressResponse}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /me/progress [get]
func (h *DashboardHandler) MyProgress(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	student, err := h.students.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.dashboards.StudentProgress(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SystemMetrics godoc
// @Summary Runtime metrics snapshot
// @Tags dashboard
// @Produce json
// @Success 200 {object} response.Envelope{data=models.SystemMetrics}
// @Security BearerAuth
// @Router /dashboard/system [get]
func (h *DashboardHandler) SystemMetrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
