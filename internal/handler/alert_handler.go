package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markaz-annoor/annoor-api/internal/models"
	"github.com/markaz-annoor/annoor-api/internal/service"
	appErrors "github.com/markaz-annoor/annoor-api/pkg/errors"
	"github.com/markaz-annoor/annoor-api/pkg/response"
)

// AlertHandler exposes student alert endpoints.
type AlertHandler struct {
	service *service.AlertService
}

func NewAlertHandler(service *service.AlertService) *AlertHandler {
	return &AlertHandler{service: service}
}

// List godoc
// @Summary List alerts
// @Tags alerts
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param teacher_id query string false "Filter by reporting teacher"
// @Param priority query string false "Filter by priority"
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope{data=[]models.Alert}
// @Security BearerAuth
// @Router /alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	filter := models.AlertFilter{
		StudentID: c.Query("student_id"),
		TeacherID: c.Query("teacher_id"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
	}
	if raw := c.Query("priority"); raw != "" {
		priority := models.AlertPriority(raw)
		filter.Priority = &priority
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AlertStatus(raw)
		filter.Status = &status
	}

	alerts, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, pagination)
}

// Get godoc
// @Summary Fetch a single alert
// @Tags alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Envelope{data=models.Alert}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /alerts/{id} [get]
func (h *AlertHandler) Get(c *gin.Context) {
	alert, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}

// Create godoc
// @Summary Raise an alert for a student
// @Tags alerts
// @Accept json
// @Produce json
// @Param request body service.CreateAlertRequest true "New alert"
// @Success 201 {object} response.Envelope{data=models.Alert}
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /alerts [post]
func (h *AlertHandler) Create(c *gin.Context) {
	var req service.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	alert, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, alert)
}

// Update godoc
// @Summary Update an alert's comment or priority
// @Tags alerts
// @Accept json
// @Produce json
// @Param id path string true "Alert ID"
// @Param request body service.UpdateAlertRequest true "Fields to change"
// @Success 200 {object} response.Envelope{data=models.Alert}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /alerts/{id} [put]
func (h *AlertHandler) Update(c *gin.Context) {
	var req service.UpdateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	alert, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}

// Transition godoc
// @Summary Move an alert through its review lifecycle
// @Tags alerts
// @Accept json
// @Produce json
// @Param id path string true "Alert ID"
// @Param request body service.TransitionAlertRequest true "Lifecycle action: review, resolve or reopen"
// @Success 200 {object} response.Envelope{data=models.Alert}
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /alerts/{id}/transition [post]
func (h *AlertHandler) Transition(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.TransitionAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	alert, err := h.service.Transition(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}

// Delete godoc
// @Summary Remove an alert
// @Tags alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /alerts/{id} [delete]
func (h *AlertHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
