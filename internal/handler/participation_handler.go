package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markaz-annoor/annoor-api/internal/models"
	"github.com/markaz-annoor/annoor-api/internal/service"
	appErrors "github.com/markaz-annoor/annoor-api/pkg/errors"
	"github.com/markaz-annoor/annoor-api/pkg/response"
)

// ParticipationHandler exposes daily participation record endpoints.
type ParticipationHandler struct {
	service *service.ParticipationService
}

func NewParticipationHandler(service *service.ParticipationService) *ParticipationHandler {
	return &ParticipationHandler{service: service}
}

func participationFilterFromQuery(c *gin.Context) models.ParticipationFilter {
	filter := models.ParticipationFilter{
		StudentID:  c.Query("student_id"),
		TeacherID:  c.Query("teacher_id"),
		ActivityID: c.Query("activity_id"),
		ClassName:  c.Query("class_name"),
		DateFrom:   queryDate(c, "date_from"),
		DateTo:     queryDate(c, "date_to"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	if raw := c.Query("grade"); raw != "" {
		grade := models.Grade(raw)
		filter.Grade = &grade
	}
	return filter
}

// List godoc
// @Summary List participation records
// @Tags participations
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param teacher_id query string false "Filter by teacher"
// @Param activity_id query string false "Filter by activity"
// @Param class_name query string false "Filter by class"
// @Param grade query string false "Filter by grade letter"
// @Param date_from query string false "Inclusive start date (YYYY-MM-DD)"
// @Param date_to query string false "Inclusive end date (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope{data=[]models.ParticipationDetail}
// @Security BearerAuth
// @Router /participations [get]
func (h *ParticipationHandler) List(c *gin.Context) {
	records, pagination, err := h.service.List(c.Request.Context(), participationFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Stats godoc
// @Summary Aggregate participation statistics
// @Tags participations
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param class_name query string false "Filter by class"
// @Param date_from query string false "Inclusive start date (YYYY-MM-DD)"
// @Param date_to query string false "Inclusive end date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope{data=dto.ParticipationSummary}
// @Security BearerAuth
// @Router /participations/stats [get]
func (h *ParticipationHandler) Stats(c *gin.Context) {
	summary, err := h.service.Stats(c.Request.Context(), participationFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Get godoc
// @Summary Fetch a single participation record
// @Tags participations
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope{data=models.ParticipationRecord}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /participations/{id} [get]
func (h *ParticipationHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Create godoc
// @Summary Record a participation entry
// @Tags participations
// @Accept json
// @Produce json
// @Param request body service.CreateParticipationRequest true "New record"
// @Success 201 {object} response.Envelope{data=models.ParticipationRecord}
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /participations [post]
func (h *ParticipationHandler) Create(c *gin.Context) {
	var req service.CreateParticipationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	record, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Update a participation record
// @Tags participations
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param request body service.UpdateParticipationRequest true "Fields to change"
// @Success 200 {object} response.Envelope{data=models.ParticipationRecord}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /participations/{id} [put]
func (h *ParticipationHandler) Update(c *gin.Context) {
	var req service.UpdateParticipationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	record, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Remove a participation record
// @Tags participations
// @Produce json
// @Param id path string true "Record ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /participations/{id} [delete]
func (h *ParticipationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
