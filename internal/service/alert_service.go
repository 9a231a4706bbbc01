package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markaz-annoor/annoor-api/internal/models"
	appErrors "github.com/markaz-annoor/annoor-api/pkg/errors"
)

type alertRepository interface {
	List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error)
	FindByID(ctx context.Context, id string) (*models.Alert, error)
	Create(ctx context.Context, alert *models.Alert) error
	Update(ctx context.Context, alert *models.Alert) error
	UpdateStatus(ctx context.Context, id string, from models.AlertStatus, transition models.AlertTransition) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[models.AlertStatus]int, error)
}

// CreateAlertRequest raises a behavioural alert for a student.
type CreateAlertRequest struct {
	StudentID string               `json:"student_id" validate:"required,uuid4"`
	TeacherID string               `json:"teacher_id" validate:"required,uuid4"`
	Comment   string               `json:"comment" validate:"required"`
	Priority  models.AlertPriority `json:"priority" validate:"required,oneof=low medium high urgent"`
}

// UpdateAlertRequest edits the comment or priority of an open alert.
type UpdateAlertRequest struct {
	Comment  string               `json:"comment" validate:"required"`
	Priority models.AlertPriority `json:"priority" validate:"required,oneof=low medium high urgent"`
}

// TransitionAlertRequest applies a lifecycle action to an alert.
type TransitionAlertRequest struct {
	Action models.AlertAction `json:"action" validate:"required,oneof=review resolve reopen"`
}

// AlertService handles behavioural alert workflows.
type AlertService struct {
	repo      alertRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAlertService creates an instance of AlertService.
func NewAlertService(repo alertRepository, validate *validator.Validate, logger *zap.Logger) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AlertService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// List returns paginated alerts and pagination metadata.
func (s *AlertService) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, *models.Pagination, error) {
	alerts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return alerts, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns an alert by ID.
func (s *AlertService) Get(ctx context.Context, id string) (*models.Alert, error) {
	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alert")
	}
	return alert, nil
}

// Create raises a new alert in the open status.
func (s *AlertService) Create(ctx context.Context, req CreateAlertRequest) (*models.Alert, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create alert payload")
	}

	alert := &models.Alert{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		TeacherID: req.TeacherID,
		Comment:   req.Comment,
		Priority:  req.Priority,
		Status:    models.AlertStatusOpen,
	}

	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create alert")
	}
	return alert, nil
}

// Update edits comment and priority without touching the lifecycle.
func (s *AlertService) Update(ctx context.Context, id string, req UpdateAlertRequest) (*models.Alert, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update alert payload")
	}

	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alert")
	}

	alert.Comment = req.Comment
	alert.Priority = req.Priority

	if err := s.repo.Update(ctx, alert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update alert")
	}
	return alert, nil
}

// Transition applies a lifecycle action on behalf of the acting user.
// Invalid action/status pairs are rejected without touching the row.
func (s *AlertService) Transition(ctx context.Context, id string, req TransitionAlertRequest, actorID string) (*models.Alert, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}

	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alert")
	}

	transition, err := models.TransitionAlert(alert.Status, req.Action, actorID, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, alert.Status, transition); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "alert status changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist alert transition")
	}

	alert.Status = transition.Status
	alert.ResolvedAt = transition.ResolvedAt
	alert.ResolvedBy = transition.ResolvedBy
	return alert, nil
}

// Delete removes an alert.
func (s *AlertService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alert")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete alert")
	}
	return nil
}

// CountByStatus reports the number of alerts per lifecycle status.
func (s *AlertService) CountByStatus(ctx context.Context) (map[models.AlertStatus]int, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count alerts")
	}
	return counts, nil
}
