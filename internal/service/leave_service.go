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

type leaveRepository interface {
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.LeaveRecord, error)
	Create(ctx context.Context, leave *models.LeaveRecord) error
	SetStatus(ctx context.Context, id string, status models.LeaveStatus, approvedBy *string) error
	Delete(ctx context.Context, id string) error
}

// CreateLeaveRequest files an absence request for a student.
type CreateLeaveRequest struct {
	StudentID string    `json:"student_id" validate:"required,uuid4"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
}

// LeaveService handles absence request workflows.
type LeaveService struct {
	repo      leaveRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeaveService creates an instance of LeaveService.
func NewLeaveService(repo leaveRepository, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LeaveService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated leave records and pagination metadata.
func (s *LeaveService) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRecord, *models.Pagination, error) {
	leaves, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave records")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return leaves, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a leave record by ID.
func (s *LeaveService) Get(ctx context.Context, id string) (*models.LeaveRecord, error) {
	leave, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave record")
	}
	return leave, nil
}

// Create files a new leave request in the pending status.
func (s *LeaveService) Create(ctx context.Context, req CreateLeaveRequest) (*models.LeaveRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create leave payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}

	leave := &models.LeaveRecord{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
		Status:    models.LeaveStatusPending,
	}

	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave record")
	}
	return leave, nil
}

// Approve marks a pending leave request as approved by the acting user.
func (s *LeaveService) Approve(ctx context.Context, id string, actorID string) (*models.LeaveRecord, error) {
	return s.decide(ctx, id, models.LeaveStatusApproved, actorID)
}

// Reject marks a pending leave request as rejected by the acting user.
func (s *LeaveService) Reject(ctx context.Context, id string, actorID string) (*models.LeaveRecord, error) {
	return s.decide(ctx, id, models.LeaveStatusRejected, actorID)
}

func (s *LeaveService) decide(ctx context.Context, id string, status models.LeaveStatus, actorID string) (*models.LeaveRecord, error) {
	leave, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave record")
	}

	if leave.Status != models.LeaveStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "leave request has already been decided")
	}

	if err := s.repo.SetStatus(ctx, id, status, &actorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "leave request has already been decided")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update leave status")
	}

	leave.Status = status
	leave.ApprovedBy = &actorID
	return leave, nil
}

// Delete removes a leave record.
func (s *LeaveService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "leave record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave record")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete leave record")
	}
	return nil
}
