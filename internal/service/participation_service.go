package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/markaz-annoor/annoor-api/internal/dto"
	"github.com/markaz-annoor/annoor-api/internal/grading"
	"github.com/markaz-annoor/annoor-api/internal/models"
	appErrors "github.com/markaz-annoor/annoor-api/pkg/errors"
)

type participationRepository interface {
	List(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationDetail, int, error)
	Snapshot(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationRecord, error)
	FindByID(ctx context.Context, id string) (*models.ParticipationRecord, error)
	Create(ctx context.Context, record *models.ParticipationRecord) error
	Update(ctx context.Context, record *models.ParticipationRecord) error
	Delete(ctx context.Context, id string) error
}

// CreateParticipationRequest is the payload for grading a student on an activity.
type CreateParticipationRequest struct {
	StudentID  string       `json:"student_id" validate:"required,uuid4"`
	TeacherID  string       `json:"teacher_id" validate:"required,uuid4"`
	ActivityID string       `json:"activity_id" validate:"required,uuid4"`
	Date       time.Time    `json:"date" validate:"required"`
	Grade      models.Grade `json:"grade" validate:"required,oneof=A B C D"`
	Remark     *string      `json:"remark"`
}

// UpdateParticipationRequest re-grades an existing record.
type UpdateParticipationRequest struct {
	Grade  models.Grade `json:"grade" validate:"required,oneof=A B C D"`
	Remark *string      `json:"remark"`
}

// ParticipationService handles daily grading workflows and aggregate statistics.
type ParticipationService struct {
	repo      participationRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	weights   grading.Weights
}

// NewParticipationService creates an instance of ParticipationService.
func NewParticipationService(repo participationRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ParticipationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ParticipationService{repo: repo, cache: cache, validator: validate, logger: logger, weights: grading.DefaultWeights}
}

// List returns paginated participation records with display metadata.
func (s *ParticipationService) List(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationDetail, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participations")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return records, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a participation record by ID.
func (s *ParticipationService) Get(ctx context.Context, id string) (*models.ParticipationRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participation record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation record")
	}
	return record, nil
}

// Create grades a student for an activity on a calendar day.
func (s *ParticipationService) Create(ctx context.Context, req CreateParticipationRequest) (*models.ParticipationRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create participation payload")
	}

	record := &models.ParticipationRecord{
		ID:         uuid.NewString(),
		StudentID:  req.StudentID,
		TeacherID:  req.TeacherID,
		ActivityID: req.ActivityID,
		Date:       grading.Day(req.Date),
		Grade:      req.Grade,
		Remark:     req.Remark,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "participation already recorded for this student, activity and date")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create participation record")
	}

	s.invalidateDashboards(ctx)
	return record, nil
}

// isUniqueViolation reports whether err is the Postgres unique_violation
// raised by the one-record-per-student-activity-day constraint.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Update re-grades an existing record.
func (s *ParticipationService) Update(ctx context.Context, id string, req UpdateParticipationRequest) (*models.ParticipationRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update participation payload")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participation record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation record")
	}

	record.Grade = req.Grade
	record.Remark = req.Remark

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update participation record")
	}

	s.invalidateDashboards(ctx)
	return record, nil
}

// Delete removes a participation record.
func (s *ParticipationService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "participation record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation record")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete participation record")
	}

	s.invalidateDashboards(ctx)
	return nil
}

// Stats aggregates the records matching the filter into one summary block.
func (s *ParticipationService) Stats(ctx context.Context, filter models.ParticipationFilter) (*dto.ParticipationSummary, error) {
	records, err := s.repo.Snapshot(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation snapshot")
	}

	summary := summarize(records, s.weights)
	return &summary, nil
}

func (s *ParticipationService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

// summarize renders one aggregate block from raw records.
func summarize(records []models.ParticipationRecord, weights grading.Weights) dto.ParticipationSummary {
	dist := grading.NewDistribution(records)
	avg := grading.WeightedAverage(dist, weights)

	summary := dto.ParticipationSummary{
		TotalRecords: dist.Total(),
		Distribution: dto.GradeDistribution{
			A: dist.A,
			B: dist.B,
			C: dist.C,
			D: dist.D,
		},
		WeightedAverage: avg,
		AttendanceRate:  grading.AttendanceRate(records),
	}
	if avg != nil {
		letter := grading.LetterFromAverage(*avg)
		summary.AverageLetter = &letter
	}
	return summary
}
