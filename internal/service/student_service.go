package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markaz-annoor/annoor-api/internal/models"
	appErrors "github.com/markaz-annoor/annoor-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	ClassNames(ctx context.Context) ([]string, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateStudentRequest is the payload for registering a student.
type CreateStudentRequest struct {
	NIS           string `json:"nis" validate:"required"`
	FullName      string `json:"full_name" validate:"required"`
	Gender        string `json:"gender" validate:"required,oneof=male female"`
	ClassName     string `json:"class_name" validate:"required"`
	GuardianPhone string `json:"guardian_phone"`
	Address       string `json:"address"`
	UserID        string `json:"user_id" validate:"omitempty,uuid4"`
}

// UpdateStudentRequest is the payload for updating a student.
type UpdateStudentRequest struct {
	FullName      string `json:"full_name" validate:"required"`
	Gender        string `json:"gender" validate:"required,oneof=male female"`
	ClassName     string `json:"class_name" validate:"required"`
	GuardianPhone string `json:"guardian_phone"`
	Address       string `json:"address"`
	UserID        string `json:"user_id" validate:"omitempty,uuid4"`
	Active        *bool  `json:"active"`
}

// StudentService handles student roster workflows.
type StudentService struct {
	repo      studentRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService creates an instance of StudentService.
func NewStudentService(repo studentRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns paginated students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return students, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// GetByUserID returns the roster entry linked to a login account.
func (s *StudentService) GetByUserID(ctx context.Context, userID string) (*models.Student, error) {
	student, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student linked to this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// ClassNames returns the distinct class names on the roster.
func (s *StudentService) ClassNames(ctx context.Context) ([]string, error) {
	names, err := s.repo.ClassNames(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class names")
	}
	return names, nil
}

// Create registers a student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest, actorID string) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create student payload")
	}

	student := &models.Student{
		ID:            uuid.NewString(),
		NIS:           req.NIS,
		FullName:      req.FullName,
		Gender:        req.Gender,
		ClassName:     req.ClassName,
		GuardianPhone: req.GuardianPhone,
		Address:       req.Address,
		Active:        true,
	}
	if req.UserID != "" {
		student.UserID = &req.UserID
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.writeAudit(ctx, actorID, models.AuditActionCreate, student.ID, nil, map[string]interface{}{"nis": student.NIS, "class_name": student.ClassName})
	return student, nil
}

// Update modifies student attributes.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest, actorID string) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update student payload")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	old := map[string]interface{}{"class_name": student.ClassName, "active": student.Active}

	student.FullName = req.FullName
	student.Gender = req.Gender
	student.ClassName = req.ClassName
	student.GuardianPhone = req.GuardianPhone
	student.Address = req.Address
	if req.UserID != "" {
		student.UserID = &req.UserID
	}
	if req.Active != nil {
		student.Active = *req.Active
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	s.writeAudit(ctx, actorID, models.AuditActionUpdate, student.ID, old, map[string]interface{}{"class_name": student.ClassName, "active": student.Active})
	return student, nil
}

// Delete soft deletes a student.
func (s *StudentService) Delete(ctx context.Context, id string, actorID string) error {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}

	s.writeAudit(ctx, actorID, models.AuditActionDelete, student.ID, map[string]interface{}{"active": student.Active}, map[string]interface{}{"active": false})
	return nil
}

func (s *StudentService) writeAudit(ctx context.Context, actorID, action, resourceID string, old, new map[string]interface{}) {
	if s.audit == nil {
		return
	}
	var oldPayload, newPayload []byte
	if old != nil {
		oldPayload, _ = json.Marshal(old)
	}
	if new != nil {
		newPayload, _ = json.Marshal(new)
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "students",
		ResourceID: &resourceID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
	}); err != nil {
		s.logger.Warn("failed to record student audit log", zap.Error(err))
	}
}
