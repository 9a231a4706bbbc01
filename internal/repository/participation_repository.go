package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/markaz-annoor/annoor-api/internal/models"
)

// ParticipationRepository manages persistence for graded participation
// records.
type ParticipationRepository struct {
	db *sqlx.DB
}

// NewParticipationRepository constructs a new repository.
func NewParticipationRepository(db *sqlx.DB) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

func participationWhere(filter models.ParticipationFilter) (string, []interface{}) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("p.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.TeacherID != "" {
		where = append(where, fmt.Sprintf("p.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.ActivityID != "" {
		where = append(where, fmt.Sprintf("p.activity_id = $%d", len(args)+1))
		args = append(args, filter.ActivityID)
	}
	if filter.ClassName != "" {
		where = append(where, fmt.Sprintf("s.class_name = $%d", len(args)+1))
		args = append(args, filter.ClassName)
	}
	if filter.Grade != nil {
		where = append(where, fmt.Sprintf("p.grade = $%d", len(args)+1))
		args = append(args, string(*filter.Grade))
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("p.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("p.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	return strings.Join(where, " AND "), args
}

// List returns participation rows with display metadata and a total count.
func (r *ParticipationRepository) List(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationDetail, int, error) {
	whereClause, args := participationWhere(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT p.id, p.student_id, p.teacher_id, p.activity_id, p.date, p.grade, p.remark,
p.created_at, p.updated_at, s.full_name AS student_name, s.class_name, t.full_name AS teacher_name, a.name AS activity_name
FROM participations p
JOIN students s ON s.id = p.student_id
JOIN teachers t ON t.id = p.teacher_id
JOIN activities a ON a.id = p.activity_id
WHERE %s ORDER BY p.date DESC, p.created_at DESC LIMIT %d OFFSET %d`, whereClause, size, offset)
	var rows []models.ParticipationDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list participations: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM participations p
JOIN students s ON s.id = p.student_id WHERE %s`, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count participations: %w", err)
	}
	return rows, total, nil
}

// Snapshot returns bare records matching the filter without pagination,
// for aggregation and export.
func (r *ParticipationRepository) Snapshot(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationRecord, error) {
	whereClause, args := participationWhere(filter)
	query := fmt.Sprintf(`SELECT p.id, p.student_id, p.teacher_id, p.activity_id, p.date, p.grade, p.remark, p.created_at, p.updated_at
FROM participations p
JOIN students s ON s.id = p.student_id
WHERE %s ORDER BY p.date ASC`, whereClause)
	var records []models.ParticipationRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("participation snapshot: %w", err)
	}
	return records, nil
}

// FindByID returns a single record.
func (r *ParticipationRepository) FindByID(ctx context.Context, id string) (*models.ParticipationRecord, error) {
	var record models.ParticipationRecord
	query := `SELECT id, student_id, teacher_id, activity_id, date, grade, remark, created_at, updated_at
FROM participations WHERE id = $1 LIMIT 1`
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new record.
func (r *ParticipationRepository) Create(ctx context.Context, record *models.ParticipationRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	query := `INSERT INTO participations (id, student_id, teacher_id, activity_id, date, grade, remark, created_at, updated_at)
VALUES (:id, :student_id, :teacher_id, :activity_id, :date, :grade, :remark, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create participation: %w", err)
	}
	return nil
}

// Update modifies an existing record (grade corrections, remarks).
func (r *ParticipationRepository) Update(ctx context.Context, record *models.ParticipationRecord) error {
	record.UpdatedAt = time.Now().UTC()
	query := `UPDATE participations SET student_id = :student_id, teacher_id = :teacher_id, activity_id = :activity_id,
date = :date, grade = :grade, remark = :remark, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update participation: %w", err)
	}
	return nil
}

// Delete removes a record.
func (r *ParticipationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM participations WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete participation: %w", err)
	}
	return nil
}
