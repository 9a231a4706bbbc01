package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/markaz-annoor/annoor-api/internal/models"
)

// LeaveRepository manages persistence for leave records.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs a new repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveColumns = "id, student_id, start_date, end_date, reason, status, approved_by, created_at, updated_at"

// List returns leave records matching the filter with a total count.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRecord, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("end_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("start_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM leaves WHERE %s ORDER BY start_date DESC LIMIT %d OFFSET %d",
		leaveColumns, whereClause, size, offset)
	var leaves []models.LeaveRecord
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leaves: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leaves WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leaves: %w", err)
	}
	return leaves, total, nil
}

// FindByID returns a single leave record.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.LeaveRecord, error) {
	var leave models.LeaveRecord
	query := fmt.Sprintf("SELECT %s FROM leaves WHERE id = $1 LIMIT 1", leaveColumns)
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// Create inserts a new leave request. New requests always start pending.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveRecord) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	if leave.Status == "" {
		leave.Status = models.LeaveStatusPending
	}
	now := time.Now().UTC()
	leave.CreatedAt = now
	leave.UpdatedAt = now
	query := `INSERT INTO leaves (id, student_id, start_date, end_date, reason, status, created_at, updated_at)
VALUES (:id, :student_id, :start_date, :end_date, :reason, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave: %w", err)
	}
	return nil
}

// SetStatus records an approval decision. Only pending rows are
// eligible; sql.ErrNoRows means the request was already decided by a
// concurrent writer.
func (r *LeaveRepository) SetStatus(ctx context.Context, id string, status models.LeaveStatus, approvedBy *string) error {
	query := `UPDATE leaves SET status = $1, approved_by = $2, updated_at = $3 WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, string(status), approvedBy, time.Now().UTC(), id, string(models.LeaveStatusPending))
	if err != nil {
		return fmt.Errorf("set leave status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set leave status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a leave record.
func (r *LeaveRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM leaves WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete leave: %w", err)
	}
	return nil
}
