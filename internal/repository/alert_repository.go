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

// AlertRepository manages persistence for behavioural alerts.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository constructs a new repository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = "id, student_id, teacher_id, comment, priority, status, resolved_at, resolved_by, created_at, updated_at"

// List returns alerts matching the filter with a total count.
func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.TeacherID != "" {
		where = append(where, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Priority != nil {
		where = append(where, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, string(*filter.Priority))
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
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

	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE %s
ORDER BY CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, created_at DESC
LIMIT %d OFFSET %d`, alertColumns, whereClause, size, offset)
	var alerts []models.Alert
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list alerts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM alerts WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count alerts: %w", err)
	}
	return alerts, total, nil
}

// FindByID returns a single alert.
func (r *AlertRepository) FindByID(ctx context.Context, id string) (*models.Alert, error) {
	var alert models.Alert
	query := fmt.Sprintf("SELECT %s FROM alerts WHERE id = $1 LIMIT 1", alertColumns)
	if err := r.db.GetContext(ctx, &alert, query, id); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Create inserts a new alert. New alerts always start open.
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.Status == "" {
		alert.Status = models.AlertStatusOpen
	}
	now := time.Now().UTC()
	alert.CreatedAt = now
	alert.UpdatedAt = now
	query := `INSERT INTO alerts (id, student_id, teacher_id, comment, priority, status, created_at, updated_at)
VALUES (:id, :student_id, :teacher_id, :comment, :priority, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// Update persists comment and priority changes.
func (r *AlertRepository) Update(ctx context.Context, alert *models.Alert) error {
	alert.UpdatedAt = time.Now().UTC()
	query := `UPDATE alerts SET comment = :comment, priority = :priority, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, alert); err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	return nil
}

// UpdateStatus persists a validated status transition. The row is only
// touched while it still holds the status the transition was computed
// from; sql.ErrNoRows signals that a concurrent writer got there first.
func (r *AlertRepository) UpdateStatus(ctx context.Context, id string, from models.AlertStatus, transition models.AlertTransition) error {
	query := `UPDATE alerts SET status = $1, resolved_at = $2, resolved_by = $3, updated_at = $4 WHERE id = $5 AND status = $6`
	res, err := r.db.ExecContext(ctx, query,
		string(transition.Status), transition.ResolvedAt, transition.ResolvedBy, time.Now().UTC(), id, string(from))
	if err != nil {
		return fmt.Errorf("update alert status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update alert status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an alert.
func (r *AlertRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM alerts WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	return nil
}

// CountByStatus tallies alerts per status for the dashboard.
func (r *AlertRepository) CountByStatus(ctx context.Context) (map[models.AlertStatus]int, error) {
	rows, err := r.db.QueryxContext(ctx, "SELECT status, COUNT(*) FROM alerts GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count alerts by status: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[models.AlertStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan alert counts: %w", err)
		}
		counts[models.AlertStatus(status)] = count
	}
	return counts, rows.Err()
}
