package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaz-annoor/annoor-api/internal/models"
)

func TestAlertFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "teacher_id", "comment", "priority", "status", "resolved_at", "resolved_by", "created_at", "updated_at"}).
		AddRow("a1", "s1", "t1", "late repeatedly", "high", "open", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, teacher_id, comment, priority, status, resolved_at, resolved_by, created_at, updated_at FROM alerts WHERE id = $1 LIMIT 1")).
		WithArgs("a1").
		WillReturnRows(rows)

	alert, err := repo.FindByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusOpen, alert.Status)
	assert.Nil(t, alert.ResolvedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertCreateDefaultsToOpen(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	mock.ExpectExec("INSERT INTO alerts").WillReturnResult(sqlmock.NewResult(1, 1))

	alert := &models.Alert{StudentID: "s1", TeacherID: "t1", Comment: "noisy", Priority: models.AlertPriorityMedium}
	err := repo.Create(context.Background(), alert)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusOpen, alert.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	mock.ExpectExec("UPDATE alerts SET status").WillReturnResult(sqlmock.NewResult(1, 1))

	resolvedAt := time.Now().UTC()
	resolvedBy := "admin-1"
	err := repo.UpdateStatus(context.Background(), "a1", models.AlertStatusReviewing, models.AlertTransition{
		Status:     models.AlertStatusResolved,
		ResolvedAt: &resolvedAt,
		ResolvedBy: &resolvedBy,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertUpdateStatusStaleRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	mock.ExpectExec("UPDATE alerts SET status").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "a1", models.AlertStatusOpen, models.AlertTransition{
		Status: models.AlertStatusReviewing,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
