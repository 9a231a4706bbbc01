package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markaz-annoor/annoor-api/internal/models"
	"github.com/markaz-annoor/annoor-api/pkg/export"
	"github.com/markaz-annoor/annoor-api/pkg/storage"
)

type participationSourceStub struct {
	details []models.ParticipationDetail
	records []models.ParticipationRecord
}

func (s participationSourceStub) List(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationDetail, int, error) {
	return s.details, len(s.details), nil
}

func (s participationSourceStub) Snapshot(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationRecord, error) {
	return s.records, nil
}

type studentSourceStub struct {
	students []models.Student
}

func (s studentSourceStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	return s.students, len(s.students), nil
}

type alertSourceStub struct {
	alerts []models.Alert
}

func (s alertSourceStub) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	return s.alerts, len(s.alerts), nil
}

func sampleDetail(grade models.Grade) models.ParticipationDetail {
	return models.ParticipationDetail{
		ParticipationRecord: models.ParticipationRecord{
			ID:    "rec-" + string(grade),
			Date:  time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Grade: grade,
		},
		StudentName:  "Ahmad",
		ClassName:    "1A",
		TeacherName:  "Ust. Salim",
		ActivityName: "Subuh prayer",
	}
}

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	participations := participationSourceStub{
		details: []models.ParticipationDetail{sampleDetail(models.GradeA), sampleDetail(models.GradeD)},
		records: []models.ParticipationRecord{{ID: "r1", Grade: models.GradeA}, {ID: "r2", Grade: models.GradeB}},
	}
	students := studentSourceStub{students: []models.Student{
		{ID: "s1", NIS: "1001", FullName: "Ahmad", Gender: "male", ClassName: "1A"},
	}}
	alerts := alertSourceStub{alerts: []models.Alert{
		{ID: "a1", StudentID: "s1", TeacherID: "t1", Comment: "late twice", Priority: models.AlertPriorityLow, Status: models.AlertStatusOpen, CreatedAt: time.Now()},
	}}
	svc := NewExportService(participations, students, alerts, store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func TestExportServiceGenerateParticipationCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:        "job-1",
		Type:      models.ExportTypeParticipations,
		Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
		CreatedBy: "admin",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.Contains(t, result.URL, "/exports/download?token=")

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGenerateStudentPDF(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:        "job-2",
		Type:      models.ExportTypeStudents,
		Params:    models.ExportJobParams{Format: models.ExportFormatPDF},
		CreatedBy: "admin",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, models.ExportFormatPDF, result.Format)

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGenerateAlertsCSV(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:        "job-3",
		Type:      models.ExportTypeAlerts,
		Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
		CreatedBy: "admin",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
}

func TestExportServiceRejectsUnknownType(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:     "job-4",
		Type:   models.ExportType("unknown"),
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
	}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}

func TestSanitizeFilenameLowercasesAndTruncates(t *testing.T) {
	require.Equal(t, "all", sanitizeFilename(""))
	require.Equal(t, "kelas_tahfidz-1a", sanitizeFilename("Kelas Tahfidz/1A"))

	long := strings.Repeat("Ḥalaqah ", 30)
	got := sanitizeFilename(long)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, 100, utf8.RuneCountInString(got))
	require.Equal(t, strings.ToLower(got), got)
}
