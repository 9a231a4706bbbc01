package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markaz-annoor/annoor-api/internal/models"
)

type dashStudentStub struct {
	students []models.Student
	classes  []string
}

func (s dashStudentStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	return s.students, len(s.students), nil
}

func (s dashStudentStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for i := range s.students {
		if s.students[i].ID == id {
			return &s.students[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s dashStudentStub) ClassNames(ctx context.Context) ([]string, error) {
	return s.classes, nil
}

type dashTeacherStub struct{ total int }

func (s dashTeacherStub) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	return nil, s.total, nil
}

type dashActivityStub struct{ total int }

func (s dashActivityStub) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error) {
	return nil, s.total, nil
}

type dashParticipationStub struct {
	byClass   map[string][]models.ParticipationRecord
	byTeacher map[string][]models.ParticipationRecord
	byStudent map[string][]models.ParticipationRecord
	all       []models.ParticipationRecord
}

func (s dashParticipationStub) Snapshot(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationRecord, error) {
	switch {
	case filter.ClassName != "":
		return s.byClass[filter.ClassName], nil
	case filter.TeacherID != "":
		return s.byTeacher[filter.TeacherID], nil
	case filter.StudentID != "":
		return s.byStudent[filter.StudentID], nil
	default:
		return s.all, nil
	}
}

type dashAlertStub struct {
	counts    map[models.AlertStatus]int
	openTotal int
}

func (s dashAlertStub) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	return nil, s.openTotal, nil
}

func (s dashAlertStub) CountByStatus(ctx context.Context) (map[models.AlertStatus]int, error) {
	return s.counts, nil
}

func gradedRecord(id string, day time.Time, grade models.Grade) models.ParticipationRecord {
	return models.ParticipationRecord{ID: id, Date: day, Grade: grade}
}

func TestAdminDashboardAggregatesClasses(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	classA := []models.ParticipationRecord{
		gradedRecord("a1", day, models.GradeA),
		gradedRecord("a2", day, models.GradeA),
	}
	classB := []models.ParticipationRecord{
		gradedRecord("b1", day, models.GradeB),
		gradedRecord("b2", day, models.GradeD),
	}
	all := append(append([]models.ParticipationRecord{}, classA...), classB...)

	svc := NewDashboardService(
		dashStudentStub{students: make([]models.Student, 3), classes: []string{"1A", "1B"}},
		dashTeacherStub{total: 2},
		dashActivityStub{total: 5},
		dashParticipationStub{all: all, byClass: map[string][]models.ParticipationRecord{"1A": classA, "1B": classB}},
		dashAlertStub{counts: map[models.AlertStatus]int{models.AlertStatusOpen: 1}},
		nil, nil, time.Minute, zap.NewNop(),
	)

	resp, err := svc.AdminDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Students)
	assert.Equal(t, 2, resp.Teachers)
	assert.Equal(t, 5, resp.Activities)
	assert.Equal(t, 4, resp.Participation.TotalRecords)
	require.Len(t, resp.ByClass, 2)

	// {A,A} averages 4.0, {B,D} averages 2.0
	require.NotNil(t, resp.TopClass)
	assert.Equal(t, "1A", resp.TopClass.ClassName)
	require.NotNil(t, resp.TopClass.WeightedAverage)
	assert.InDelta(t, 4.0, *resp.TopClass.WeightedAverage, 1e-9)
	assert.Equal(t, 1, resp.AlertsByStatus[models.AlertStatusOpen])
}

func TestAdminDashboardEmptyParticipation(t *testing.T) {
	svc := NewDashboardService(
		dashStudentStub{classes: nil},
		dashTeacherStub{},
		dashActivityStub{},
		dashParticipationStub{},
		dashAlertStub{counts: map[models.AlertStatus]int{}},
		nil, nil, time.Minute, zap.NewNop(),
	)

	resp, err := svc.AdminDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Participation.TotalRecords)
	assert.Nil(t, resp.Participation.WeightedAverage)
	assert.Nil(t, resp.TopClass)
}

func TestStaffDashboardRecentDaysCoverWindow(t *testing.T) {
	now := time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC)
	records := []models.ParticipationRecord{
		gradedRecord("r1", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), models.GradeA),
		gradedRecord("r2", time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), models.GradeB),
	}

	svc := NewDashboardService(
		dashStudentStub{},
		dashTeacherStub{},
		dashActivityStub{},
		dashParticipationStub{byTeacher: map[string][]models.ParticipationRecord{"t1": records}},
		dashAlertStub{openTotal: 2},
		nil, nil, time.Minute, zap.NewNop(),
	)
	svc.now = func() time.Time { return now }

	resp, err := svc.StaffDashboard(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.TeacherID)
	assert.Equal(t, 2, resp.Participation.TotalRecords)
	assert.Equal(t, 2, resp.OpenAlerts)
	require.Len(t, resp.RecentDays, 7)
	assert.Equal(t, 1, resp.RecentDays[0].Summary.TotalRecords)
	assert.Equal(t, 1, resp.RecentDays[6].Summary.TotalRecords)
	for i := 1; i < 6; i++ {
		assert.Equal(t, 0, resp.RecentDays[i].Summary.TotalRecords)
	}
}

func TestStudentProgressBuckets(t *testing.T) {
	now := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	records := []models.ParticipationRecord{
		gradedRecord("r1", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), models.GradeA),
		gradedRecord("r2", time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), models.GradeB),
	}
	student := models.Student{ID: "s1", FullName: "Ahmad", ClassName: "1A"}

	svc := NewDashboardService(
		dashStudentStub{students: []models.Student{student}},
		dashTeacherStub{},
		dashActivityStub{},
		dashParticipationStub{byStudent: map[string][]models.ParticipationRecord{"s1": records}},
		dashAlertStub{},
		nil, nil, time.Minute, zap.NewNop(),
	)
	svc.now = func() time.Time { return now }

	resp, err := svc.StudentProgress(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ahmad", resp.StudentName)
	assert.Equal(t, 2, resp.Overall.TotalRecords)
	require.NotNil(t, resp.Overall.WeightedAverage)
	assert.InDelta(t, 3.5, *resp.Overall.WeightedAverage, 1e-9)
	require.NotNil(t, resp.Overall.AverageLetter)
	assert.Equal(t, models.GradeA, *resp.Overall.AverageLetter)

	assert.Len(t, resp.Days, progressDays)
	assert.Len(t, resp.Weeks, progressWeeks)
	// both records fall in the week starting Monday 2026-03-02
	last := resp.Weeks[len(resp.Weeks)-1]
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), last.WeekStart)
	assert.Equal(t, 2, last.Summary.TotalRecords)
}

func TestStudentProgressUnknownStudent(t *testing.T) {
	svc := NewDashboardService(
		dashStudentStub{},
		dashTeacherStub{},
		dashActivityStub{},
		dashParticipationStub{},
		dashAlertStub{},
		nil, nil, time.Minute, zap.NewNop(),
	)
	_, err := svc.StudentProgress(context.Background(), "missing")
	require.Error(t, err)
}

func TestAdminDashboardRecordsQueryMetrics(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	metrics := NewMetricsService()
	svc := NewDashboardService(
		dashStudentStub{students: make([]models.Student, 1), classes: []string{"1A"}},
		dashTeacherStub{total: 1},
		dashActivityStub{total: 1},
		dashParticipationStub{all: []models.ParticipationRecord{gradedRecord("a1", day, models.GradeA)}},
		dashAlertStub{},
		nil, metrics, time.Minute, zap.NewNop(),
	)

	_, err := svc.AdminDashboard(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, metrics.Snapshot().DBQueryCount)
}
