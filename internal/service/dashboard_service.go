package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/markaz-annoor/annoor-api/internal/dto"
	"github.com/markaz-annoor/annoor-api/internal/grading"
	"github.com/markaz-annoor/annoor-api/internal/models"
	appErrors "github.com/markaz-annoor/annoor-api/pkg/errors"
)

const (
	cacheKeyAdminDashboard = "dashboard:admin"
	cacheKeyStaffDashboard = "dashboard:staff:"
	cacheKeyProgress       = "dashboard:progress:"

	progressDays  = 14
	progressWeeks = 8
	staffDays     = 7
)

type dashboardStudentSource interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ClassNames(ctx context.Context) ([]string, error)
}

type dashboardTeacherSource interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
}

type dashboardActivitySource interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error)
}

type dashboardParticipationSource interface {
	Snapshot(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationRecord, error)
}

type dashboardAlertSource interface {
	List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error)
	CountByStatus(ctx context.Context) (map[models.AlertStatus]int, error)
}

// DashboardService renders the aggregate views for every role. All grade
// arithmetic goes through the grading package; this service only shapes data.
type DashboardService struct {
	students       dashboardStudentSource
	teachers       dashboardTeacherSource
	activities     dashboardActivitySource
	participations dashboardParticipationSource
	alerts         dashboardAlertSource
	cache          *CacheService
	metrics        *MetricsService
	cacheTTL       time.Duration
	weights        grading.Weights
	logger         *zap.Logger
	now            func() time.Time
}

// NewDashboardService creates an instance of DashboardService.
func NewDashboardService(
	students dashboardStudentSource,
	teachers dashboardTeacherSource,
	activities dashboardActivitySource,
	participations dashboardParticipationSource,
	alerts dashboardAlertSource,
	cache *CacheService,
	metrics *MetricsService,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		students:       students,
		teachers:       teachers,
		activities:     activities,
		participations: participations,
		alerts:         alerts,
		cache:          cache,
		metrics:        metrics,
		cacheTTL:       cacheTTL,
		weights:        grading.DefaultWeights,
		logger:         logger,
		now:            time.Now,
	}
}

// AdminDashboard aggregates roster counts, participation and alert totals.
func (s *DashboardService) AdminDashboard(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	var cached dto.AdminDashboardResponse
	if hit, err := s.cache.Get(ctx, cacheKeyAdminDashboard, &cached); err == nil && hit {
		return &cached, nil
	}

	activeOnly := true
	_, studentCount, err := s.students.List(ctx, models.StudentFilter{Active: &activeOnly, Page: 1, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	_, teacherCount, err := s.teachers.List(ctx, models.TeacherFilter{Active: &activeOnly, Page: 1, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	_, activityCount, err := s.activities.List(ctx, models.ActivityFilter{Active: &activeOnly, Page: 1, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count activities")
	}

	all, err := s.snapshot(ctx, "participation_snapshot_all", models.ParticipationFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation snapshot")
	}

	classNames, err := s.students.ClassNames(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class names")
	}

	byClass := make([]dto.ClassSummary, 0, len(classNames))
	classOf := make(map[string]string)
	var union []models.ParticipationRecord
	for _, name := range classNames {
		records, err := s.snapshot(ctx, "participation_snapshot_class", models.ParticipationFilter{ClassName: name})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class snapshot")
		}
		dist := grading.NewDistribution(records)
		byClass = append(byClass, dto.ClassSummary{
			ClassName:       name,
			Records:         dist.Total(),
			WeightedAverage: grading.WeightedAverage(dist, s.weights),
			AttendanceRate:  grading.AttendanceRate(records),
		})
		for _, r := range records {
			classOf[r.ID] = name
		}
		union = append(union, records...)
	}
	sort.Slice(byClass, func(i, j int) bool { return byClass[i].ClassName < byClass[j].ClassName })

	var topClass *dto.ClassSummary
	if top, ok := grading.TopGroup(union, func(r models.ParticipationRecord) string { return classOf[r.ID] }, s.weights); ok {
		for i := range byClass {
			if byClass[i].ClassName == top.Key {
				topClass = &byClass[i]
				break
			}
		}
	}

	alertCounts, err := s.alerts.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count alerts")
	}

	resp := &dto.AdminDashboardResponse{
		GeneratedAt:    s.now().UTC(),
		Students:       studentCount,
		Teachers:       teacherCount,
		Activities:     activityCount,
		Participation:  summarize(all, s.weights),
		ByClass:        byClass,
		TopClass:       topClass,
		AlertsByStatus: alertCounts,
	}

	if err := s.cache.Set(ctx, cacheKeyAdminDashboard, resp, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache admin dashboard", zap.Error(err))
	}
	return resp, nil
}

// StaffDashboard aggregates the calling teacher's own grading activity.
func (s *DashboardService) StaffDashboard(ctx context.Context, teacherID string) (*dto.StaffDashboardResponse, error) {
	key := cacheKeyStaffDashboard + teacherID
	var cached dto.StaffDashboardResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	records, err := s.snapshot(ctx, "participation_snapshot_teacher", models.ParticipationFilter{TeacherID: teacherID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation snapshot")
	}

	now := s.now().UTC()
	from := grading.Day(now.AddDate(0, 0, -(staffDays - 1)))
	days := grading.BucketByDay(records, from, now)
	recent := make([]dto.DaySummary, 0, len(days))
	for _, b := range days {
		recent = append(recent, dto.DaySummary{Date: b.Date, Summary: summarize(b.Records, s.weights)})
	}

	openStatus := models.AlertStatusOpen
	_, openAlerts, err := s.alerts.List(ctx, models.AlertFilter{TeacherID: teacherID, Status: &openStatus, Page: 1, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open alerts")
	}

	resp := &dto.StaffDashboardResponse{
		TeacherID:     teacherID,
		GeneratedAt:   now,
		Participation: summarize(records, s.weights),
		RecentDays:    recent,
		OpenAlerts:    openAlerts,
	}

	if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache staff dashboard", zap.Error(err))
	}
	return resp, nil
}

// StudentProgress renders day and week buckets plus overall averages for a student.
func (s *DashboardService) StudentProgress(ctx context.Context, studentID string) (*dto.StudentProgressResponse, error) {
	key := cacheKeyProgress + studentID
	var cached dto.StudentProgressResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	records, err := s.snapshot(ctx, "participation_snapshot_student", models.ParticipationFilter{StudentID: studentID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation snapshot")
	}

	now := s.now().UTC()
	from := grading.Day(now.AddDate(0, 0, -(progressDays - 1)))
	dayBuckets := grading.BucketByDay(records, from, now)
	days := make([]dto.DaySummary, 0, len(dayBuckets))
	for _, b := range dayBuckets {
		days = append(days, dto.DaySummary{Date: b.Date, Summary: summarize(b.Records, s.weights)})
	}

	weekBuckets := grading.BucketByWeek(records, progressWeeks, now)
	weeks := make([]dto.WeekSummary, 0, len(weekBuckets))
	for _, b := range weekBuckets {
		weeks = append(weeks, dto.WeekSummary{WeekStart: b.Start, Summary: summarize(b.Records, s.weights)})
	}

	resp := &dto.StudentProgressResponse{
		StudentID:   student.ID,
		StudentName: student.FullName,
		ClassName:   student.ClassName,
		GeneratedAt: now,
		Overall:     summarize(records, s.weights),
		Days:        days,
		Weeks:       weeks,
	}

	if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache student progress", zap.Error(err))
	}
	return resp, nil
}

// snapshot loads participation records and feeds the query duration into
// the metrics service.
func (s *DashboardService) snapshot(ctx context.Context, label string, filter models.ParticipationFilter) ([]models.ParticipationRecord, error) {
	start := time.Now()
	records, err := s.participations.Snapshot(ctx, filter)
	s.metrics.ObserveDBQuery(label, time.Since(start))
	return records, err
}
