package dto

import (
	"time"

	"github.com/markaz-annoor/annoor-api/internal/models"
)

// GradeDistribution is the per-grade record count rendered in dashboards.
type GradeDistribution struct {
	A int `json:"a"`
	B int `json:"b"`
	C int `json:"c"`
	D int `json:"d"`
}

// ParticipationSummary is the aggregate block shared by dashboards and stats.
type ParticipationSummary struct {
	TotalRecords    int               `json:"totalRecords"`
	Distribution    GradeDistribution `json:"distribution"`
	WeightedAverage *float64          `json:"weightedAverage"`
	AverageLetter   *models.Grade     `json:"averageLetter,omitempty"`
	AttendanceRate  float64           `json:"attendanceRate"`
}

// ClassSummary ranks a class by its weighted average.
type ClassSummary struct {
	ClassName       string   `json:"className"`
	Records         int      `json:"records"`
	WeightedAverage *float64 `json:"weightedAverage"`
	AttendanceRate  float64  `json:"attendanceRate"`
}

// AdminDashboardResponse captures the aggregated admin dashboard payload.
type AdminDashboardResponse struct {
	GeneratedAt    time.Time                  `json:"generatedAt"`
	Students       int                        `json:"students"`
	Teachers       int                        `json:"teachers"`
	Activities     int                        `json:"activities"`
	Participation  ParticipationSummary       `json:"participation"`
	ByClass        []ClassSummary             `json:"byClass"`
	TopClass       *ClassSummary              `json:"topClass,omitempty"`
	AlertsByStatus map[models.AlertStatus]int `json:"alertsByStatus"`
}

// StaffDashboardResponse captures the per-teacher dashboard payload.
type StaffDashboardResponse struct {
	TeacherID     string               `json:"teacherId"`
	GeneratedAt   time.Time            `json:"generatedAt"`
	Participation ParticipationSummary `json:"participation"`
	RecentDays    []DaySummary         `json:"recentDays"`
	OpenAlerts    int                  `json:"openAlerts"`
}

// DaySummary aggregates one calendar day.
type DaySummary struct {
	Date    time.Time            `json:"date"`
	Summary ParticipationSummary `json:"summary"`
}

// WeekSummary aggregates one Monday-start week.
type WeekSummary struct {
	WeekStart time.Time            `json:"weekStart"`
	Summary   ParticipationSummary `json:"summary"`
}

// StudentProgressResponse is the per-student progress payload.
type StudentProgressResponse struct {
	StudentID   string               `json:"studentId"`
	StudentName string               `json:"studentName"`
	ClassName   string               `json:"className"`
	GeneratedAt time.Time            `json:"generatedAt"`
	Overall     ParticipationSummary `json:"overall"`
	Days        []DaySummary         `json:"days"`
	Weeks       []WeekSummary        `json:"weeks"`
}
