package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/markaz-annoor/annoor-api/internal/grading"
	"github.com/markaz-annoor/annoor-api/internal/models"
	"github.com/markaz-annoor/annoor-api/pkg/export"
	"github.com/markaz-annoor/annoor-api/pkg/storage"
)

// exportPageLimit caps the rows fetched into one export file.
const exportPageLimit = 10000

type exportParticipationSource interface {
	List(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationDetail, int, error)
	Snapshot(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationRecord, error)
}

type exportStudentSource interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

type exportAlertSource interface {
	List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService builds export datasets and persists rendered files.
type ExportService struct {
	participations exportParticipationSource
	students       exportStudentSource
	alerts         exportAlertSource
	storage        fileStorage
	csv            csvRenderer
	pdf            pdfRenderer
	signer         *storage.SignedURLSigner
	weights        grading.Weights
	logger         *zap.Logger
	cfg            ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(
	participations exportParticipationSource,
	students exportStudentSource,
	alerts exportAlertSource,
	store fileStorage,
	signer *storage.SignedURLSigner,
	cfg ExportConfig,
	logger *zap.Logger,
	csv csvRenderer,
	pdf pdfRenderer,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		participations: participations,
		students:       students,
		alerts:         alerts,
		storage:        store,
		csv:            csv,
		pdf:            pdf,
		signer:         signer,
		weights:        grading.DefaultWeights,
		logger:         logger,
		cfg:            cfg,
	}
}

// Generate builds the dataset according to the job definition and stores
// the rendered file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download?token=%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := sanitizeFilename(job.Params.ClassName)
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), scope, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := strings.ToLower(replacer.Replace(raw))
	if runes := []rune(result); len(runes) > 100 {
		return string(runes[:100])
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ExportTypeParticipations:
		return s.buildParticipationDataset(ctx, job.Params)
	case models.ExportTypeStudents:
		return s.buildStudentDataset(ctx, job.Params)
	case models.ExportTypeAlerts:
		return s.buildAlertDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func (s *ExportService) buildParticipationDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	filter := models.ParticipationFilter{
		ClassName: params.ClassName,
		StudentID: params.StudentID,
		DateFrom:  params.DateFrom,
		DateTo:    params.DateTo,
		Page:      1,
		PageSize:  exportPageLimit,
	}
	rows, _, err := s.participations.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Student", "Class", "Activity", "Teacher", "Grade", "Remark"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		remark := ""
		if row.Remark != nil {
			remark = *row.Remark
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":     row.Date.Format("2006-01-02"),
			"Student":  row.StudentName,
			"Class":    row.ClassName,
			"Activity": row.ActivityName,
			"Teacher":  row.TeacherName,
			"Grade":    string(row.Grade),
			"Remark":   remark,
		})
	}
	return dataset, "Participation Records", nil
}

func (s *ExportService) buildStudentDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	filter := models.StudentFilter{
		ClassName: params.ClassName,
		Page:      1,
		PageSize:  exportPageLimit,
	}
	rows, _, err := s.students.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"NIS", "Name", "Gender", "Class", "Guardian Phone", "Average", "Attendance"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, student := range rows {
		records, err := s.participations.Snapshot(ctx, models.ParticipationFilter{
			StudentID: student.ID,
			DateFrom:  params.DateFrom,
			DateTo:    params.DateTo,
		})
		if err != nil {
			return export.Dataset{}, "", err
		}
		avg := "-"
		if v := grading.WeightedAverage(grading.NewDistribution(records), s.weights); v != nil {
			avg = strconv.FormatFloat(*v, 'f', 2, 64)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"NIS":            student.NIS,
			"Name":           student.FullName,
			"Gender":         student.Gender,
			"Class":          student.ClassName,
			"Guardian Phone": student.GuardianPhone,
			"Average":        avg,
			"Attendance":     strconv.FormatFloat(grading.AttendanceRate(records), 'f', 1, 64) + "%",
		})
	}
	return dataset, "Student Roster", nil
}

func (s *ExportService) buildAlertDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	filter := models.AlertFilter{
		StudentID: params.StudentID,
		Page:      1,
		PageSize:  exportPageLimit,
	}
	rows, _, err := s.alerts.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Created", "Student ID", "Teacher ID", "Priority", "Status", "Comment", "Resolved At"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, alert := range rows {
		resolved := "-"
		if alert.ResolvedAt != nil {
			resolved = alert.ResolvedAt.Format(time.RFC3339)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Created":     alert.CreatedAt.Format(time.RFC3339),
			"Student ID":  alert.StudentID,
			"Teacher ID":  alert.TeacherID,
			"Priority":    string(alert.Priority),
			"Status":      string(alert.Status),
			"Comment":     alert.Comment,
			"Resolved At": resolved,
		})
	}
	return dataset, "Behaviour Alerts", nil
}
