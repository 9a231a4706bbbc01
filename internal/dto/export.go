package dto

import (
	"time"

	"github.com/markaz-annoor/annoor-api/internal/models"
)

// CreateExportRequest enqueues an export job.
type CreateExportRequest struct {
	Type      models.ExportType   `json:"type" validate:"required,oneof=participations students alerts"`
	Format    models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	ClassName string              `json:"className"`
	StudentID string              `json:"studentId"`
	DateFrom  *time.Time          `json:"dateFrom"`
	DateTo    *time.Time          `json:"dateTo"`
}

// ExportJobResponse is the job status payload.
type ExportJobResponse struct {
	ID           string              `json:"id"`
	Type         models.ExportType   `json:"type"`
	Format       models.ExportFormat `json:"format"`
	Status       models.ExportStatus `json:"status"`
	DownloadURL  *string             `json:"downloadUrl,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	FinishedAt   *time.Time          `json:"finishedAt,omitempty"`
	ErrorMessage *string             `json:"errorMessage,omitempty"`
}
