package dto

import (
	"time"

	"github.com/noah-isme/class-control-api/internal/models"
)

// ExportRequest captures POST /classes/:classId/overview/exports payload.
type ExportRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID         string              `json:"id"`
	ClassID    string              `json:"class_id"`
	Format     models.ExportFormat `json:"format"`
	Status     models.ExportStatus `json:"status"`
	Progress   int                 `json:"progress"`
	ResultURL  string              `json:"result_url,omitempty"`
	Error      string              `json:"error,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}
