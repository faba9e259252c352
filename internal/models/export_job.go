package models

import (
	"time"

	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// ExportFormat enumerates supported export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus captures background job lifecycle states.
type ExportStatus string

const (
	ExportQueued     ExportStatus = "queued"
	ExportProcessing ExportStatus = "processing"
	ExportFinished   ExportStatus = "finished"
	ExportFailed     ExportStatus = "failed"
)

// ExportJob persisted background export of an overview matrix.
type ExportJob struct {
	ID         string       `json:"id"`
	Site       SiteRef      `json:"site"`
	ClassID    string       `json:"class_id"`
	Format     ExportFormat `json:"format"`
	Status     ExportStatus `json:"status"`
	Progress   int          `json:"progress"`
	ResultURL  string       `json:"result_url,omitempty"`
	Error      string       `json:"error,omitempty"`
	CreatedBy  string       `json:"created_by"`
	CreatedAt  time.Time    `json:"created_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// ExportJobFromDocument decodes an export job document.
func ExportJobFromDocument(doc docstore.Document) ExportJob {
	f := doc.Fields()
	site := f.Map("site")
	job := ExportJob{
		ID:        doc.ID,
		Site:      SiteRef{Country: site.String("country"), State: site.String("state"), Site: site.String("site")},
		ClassID:   f.String("classId"),
		Format:    ExportFormat(f.String("format")),
		Status:    ExportStatus(f.String("status")),
		Progress:  f.Int("progress"),
		ResultURL: f.String("resultUrl"),
		Error:     f.String("error"),
		CreatedBy: f.String("createdBy"),
		CreatedAt: f.Time("createdAt"),
	}
	if finished := f.Time("finishedAt"); !finished.IsZero() {
		job.FinishedAt = &finished
	}
	return job
}

// Fields encodes the job for storage.
func (j ExportJob) Fields() map[string]interface{} {
	out := map[string]interface{}{
		"site": map[string]interface{}{
			"country": j.Site.Country,
			"state":   j.Site.State,
			"site":    j.Site.Site,
		},
		"classId":   j.ClassID,
		"format":    string(j.Format),
		"status":    string(j.Status),
		"progress":  j.Progress,
		"resultUrl": j.ResultURL,
		"error":     j.Error,
		"createdBy": j.CreatedBy,
		"createdAt": j.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if j.FinishedAt != nil {
		out["finishedAt"] = j.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	return out
}
