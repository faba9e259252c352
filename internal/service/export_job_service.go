package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/jobs"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
}

type exportClassReader interface {
	FindByID(ctx context.Context, site models.SiteRef, id string) (*models.Class, error)
}

// ExportJobService orchestrates the overview export lifecycle.
type ExportJobService struct {
	repo     exportJobStore
	classes  exportClassReader
	queue    jobDispatcher
	exporter *ExportService
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      ExportJobConfig
}

// ExportJobConfig governs result retention and cleanup.
type ExportJobConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// NewExportJobService constructs the export job service.
func NewExportJobService(repo exportJobStore, classes exportClassReader, queue jobDispatcher, exporter *ExportService, metrics *MetricsService, logger *zap.Logger, cfg ExportJobConfig) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportJobService{
		repo:     repo,
		classes:  classes,
		queue:    queue,
		exporter: exporter,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateJob persists a queued export of the class overview and enqueues it.
func (s *ExportJobService) CreateJob(ctx context.Context, site models.SiteRef, classID string, req dto.ExportRequest, actor string) (*dto.ExportJobResponse, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	if req.Format != models.ExportFormatCSV && req.Format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if _, err := s.classes.FindByID(ctx, site, classID); err != nil {
		return nil, storeError(err, "class", "failed to load class")
	}
	job := &models.ExportJob{
		ID:        uuid.NewString(),
		Site:      site,
		ClassID:   classID,
		Format:    req.Format,
		Status:    models.ExportQueued,
		CreatedBy: actor,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, internalError(err, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Format)}); err != nil {
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, map[string]interface{}{
			"status":     string(models.ExportFailed),
			"progress":   100,
			"error":      "failed to enqueue job",
			"finishedAt": timestamp(now),
		})
		s.metrics.RecordExport(job.Format, outcomeFailure)
		return nil, internalError(err, "failed to enqueue export job")
	}
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata to instructors of the same site.
func (s *ExportJobService) GetStatus(ctx context.Context, site models.SiteRef, id string) (*dto.ExportStatusResponse, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "export job", "failed to load export job")
	}
	if job.Site != site {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export belongs to another site")
	}
	return &dto.ExportStatusResponse{
		ID:         job.ID,
		ClassID:    job.ClassID,
		Format:     job.Format,
		Status:     job.Status,
		Progress:   job.Progress,
		ResultURL:  job.ResultURL,
		Error:      job.Error,
		FinishedAt: job.FinishedAt,
	}, nil
}

// ResolveDownload validates the token and opens the stored export file.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, storeError(err, "export job", "failed to load export job")
	}
	if job.ResultURL == "" || !strings.HasSuffix(job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.exporter.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file expired")
		}
		return nil, internalError(err, "failed to open export file")
	}
	return &ExportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.exporter.Cleanup(s.cfg.ResultTTL)
				if err != nil {
					s.logger.Sugar().Warnw("export cleanup failed", "error", err)
					continue
				}
				if len(removed) > 0 {
					s.logger.Sugar().Infow("expired exports removed", "count", len(removed))
				}
			}
		}
	}()
}

// ExportWorker bridges queue jobs to ExportService.
type ExportWorker struct {
	repo     exportJobStore
	exporter exportGenerator
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo exportJobStore, exporter exportGenerator, metrics *MetricsService, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportWorker{repo: repo, exporter: exporter, metrics: metrics, logger: logger}
}

// Handle processes a queue job. Failures put the job back to queued so the
// queue retry can pick it up.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.FindByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			w.logger.Warn("export job vanished", zap.String("job_id", job.ID))
			return nil
		}
		return err
	}
	if err := w.repo.Update(ctx, job.ID, map[string]interface{}{
		"status":   string(models.ExportProcessing),
		"progress": 10,
	}); err != nil {
		return err
	}
	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		if updateErr := w.repo.Update(ctx, job.ID, map[string]interface{}{
			"status":   string(models.ExportQueued),
			"progress": 0,
			"error":    err.Error(),
		}); updateErr != nil {
			w.logger.Sugar().Warnw("failed to mark job queued", "job_id", job.ID, "error", updateErr)
		}
		return err
	}
	if err := w.repo.Update(ctx, job.ID, map[string]interface{}{
		"status":     string(models.ExportFinished),
		"progress":   100,
		"resultUrl":  result.URL,
		"error":      "",
		"finishedAt": timestamp(time.Now()),
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark job finished", "job_id", job.ID, "error", err)
		return err
	}
	w.metrics.RecordExport(record.Format, outcomeSuccess)
	return nil
}

// Exhausted marks a job failed once the queue gives up on it.
func (w *ExportWorker) Exhausted(ctx context.Context, job jobs.Job, cause error) {
	fields := map[string]interface{}{
		"status":     string(models.ExportFailed),
		"progress":   100,
		"finishedAt": timestamp(time.Now()),
	}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	if err := w.repo.Update(context.WithoutCancel(ctx), job.ID, fields); err != nil {
		w.logger.Sugar().Warnw("failed to mark job failed", "job_id", job.ID, "error", err)
	}
	w.metrics.RecordExport(models.ExportFormat(job.Type), outcomeFailure)
}
