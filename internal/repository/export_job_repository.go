package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// ExportJobRepository persists overview export jobs.
type ExportJobRepository struct {
	store docstore.Store
}

// NewExportJobRepository constructs an ExportJobRepository.
func NewExportJobRepository(store docstore.Store) *ExportJobRepository {
	return &ExportJobRepository{store: store}
}

// Create writes a new job document.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if err := r.store.Set(ctx, docstore.Join(ExportJobsCollection, job.ID), job.Fields(), false); err != nil {
		return fmt.Errorf("create export job %s: %w", job.ID, err)
	}
	return nil
}

// FindByID returns the job or docstore.ErrNotFound.
func (r *ExportJobRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	doc, err := r.store.Get(ctx, docstore.Join(ExportJobsCollection, id))
	if err != nil {
		return nil, fmt.Errorf("get export job %s: %w", id, err)
	}
	job := models.ExportJobFromDocument(*doc)
	return &job, nil
}

// Update merges fields into an existing job.
func (r *ExportJobRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := r.store.Update(ctx, docstore.Join(ExportJobsCollection, id), fields); err != nil {
		return fmt.Errorf("update export job %s: %w", id, err)
	}
	return nil
}
