package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// MakeUpRepository manages the make-up entries of a class.
type MakeUpRepository struct {
	store docstore.Store
}

// NewMakeUpRepository constructs a MakeUpRepository.
func NewMakeUpRepository(store docstore.Store) *MakeUpRepository {
	return &MakeUpRepository{store: store}
}

// List returns every entry of a class in storage order.
func (r *MakeUpRepository) List(ctx context.Context, site models.SiteRef, classID string) ([]models.MakeUpEntry, error) {
	docs, err := r.store.List(ctx, MakeUpsCollection(site, classID))
	if err != nil {
		return nil, fmt.Errorf("list makeups of %s: %w", classID, err)
	}
	entries := make([]models.MakeUpEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, models.MakeUpFromDocument(doc))
	}
	return entries, nil
}

// FindByID returns the entry or docstore.ErrNotFound.
func (r *MakeUpRepository) FindByID(ctx context.Context, site models.SiteRef, classID, id string) (*models.MakeUpEntry, error) {
	doc, err := r.store.Get(ctx, MakeUpPath(site, classID, id))
	if err != nil {
		return nil, fmt.Errorf("get makeup %s: %w", id, err)
	}
	entry := models.MakeUpFromDocument(*doc)
	return &entry, nil
}

// Create writes a new entry.
func (r *MakeUpRepository) Create(ctx context.Context, site models.SiteRef, classID string, entry *models.MakeUpEntry) error {
	if err := r.store.Set(ctx, MakeUpPath(site, classID, entry.ID), entry.Fields(), false); err != nil {
		return fmt.Errorf("create makeup %s: %w", entry.ID, err)
	}
	return nil
}

// Update merges fields into an existing entry.
func (r *MakeUpRepository) Update(ctx context.Context, site models.SiteRef, classID, id string, fields map[string]interface{}) error {
	if err := r.store.Update(ctx, MakeUpPath(site, classID, id), fields); err != nil {
		return fmt.Errorf("update makeup %s: %w", id, err)
	}
	return nil
}

// Delete removes an entry.
func (r *MakeUpRepository) Delete(ctx context.Context, site models.SiteRef, classID, id string) error {
	if err := r.store.Delete(ctx, MakeUpPath(site, classID, id)); err != nil {
		return fmt.Errorf("delete makeup %s: %w", id, err)
	}
	return nil
}
