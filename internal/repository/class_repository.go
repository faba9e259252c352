package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// ClassRepository manages class documents of a site.
type ClassRepository struct {
	store docstore.Store
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(store docstore.Store) *ClassRepository {
	return &ClassRepository{store: store}
}

// List returns the classes of a site sorted by id.
func (r *ClassRepository) List(ctx context.Context, site models.SiteRef) ([]models.Class, error) {
	docs, err := r.store.List(ctx, ClassesCollection(site))
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	classes := make([]models.Class, 0, len(docs))
	for _, doc := range docs {
		classes = append(classes, models.ClassFromDocument(doc))
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].ID < classes[j].ID })
	return classes, nil
}

// FindByID returns the class or docstore.ErrNotFound.
func (r *ClassRepository) FindByID(ctx context.Context, site models.SiteRef, id string) (*models.Class, error) {
	doc, err := r.store.Get(ctx, ClassPath(site, id))
	if err != nil {
		return nil, fmt.Errorf("get class %s: %w", id, err)
	}
	class := models.ClassFromDocument(*doc)
	return &class, nil
}

// Create writes a new class document.
func (r *ClassRepository) Create(ctx context.Context, site models.SiteRef, class *models.Class) error {
	if err := r.store.Set(ctx, ClassPath(site, class.ID), class.Fields(), false); err != nil {
		return fmt.Errorf("create class %s: %w", class.ID, err)
	}
	return nil
}

// Update merges fields into an existing class.
func (r *ClassRepository) Update(ctx context.Context, site models.SiteRef, id string, fields map[string]interface{}) error {
	if err := r.store.Update(ctx, ClassPath(site, id), fields); err != nil {
		return fmt.Errorf("update class %s: %w", id, err)
	}
	return nil
}

// Delete removes the class document only. Nested collections are not touched.
func (r *ClassRepository) Delete(ctx context.Context, site models.SiteRef, id string) error {
	if err := r.store.Delete(ctx, ClassPath(site, id)); err != nil {
		return fmt.Errorf("delete class %s: %w", id, err)
	}
	return nil
}
