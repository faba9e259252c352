package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// InstructorRepository looks up instructors registered at state or site level.
type InstructorRepository struct {
	store docstore.Store
}

// NewInstructorRepository constructs an InstructorRepository.
func NewInstructorRepository(store docstore.Store) *InstructorRepository {
	return &InstructorRepository{store: store}
}

// FindStateLevel returns the state-level instructor or docstore.ErrNotFound.
func (r *InstructorRepository) FindStateLevel(ctx context.Context, country, state, cpf string) (*models.Instructor, error) {
	doc, err := r.store.Get(ctx, StateInstructorPath(country, state, cpf))
	if err != nil {
		return nil, fmt.Errorf("get state instructor: %w", err)
	}
	instructor := models.InstructorFromDocument(*doc, models.RoleStateInstructor)
	return &instructor, nil
}

// FindSiteLevel returns the site-level instructor or docstore.ErrNotFound.
func (r *InstructorRepository) FindSiteLevel(ctx context.Context, site models.SiteRef, cpf string) (*models.Instructor, error) {
	doc, err := r.store.Get(ctx, SiteInstructorPath(site, cpf))
	if err != nil {
		return nil, fmt.Errorf("get site instructor: %w", err)
	}
	instructor := models.InstructorFromDocument(*doc, models.RoleSiteInstructor)
	return &instructor, nil
}

// Put writes an instructor at the level given by its role.
func (r *InstructorRepository) Put(ctx context.Context, site models.SiteRef, instructor models.Instructor) error {
	path := SiteInstructorPath(site, instructor.CPF)
	if instructor.Role == models.RoleStateInstructor {
		path = StateInstructorPath(site.Country, site.State, instructor.CPF)
	}
	if err := r.store.Set(ctx, path, instructor.Fields(), false); err != nil {
		return fmt.Errorf("write instructor: %w", err)
	}
	return nil
}
