package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// LectureRepository manages the lectures of a class, their fragments and the
// shared lecture templates.
type LectureRepository struct {
	store docstore.Store
}

// NewLectureRepository constructs a LectureRepository.
func NewLectureRepository(store docstore.Store) *LectureRepository {
	return &LectureRepository{store: store}
}

// List returns the lectures of a class in id order.
func (r *LectureRepository) List(ctx context.Context, site models.SiteRef, classID string) ([]models.Lecture, error) {
	docs, err := r.store.List(ctx, LecturesCollection(site, classID))
	if err != nil {
		return nil, fmt.Errorf("list lectures of %s: %w", classID, err)
	}
	lectures := make([]models.Lecture, 0, len(docs))
	for _, doc := range docs {
		lectures = append(lectures, models.LectureFromDocument(doc))
	}
	sort.Slice(lectures, func(i, j int) bool { return lectures[i].ID < lectures[j].ID })
	return lectures, nil
}

// FindByID returns the lecture or docstore.ErrNotFound.
func (r *LectureRepository) FindByID(ctx context.Context, site models.SiteRef, classID, id string) (*models.Lecture, error) {
	doc, err := r.store.Get(ctx, LecturePath(site, classID, id))
	if err != nil {
		return nil, fmt.Errorf("get lecture %s: %w", id, err)
	}
	lecture := models.LectureFromDocument(*doc)
	return &lecture, nil
}

// Put writes a lecture document with the given payload.
func (r *LectureRepository) Put(ctx context.Context, site models.SiteRef, classID, id string, data map[string]interface{}) error {
	if err := r.store.Set(ctx, LecturePath(site, classID, id), data, false); err != nil {
		return fmt.Errorf("write lecture %s: %w", id, err)
	}
	return nil
}

// Delete removes the lecture document.
func (r *LectureRepository) Delete(ctx context.Context, site models.SiteRef, classID, id string) error {
	if err := r.store.Delete(ctx, LecturePath(site, classID, id)); err != nil {
		return fmt.Errorf("delete lecture %s: %w", id, err)
	}
	return nil
}

// ListFragments returns the fragment documents of a lecture ordered by number.
func (r *LectureRepository) ListFragments(ctx context.Context, site models.SiteRef, classID, lectureID string) ([]models.Fragment, error) {
	docs, err := r.store.List(ctx, FragmentsCollection(site, classID, lectureID))
	if err != nil {
		return nil, fmt.Errorf("list fragments of %s: %w", lectureID, err)
	}
	fragments := make([]models.Fragment, 0, len(docs))
	for _, doc := range docs {
		fragments = append(fragments, models.FragmentFromDocument(doc))
	}
	sort.Slice(fragments, func(i, j int) bool { return fragments[i].Number < fragments[j].Number })
	return fragments, nil
}

// DeleteFragment removes fragment n of a lecture.
func (r *LectureRepository) DeleteFragment(ctx context.Context, site models.SiteRef, classID, lectureID string, n int) error {
	if err := r.store.Delete(ctx, FragmentPath(site, classID, lectureID, n)); err != nil {
		return fmt.Errorf("delete fragment %d of %s: %w", n, lectureID, err)
	}
	return nil
}

// Template returns the raw payload of a lecture template or docstore.ErrNotFound.
func (r *LectureRepository) Template(ctx context.Context, id string) (map[string]interface{}, error) {
	doc, err := r.store.Get(ctx, docstore.Join(LectureTemplatesCollection, id))
	if err != nil {
		return nil, fmt.Errorf("get lecture template %s: %w", id, err)
	}
	return doc.Data, nil
}

// PutTemplate writes a lecture template.
func (r *LectureRepository) PutTemplate(ctx context.Context, id string, data map[string]interface{}) error {
	if err := r.store.Set(ctx, docstore.Join(LectureTemplatesCollection, id), data, false); err != nil {
		return fmt.Errorf("write lecture template %s: %w", id, err)
	}
	return nil
}
