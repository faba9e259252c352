package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// AttendanceRepository reads and writes attendance documents. A positive
// fragment addresses the attendance of that fragment.
type AttendanceRepository struct {
	store docstore.Store
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(store docstore.Store) *AttendanceRepository {
	return &AttendanceRepository{store: store}
}

// List returns every attendance record of a lecture or fragment.
func (r *AttendanceRepository) List(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int) ([]models.AttendanceRecord, error) {
	docs, err := r.store.List(ctx, AttendanceCollection(site, classID, lectureID, fragment))
	if err != nil {
		return nil, fmt.Errorf("list attendance of %s: %w", lectureID, err)
	}
	records := make([]models.AttendanceRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, models.AttendanceRecordFromDocument(doc))
	}
	return records, nil
}

// ListByStudent indexes the attendance records of a lecture or fragment by student id.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int) (map[string]models.AttendanceRecord, error) {
	records, err := r.List(ctx, site, classID, lectureID, fragment)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.AttendanceRecord, len(records))
	for _, rec := range records {
		out[rec.StudentID] = rec
	}
	return out, nil
}

// Find returns the record of a student, or nil when there is none.
func (r *AttendanceRepository) Find(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int, studentID string) (*models.AttendanceRecord, error) {
	doc, err := r.store.Get(ctx, AttendancePath(site, classID, lectureID, fragment, studentID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attendance of %s in %s: %w", studentID, lectureID, err)
	}
	rec := models.AttendanceRecordFromDocument(*doc)
	return &rec, nil
}

// Merge upserts fields into the record, keeping any other stored field.
func (r *AttendanceRepository) Merge(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int, studentID string, fields map[string]interface{}) error {
	if err := r.store.Set(ctx, AttendancePath(site, classID, lectureID, fragment, studentID), fields, true); err != nil {
		return fmt.Errorf("write attendance of %s in %s: %w", studentID, lectureID, err)
	}
	return nil
}

// Delete removes the record of a student.
func (r *AttendanceRepository) Delete(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int, studentID string) error {
	if err := r.store.Delete(ctx, AttendancePath(site, classID, lectureID, fragment, studentID)); err != nil {
		return fmt.Errorf("delete attendance of %s in %s: %w", studentID, lectureID, err)
	}
	return nil
}

// StageSet stages a full write of raw record data into the batch.
func (r *AttendanceRepository) StageSet(b docstore.Batch, site models.SiteRef, classID, lectureID string, fragment int, studentID string, data map[string]interface{}) {
	b.Set(AttendancePath(site, classID, lectureID, fragment, studentID), data, false)
}

// StageDelete stages the deletion of a record into the batch.
func (r *AttendanceRepository) StageDelete(b docstore.Batch, site models.SiteRef, classID, lectureID string, fragment int, studentID string) {
	b.Delete(AttendancePath(site, classID, lectureID, fragment, studentID))
}

// Raw returns the stored payload of a record so it can be copied verbatim, or nil when missing.
func (r *AttendanceRepository) Raw(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int, studentID string) (map[string]interface{}, error) {
	doc, err := r.store.Get(ctx, AttendancePath(site, classID, lectureID, fragment, studentID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attendance of %s in %s: %w", studentID, lectureID, err)
	}
	return doc.Data, nil
}
