package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/internal/repository"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// CascadeService deletes classes and students together with everything they
// own, and disables or re-enables students. Dependent items are removed one
// by one: a failed item is retried, then logged and counted, and the cascade
// moves on. Only the failure of the root document is returned.
type CascadeService struct {
	store        docstore.Store
	metrics      *MetricsService
	cache        *CacheService
	logger       *zap.Logger
	attempts     int
	retryBackoff time.Duration
}

// CascadeServiceOption customises the service.
type CascadeServiceOption func(*CascadeService)

// WithCascadeAttempts sets how often a dependent delete is tried before it is
// recorded as failed.
func WithCascadeAttempts(attempts int, backoff time.Duration) CascadeServiceOption {
	return func(s *CascadeService) {
		if attempts > 0 {
			s.attempts = attempts
		}
		if backoff >= 0 {
			s.retryBackoff = backoff
		}
	}
}

// NewCascadeService constructs the service.
func NewCascadeService(store docstore.Store, metrics *MetricsService, cache *CacheService, logger *zap.Logger, opts ...CascadeServiceOption) *CascadeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CascadeService{
		store:        store,
		metrics:      metrics,
		cache:        cache,
		logger:       logger,
		attempts:     2,
		retryBackoff: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type cascadeRun struct {
	svc       *CascadeService
	operation string
	result    dto.CascadeResult
}

func (s *CascadeService) run(operation string) *cascadeRun {
	return &cascadeRun{svc: s, operation: operation}
}

// list returns the documents of a collection, or nothing when the listing fails.
func (r *cascadeRun) list(ctx context.Context, collection string) []docstore.Document {
	docs, err := r.svc.store.List(ctx, collection)
	if err != nil {
		r.fail(collection, err)
		return nil
	}
	return docs
}

// delete removes one dependent document, tolerating a missing one.
func (r *cascadeRun) delete(ctx context.Context, path string) {
	err := r.svc.retry(ctx, func() error {
		err := r.svc.store.Delete(ctx, path)
		if errors.Is(err, docstore.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		r.fail(path, err)
		return
	}
	r.result.Deleted++
}

// merge upserts fields into one dependent document.
func (r *cascadeRun) merge(ctx context.Context, path string, fields map[string]interface{}) {
	err := r.svc.retry(ctx, func() error {
		return r.svc.store.Set(ctx, path, fields, true)
	})
	if err != nil {
		r.fail(path, err)
		return
	}
	r.result.Updated++
}

func (r *cascadeRun) fail(path string, err error) {
	r.result.Failed = append(r.result.Failed, path)
	r.svc.metrics.RecordCascadeFailure(r.operation)
	r.svc.logger.Warn("partial cascade failure",
		zap.String("operation", r.operation),
		zap.String("path", path),
		zap.Error(err),
	)
}

func (s *CascadeService) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < s.attempts && s.retryBackoff > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(s.retryBackoff):
			}
		}
	}
	return err
}

// lectureScopes returns the attendance collections of a lecture: the lecture
// level one plus one per fragment, counting both stored fragment documents and
// the declared fragment total.
func (r *cascadeRun) lectureScopes(ctx context.Context, site models.SiteRef, classID string, lecture docstore.Document) []int {
	scopes := []int{0}
	seen := map[int]bool{0: true}
	total := models.LectureFromDocument(lecture).TotalFragments
	for n := 1; n <= total; n++ {
		scopes = append(scopes, n)
		seen[n] = true
	}
	for _, doc := range r.list(ctx, repository.FragmentsCollection(site, classID, lecture.ID)) {
		n := models.FragmentFromDocument(doc).Number
		if n > 0 && !seen[n] {
			scopes = append(scopes, n)
			seen[n] = true
		}
	}
	return scopes
}

// DeleteClass removes every attendance record, fragment and lecture of the
// class, then its students and make-up entries, and finally the class itself.
func (s *CascadeService) DeleteClass(ctx context.Context, site models.SiteRef, classID string) (*dto.CascadeResult, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	classPath := repository.ClassPath(site, classID)
	if _, err := s.store.Get(ctx, classPath); err != nil {
		return nil, storeError(err, "class", "failed to load class")
	}

	run := s.run("delete_class")
	for _, lecture := range run.list(ctx, repository.LecturesCollection(site, classID)) {
		scopes := run.lectureScopes(ctx, site, classID, lecture)
		for _, frag := range scopes {
			for _, rec := range run.list(ctx, repository.AttendanceCollection(site, classID, lecture.ID, frag)) {
				run.delete(ctx, rec.Path)
			}
		}
		for _, frag := range scopes[1:] {
			run.delete(ctx, repository.FragmentPath(site, classID, lecture.ID, frag))
		}
		run.delete(ctx, lecture.Path)
	}
	for _, student := range run.list(ctx, repository.StudentsCollection(site, classID)) {
		run.delete(ctx, student.Path)
	}
	for _, entry := range run.list(ctx, repository.MakeUpsCollection(site, classID)) {
		run.delete(ctx, entry.Path)
	}

	if err := s.store.Delete(ctx, classPath); err != nil {
		return nil, internalError(err, "failed to delete class")
	}
	run.result.Deleted++
	s.cache.InvalidateOverview(ctx, site, classID)
	s.logger.Info("class deleted",
		zap.String("class_id", classID),
		zap.Int("deleted", run.result.Deleted),
		zap.Int("failed", len(run.result.Failed)),
	)
	return &run.result, nil
}

// DeleteStudent removes the student's attendance in every lecture and
// fragment, then the student.
func (s *CascadeService) DeleteStudent(ctx context.Context, site models.SiteRef, classID, studentID string) (*dto.CascadeResult, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	studentPath := repository.StudentPath(site, classID, studentID)
	if _, err := s.store.Get(ctx, studentPath); err != nil {
		return nil, storeError(err, "student", "failed to load student")
	}

	run := s.run("delete_student")
	for _, lecture := range run.list(ctx, repository.LecturesCollection(site, classID)) {
		for _, frag := range run.lectureScopes(ctx, site, classID, lecture) {
			run.delete(ctx, repository.AttendancePath(site, classID, lecture.ID, frag, studentID))
		}
	}

	if err := s.store.Delete(ctx, studentPath); err != nil {
		return nil, internalError(err, "failed to delete student")
	}
	run.result.Deleted++
	s.cache.InvalidateOverview(ctx, site, classID)
	s.logger.Info("student deleted",
		zap.String("class_id", classID),
		zap.String("student_id", studentID),
		zap.Int("failed", len(run.result.Failed)),
	)
	return &run.result, nil
}

// DisableStudent marks the student and each of their attendance records as
// disabled, merging so the other record fields survive. Running it again
// yields the same state.
func (s *CascadeService) DisableStudent(ctx context.Context, site models.SiteRef, classID, studentID string) (*dto.CascadeResult, error) {
	return s.setStudentStatus(ctx, site, classID, studentID, models.StudentDisabled)
}

// EnableStudent reverses DisableStudent: the student becomes active again and
// each disabled record becomes absent.
func (s *CascadeService) EnableStudent(ctx context.Context, site models.SiteRef, classID, studentID string) (*dto.CascadeResult, error) {
	return s.setStudentStatus(ctx, site, classID, studentID, models.StudentActive)
}

func (s *CascadeService) setStudentStatus(ctx context.Context, site models.SiteRef, classID, studentID string, status models.StudentStatus) (*dto.CascadeResult, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	studentPath := repository.StudentPath(site, classID, studentID)
	if _, err := s.store.Get(ctx, studentPath); err != nil {
		return nil, storeError(err, "student", "failed to load student")
	}
	if err := s.store.Update(ctx, studentPath, map[string]interface{}{"status": string(status)}); err != nil {
		return nil, storeError(err, "student", "failed to update student")
	}

	operation := "disable_student"
	if status == models.StudentActive {
		operation = "enable_student"
	}
	run := s.run(operation)
	run.result.Updated++
	for _, lecture := range run.list(ctx, repository.LecturesCollection(site, classID)) {
		for _, frag := range run.lectureScopes(ctx, site, classID, lecture) {
			path := repository.AttendancePath(site, classID, lecture.ID, frag, studentID)
			if status == models.StudentDisabled {
				if frag > 0 && !s.exists(ctx, path) {
					continue
				}
				run.merge(ctx, path, map[string]interface{}{"alunoId": studentID, "status": models.AttendanceDisabled})
				continue
			}
			doc, err := s.store.Get(ctx, path)
			if err != nil || doc.Fields().String("status") != models.AttendanceDisabled {
				continue
			}
			run.merge(ctx, path, map[string]interface{}{"status": models.AttendanceAbsent})
		}
	}
	s.cache.InvalidateOverview(ctx, site, classID)
	return &run.result, nil
}

func (s *CascadeService) exists(ctx context.Context, path string) bool {
	_, err := s.store.Get(ctx, path)
	return err == nil
}
