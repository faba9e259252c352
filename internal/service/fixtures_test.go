package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/internal/repository"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

var testSite = models.SiteRef{Country: "br", State: "sp", Site: "centro"}

var errInjected = errors.New("injected failure")

// faultStore wraps a store and fails selected deletes and batch commits.
type faultStore struct {
	docstore.Store
	mu             sync.Mutex
	transient      map[string]int
	persistentPart string
	commitErr      error
}

func newFaultStore(next docstore.Store) *faultStore {
	return &faultStore{Store: next, transient: map[string]int{}}
}

// failNext makes the next n deletes of path fail.
func (s *faultStore) failNext(path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transient[path] = n
}

func (s *faultStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	if s.persistentPart != "" && strings.Contains(path, s.persistentPart) {
		s.mu.Unlock()
		return errInjected
	}
	if n := s.transient[path]; n > 0 {
		s.transient[path] = n - 1
		s.mu.Unlock()
		return errInjected
	}
	s.mu.Unlock()
	return s.Store.Delete(ctx, path)
}

func (s *faultStore) Batch() docstore.Batch {
	b := s.Store.Batch()
	if s.commitErr != nil {
		return &failingBatch{Batch: b, err: s.commitErr}
	}
	return b
}

type failingBatch struct {
	docstore.Batch
	err error
}

func (b *failingBatch) Commit(ctx context.Context) error {
	return b.err
}

type fixture struct {
	store      *docstore.MemoryStore
	classes    *repository.ClassRepository
	students   *repository.StudentRepository
	lectures   *repository.LectureRepository
	attendance *repository.AttendanceRepository
	makeups    *repository.MakeUpRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := docstore.NewMemoryStore()
	return &fixture{
		store:      store,
		classes:    repository.NewClassRepository(store),
		students:   repository.NewStudentRepository(store, nil),
		lectures:   repository.NewLectureRepository(store),
		attendance: repository.NewAttendanceRepository(store),
		makeups:    repository.NewMakeUpRepository(store),
	}
}

func (f *fixture) class(t *testing.T, id, owner string) {
	t.Helper()
	require.NoError(t, f.classes.Create(context.Background(), testSite, &models.Class{
		ID:          id,
		Owner:       owner,
		OpeningDate: "2024-03-01",
		Location:    "Sala 1",
		Days:        "segunda",
		Time:        models.DefaultClassTime,
	}))
}

func (f *fixture) student(t *testing.T, classID, id, name, phone string) {
	t.Helper()
	require.NoError(t, f.students.Create(context.Background(), testSite, classID, &models.Student{
		ID:          id,
		Name:        name,
		WhatsApp:    phone,
		CountryCode: "55",
		Status:      models.StudentActive,
	}))
}

func (f *fixture) lecture(t *testing.T, classID, id, title, date string, fragments int) {
	t.Helper()
	data := map[string]interface{}{
		"nome":      map[string]interface{}{"pt": title},
		"data":      date,
		"instrutor": "",
	}
	if fragments > 0 {
		data["totalFragmentos"] = fragments
	}
	require.NoError(t, f.lectures.Put(context.Background(), testSite, classID, id, data))
}

func (f *fixture) mark(t *testing.T, classID, lectureID string, fragment int, rec models.AttendanceRecord) {
	t.Helper()
	require.NoError(t, f.attendance.Merge(context.Background(), testSite, classID, lectureID, fragment, rec.StudentID, rec.Fields()))
}

func present(studentID, date string) models.AttendanceRecord {
	return models.AttendanceRecord{StudentID: studentID, Status: models.AttendancePresent, Date: date, Instructor: "Rui"}
}

func absent(studentID string) models.AttendanceRecord {
	return models.AttendanceRecord{StudentID: studentID, Status: models.AttendanceAbsent}
}
