package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
)

func seedTransfer(t *testing.T, f *fixture) {
	t.Helper()
	f.class(t, "T001", "Rui")
	f.class(t, "T002", "Marta")
	f.student(t, "T001", "A001", "Ana", "11999990001")
	f.lecture(t, "T001", "01", "Introdução", "2024-03-04", 0)
	f.lecture(t, "T001", "02", "Os sonhos", "2024-03-11", 2)
	f.lecture(t, "T002", "01", "Introdução", "", 0)
	f.mark(t, "T001", "01", 0, present("A001", "2024-03-04"))
	f.mark(t, "T001", "02", 1, present("A001", "2024-03-11"))
}

func newTestTransferService(f *fixture, store docstore.Store) *TransferService {
	return NewTransferService(store, f.classes, f.students, f.lectures, f.attendance, nil, nil, nil)
}

func TestTransferMovesStudentAndReportsDroppedLectures(t *testing.T) {
	f := newFixture(t)
	seedTransfer(t, f)
	ctx := context.Background()

	result, err := newTestTransferService(f, f.store).Transfer(ctx, testSite, "T001", "A001", "T002")
	require.NoError(t, err)
	assert.Equal(t, []string{"01"}, result.CopiedLectures)
	assert.Equal(t, []string{"02"}, result.DroppedLectures)

	moved, err := f.students.FindByID(ctx, testSite, "T002", "A001")
	require.NoError(t, err)
	assert.Equal(t, "Ana", moved.Name)
	_, err = f.students.FindByID(ctx, testSite, "T001", "A001")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	rec, err := f.attendance.Find(ctx, testSite, "T002", "01", 0, "A001")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.AttendancePresent, rec.Status)
	assert.Equal(t, "2024-03-04", rec.Date)

	for _, frag := range []int{0, 1} {
		lectureID := "01"
		if frag > 0 {
			lectureID = "02"
		}
		left, err := f.attendance.Find(ctx, testSite, "T001", lectureID, frag, "A001")
		require.NoError(t, err)
		assert.Nil(t, left)
	}
}

func TestTransferReallocatesIdTakenInTargetClass(t *testing.T) {
	f := newFixture(t)
	seedTransfer(t, f)
	f.student(t, "T002", "A001", "Carlos", "11999990009")
	f.mark(t, "T002", "01", 0, absent("A001"))
	ctx := context.Background()

	result, err := newTestTransferService(f, f.store).Transfer(ctx, testSite, "T001", "A001", "T002")
	require.NoError(t, err)
	assert.Equal(t, "A001", result.StudentID)
	assert.Equal(t, "A002", result.TargetStudentID)

	carlos, err := f.students.FindByID(ctx, testSite, "T002", "A001")
	require.NoError(t, err)
	assert.Equal(t, "Carlos", carlos.Name)
	kept, err := f.attendance.Find(ctx, testSite, "T002", "01", 0, "A001")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, models.AttendanceAbsent, kept.Status)

	ana, err := f.students.FindByID(ctx, testSite, "T002", "A002")
	require.NoError(t, err)
	assert.Equal(t, "Ana", ana.Name)
	assert.Equal(t, "A002", ana.ID)
	rec, err := f.attendance.Find(ctx, testSite, "T002", "01", 0, "A002")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "A002", rec.StudentID)
	assert.Equal(t, models.AttendancePresent, rec.Status)

	count, err := f.students.Count(ctx, testSite, "T002")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTransferCommitFailureLeavesSourceIntact(t *testing.T) {
	f := newFixture(t)
	seedTransfer(t, f)
	ctx := context.Background()
	faulty := newFaultStore(f.store)
	faulty.commitErr = errInjected

	_, err := newTestTransferService(f, faulty).Transfer(ctx, testSite, "T001", "A001", "T002")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBatchAborted.Code, appErrors.FromError(err).Code)

	_, err = f.students.FindByID(ctx, testSite, "T001", "A001")
	require.NoError(t, err)
	_, err = f.students.FindByID(ctx, testSite, "T002", "A001")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	rec, err := f.attendance.Find(ctx, testSite, "T001", "02", 1, "A001")
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestTransferRejectsSameClassAndMissingTarget(t *testing.T) {
	f := newFixture(t)
	seedTransfer(t, f)
	svc := newTestTransferService(f, f.store)

	_, err := svc.Transfer(context.Background(), testSite, "T001", "A001", "T001")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Transfer(context.Background(), testSite, "T001", "A001", "T999")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAvailableClassesExcludesCurrent(t *testing.T) {
	f := newFixture(t)
	seedTransfer(t, f)
	f.class(t, "T003", "Leo")
	f.student(t, "T003", "A001", "Caio", "11999990003")
	f.student(t, "T003", "A002", "Dora", "11999990004")

	classes, err := newTestTransferService(f, f.store).AvailableClasses(context.Background(), testSite, "T001")
	require.NoError(t, err)
	require.Len(t, classes, 2)
	counts := map[string]int{}
	for _, c := range classes {
		counts[c.ID] = c.StudentCount
	}
	assert.Equal(t, map[string]int{"T002": 0, "T003": 2}, counts)
}
