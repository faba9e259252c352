package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

func TestAttendanceListByStudentKeysByDocumentID(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := NewAttendanceRepository(store)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, AttendancePath(testSite, "T001", "01", 0, "A001"), map[string]interface{}{
		"alunoId": "A009",
		"status":  models.AttendancePresent,
	}, false))
	require.NoError(t, store.Set(ctx, AttendancePath(testSite, "T001", "01", 0, "A002"), map[string]interface{}{
		"status": models.AttendanceAbsent,
	}, false))

	byStudent, err := repo.ListByStudent(ctx, testSite, "T001", "01", 0)
	require.NoError(t, err)
	require.Len(t, byStudent, 2)
	assert.Equal(t, models.AttendancePresent, byStudent["A001"].Status)
	assert.Equal(t, "A001", byStudent["A001"].StudentID)
	assert.Equal(t, models.AttendanceAbsent, byStudent["A002"].Status)
	_, stray := byStudent["A009"]
	assert.False(t, stray)

	rec, err := repo.Find(ctx, testSite, "T001", "01", 0, "A001")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "A001", rec.StudentID)
}
