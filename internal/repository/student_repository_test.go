package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/crypto"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

var testSite = models.SiteRef{Country: "br", State: "sp", Site: "centro"}

func TestStudentRepositoryEncryptsWhatsApp(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	cipher, err := crypto.New(key)
	require.NoError(t, err)

	store := docstore.NewMemoryStore()
	repo := NewStudentRepository(store, cipher)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testSite, "T001", &models.Student{ID: "A001", Name: "Ana", WhatsApp: "11999990000", CountryCode: "55"}))

	doc, err := store.Get(ctx, StudentPath(testSite, "T001", "A001"))
	require.NoError(t, err)
	stored := doc.Fields().String("whatsapp")
	assert.True(t, crypto.IsEncrypted(stored))
	assert.Equal(t, "ativo", doc.Fields().String("status"))

	student, err := repo.FindByID(ctx, testSite, "T001", "A001")
	require.NoError(t, err)
	assert.Equal(t, "11999990000", student.WhatsApp)

	require.NoError(t, repo.Update(ctx, testSite, "T001", "A001", map[string]interface{}{"whatsapp": "11888880000"}))
	students, err := repo.List(ctx, testSite, "T001")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "11888880000", students[0].WhatsApp)
}

func TestStudentRepositoryNotFound(t *testing.T) {
	repo := NewStudentRepository(docstore.NewMemoryStore(), nil)
	_, err := repo.FindByID(context.Background(), testSite, "T001", "missing")
	require.True(t, errors.Is(err, docstore.ErrNotFound))
}

func TestAttendanceRepositoryFindMissingIsNil(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := NewAttendanceRepository(store)
	ctx := context.Background()

	rec, err := repo.Find(ctx, testSite, "T001", "01", 0, "A001")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, repo.Merge(ctx, testSite, "T001", "01", 2, "A001", map[string]interface{}{"alunoId": "A001", "status": "presente"}))
	require.NoError(t, repo.Merge(ctx, testSite, "T001", "01", 2, "A001", map[string]interface{}{"atraso": true}))

	rec, err = repo.Find(ctx, testSite, "T001", "01", 2, "A001")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.AttendancePresent, rec.Status)
	assert.True(t, rec.Late)

	byStudent, err := repo.ListByStudent(ctx, testSite, "T001", "01", 2)
	require.NoError(t, err)
	assert.Contains(t, byStudent, "A001")

	none, err := repo.List(ctx, testSite, "T001", "01", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
