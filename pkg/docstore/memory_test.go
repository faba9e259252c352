package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "classes/T001")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "classes/T001", map[string]interface{}{"local": "Centro", "nome": map[string]interface{}{"pt": "Aula"}}, false))
	require.NoError(t, store.Set(ctx, "classes/T001", map[string]interface{}{"horario": "19:00", "nome": map[string]interface{}{"en": "Class"}}, true))

	doc, err := store.Get(ctx, "classes/T001")
	require.NoError(t, err)
	assert.Equal(t, "T001", doc.ID)
	assert.Equal(t, "Centro", doc.Fields().String("local"))
	assert.Equal(t, "19:00", doc.Fields().String("horario"))
	assert.Equal(t, "Aula", doc.Fields().Map("nome").String("pt"))
	assert.Equal(t, "Class", doc.Fields().Map("nome").String("en"))

	require.NoError(t, store.Set(ctx, "classes/T001", map[string]interface{}{"local": "Norte"}, false))
	doc, err = store.Get(ctx, "classes/T001")
	require.NoError(t, err)
	assert.False(t, doc.Fields().Has("horario"))

	require.ErrorIs(t, store.Update(ctx, "classes/T404", map[string]interface{}{"x": 1}), ErrNotFound)
	require.NoError(t, store.Update(ctx, "classes/T001", map[string]interface{}{"tema": "Gnosis"}))

	require.NoError(t, store.Delete(ctx, "classes/T001"))
	require.NoError(t, store.Delete(ctx, "classes/T001"))
	_, err = store.Get(ctx, "classes/T001")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	data := map[string]interface{}{"nome": "Ana"}
	require.NoError(t, store.Set(ctx, "students/A001", data, false))
	data["nome"] = "changed"

	doc, err := store.Get(ctx, "students/A001")
	require.NoError(t, err)
	doc.Data["nome"] = "mutated"

	again, err := store.Get(ctx, "students/A001")
	require.NoError(t, err)
	assert.Equal(t, "Ana", again.Fields().String("nome"))
}

func TestMemoryStoreListIsScopedAndOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "classes/T002", nil, false))
	require.NoError(t, store.Set(ctx, "classes/T001", nil, false))
	require.NoError(t, store.Set(ctx, "classes/T001/students/A001", nil, false))

	docs, err := store.List(ctx, "classes")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "T001", docs[0].ID)
	assert.Equal(t, "T002", docs[1].ID)

	_, err = store.List(ctx, "classes/T001")
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestMemoryStoreDeleteKeepsSubcollections(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "lectures/01", nil, false))
	require.NoError(t, store.Set(ctx, "lectures/01/attendance/A001", map[string]interface{}{"status": "presente"}, false))

	require.NoError(t, store.Delete(ctx, "lectures/01"))
	docs, err := store.List(ctx, "lectures/01/attendance")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestMemoryBatchCommit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "a/1", map[string]interface{}{"v": 1}, false))

	batch := store.Batch()
	batch.Set("b/1", map[string]interface{}{"v": 1}, false)
	batch.Delete("a/1")
	assert.Equal(t, 2, batch.Len())

	_, err := store.Get(ctx, "b/1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, batch.Commit(ctx))
	_, err = store.Get(ctx, "a/1")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "b/1")
	require.NoError(t, err)
}

func TestMemoryBatchRejectsInvalidPathAtomically(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	batch := store.Batch()
	batch.Set("b/1", nil, false)
	batch.Delete("b")

	require.ErrorIs(t, batch.Commit(ctx), ErrInvalidPath)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreSubscribe(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var seen []*Document
	unsubscribe, err := store.Subscribe(ctx, "sessions/s1", func(doc *Document) {
		seen = append(seen, doc)
	}, nil)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "sessions/s1", map[string]interface{}{"status": "waiting"}, false))
	require.NoError(t, store.Update(ctx, "sessions/s1", map[string]interface{}{"status": "completed"}))
	require.NoError(t, store.Delete(ctx, "sessions/s1"))
	unsubscribe()
	require.NoError(t, store.Set(ctx, "sessions/s1", nil, false))

	require.Len(t, seen, 4)
	assert.Nil(t, seen[0])
	assert.Equal(t, "waiting", seen[1].Fields().String("status"))
	assert.Equal(t, "completed", seen[2].Fields().String("status"))
	assert.Nil(t, seen[3])
}
