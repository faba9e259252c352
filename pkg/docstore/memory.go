package docstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. Like the hosted backend, deleting a
// document leaves its subcollections in place.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]map[string]interface{}
	subs    map[string]map[int]func(*Document)
	nextSub int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]interface{}),
		subs: make(map[string]map[int]func(*Document)),
	}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, path string) (*Document, error) {
	if !IsDocument(path) {
		return nil, ErrInvalidPath
	}
	path = Clean(path)
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: Base(path), Path: path, Data: copyMap(data)}, nil
}

// List implements Store. Documents are ordered by id.
func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	if !IsCollection(collection) {
		return nil, ErrInvalidPath
	}
	collection = Clean(collection)
	s.mu.RLock()
	docs := make([]Document, 0)
	for path, data := range s.docs {
		if Parent(path) == collection {
			docs = append(docs, Document{ID: Base(path), Path: path, Data: copyMap(data)})
		}
	}
	s.mu.RUnlock()
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, path string, data map[string]interface{}, merge bool) error {
	if !IsDocument(path) {
		return ErrInvalidPath
	}
	path = Clean(path)
	s.mu.Lock()
	s.applySet(path, data, merge)
	notify := s.snapshotFor(path)
	s.mu.Unlock()
	notify()
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, path string, data map[string]interface{}) error {
	if !IsDocument(path) {
		return ErrInvalidPath
	}
	path = Clean(path)
	s.mu.Lock()
	if _, ok := s.docs[path]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.applySet(path, data, true)
	notify := s.snapshotFor(path)
	s.mu.Unlock()
	notify()
	return nil
}

// Delete implements Store. Deleting a missing document is not an error.
func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	if !IsDocument(path) {
		return ErrInvalidPath
	}
	path = Clean(path)
	s.mu.Lock()
	delete(s.docs, path)
	notify := s.snapshotFor(path)
	s.mu.Unlock()
	notify()
	return nil
}

// Batch implements Store.
func (s *MemoryStore) Batch() Batch {
	return &memoryBatch{store: s}
}

// Subscribe implements Store.
func (s *MemoryStore) Subscribe(ctx context.Context, path string, onChange func(*Document), onError func(error)) (Unsubscribe, error) {
	if !IsDocument(path) {
		return nil, ErrInvalidPath
	}
	path = Clean(path)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.subs[path] == nil {
		s.subs[path] = make(map[int]func(*Document))
	}
	s.subs[path][id] = onChange
	var current *Document
	if data, ok := s.docs[path]; ok {
		current = &Document{ID: Base(path), Path: path, Data: copyMap(data)}
	}
	s.mu.Unlock()

	onChange(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[path], id)
			if len(s.subs[path]) == 0 {
				delete(s.subs, path)
			}
			s.mu.Unlock()
		})
	}, nil
}

// Len reports the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *MemoryStore) applySet(path string, data map[string]interface{}, merge bool) {
	if merge {
		s.docs[path] = mergeInto(s.docs[path], data)
		return
	}
	s.docs[path] = copyMap(data)
	if s.docs[path] == nil {
		s.docs[path] = map[string]interface{}{}
	}
}

// snapshotFor captures subscribers and the current state while the lock is
// held and returns a func delivering it after the lock is released.
func (s *MemoryStore) snapshotFor(path string) func() {
	listeners := s.subs[path]
	if len(listeners) == 0 {
		return func() {}
	}
	callbacks := make([]func(*Document), 0, len(listeners))
	for _, cb := range listeners {
		callbacks = append(callbacks, cb)
	}
	var doc *Document
	if data, ok := s.docs[path]; ok {
		doc = &Document{ID: Base(path), Path: path, Data: copyMap(data)}
	}
	return func() {
		for _, cb := range callbacks {
			var delivered *Document
			if doc != nil {
				delivered = &Document{ID: doc.ID, Path: doc.Path, Data: copyMap(doc.Data)}
			}
			cb(delivered)
		}
	}
}

type memoryBatch struct {
	stagedOps
	store *MemoryStore
}

func (b *memoryBatch) Commit(ctx context.Context) error {
	if err := b.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s := b.store
	s.mu.Lock()
	notifiers := make([]func(), 0, len(b.ops))
	for _, op := range b.ops {
		path := Clean(op.path)
		switch op.kind {
		case opSet:
			s.applySet(path, op.data, op.merge)
		case opDelete:
			delete(s.docs, path)
		}
	}
	for _, op := range b.ops {
		notifiers = append(notifiers, s.snapshotFor(Clean(op.path)))
	}
	s.mu.Unlock()
	for _, notify := range notifiers {
		notify()
	}
	b.ops = nil
	return nil
}
