package docstore

import (
	"context"
	"time"
)

// Observer receives per-operation timings.
type Observer interface {
	ObserveStoreOperation(op string, duration time.Duration, err error)
}

// Instrumented decorates a Store with timing callbacks.
type Instrumented struct {
	next     Store
	observer Observer
}

// NewInstrumented wraps next. A nil observer returns next unchanged.
func NewInstrumented(next Store, observer Observer) Store {
	if observer == nil {
		return next
	}
	return &Instrumented{next: next, observer: observer}
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	if err == ErrNotFound {
		err = nil
	}
	s.observer.ObserveStoreOperation(op, time.Since(start), err)
}

// Get implements Store.
func (s *Instrumented) Get(ctx context.Context, path string) (*Document, error) {
	start := time.Now()
	doc, err := s.next.Get(ctx, path)
	s.observe("get", start, err)
	return doc, err
}

// List implements Store.
func (s *Instrumented) List(ctx context.Context, collection string) ([]Document, error) {
	start := time.Now()
	docs, err := s.next.List(ctx, collection)
	s.observe("list", start, err)
	return docs, err
}

// Set implements Store.
func (s *Instrumented) Set(ctx context.Context, path string, data map[string]interface{}, merge bool) error {
	start := time.Now()
	err := s.next.Set(ctx, path, data, merge)
	s.observe("set", start, err)
	return err
}

// Update implements Store.
func (s *Instrumented) Update(ctx context.Context, path string, data map[string]interface{}) error {
	start := time.Now()
	err := s.next.Update(ctx, path, data)
	s.observe("update", start, err)
	return err
}

// Delete implements Store.
func (s *Instrumented) Delete(ctx context.Context, path string) error {
	start := time.Now()
	err := s.next.Delete(ctx, path)
	s.observe("delete", start, err)
	return err
}

// Batch implements Store.
func (s *Instrumented) Batch() Batch {
	return &instrumentedBatch{Batch: s.next.Batch(), parent: s}
}

// Subscribe implements Store.
func (s *Instrumented) Subscribe(ctx context.Context, path string, onChange func(*Document), onError func(error)) (Unsubscribe, error) {
	return s.next.Subscribe(ctx, path, onChange, onError)
}

type instrumentedBatch struct {
	Batch
	parent *Instrumented
}

func (b *instrumentedBatch) Commit(ctx context.Context) error {
	start := time.Now()
	err := b.Batch.Commit(ctx)
	b.parent.observe("batch_commit", start, err)
	return err
}
