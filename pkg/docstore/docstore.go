// Package docstore defines the hierarchical document store used by the class
// control API together with its backends.
//
// Paths alternate collection and document segments, for example
// "countries/br/states/sp/sites/centro/classes/T001". A path with an even number
// of segments addresses a document, an odd number addresses a collection.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrInvalidPath is returned for malformed document or collection paths.
	ErrInvalidPath = errors.New("docstore: invalid path")
	// ErrSubscribeUnsupported is returned by backends without a change feed.
	ErrSubscribeUnsupported = errors.New("docstore: live updates not supported by backend")
)

// Document is a stored document addressed by its full path.
type Document struct {
	ID   string
	Path string
	Data map[string]interface{}
}

// Fields returns the document payload wrapped with typed accessors.
func (d *Document) Fields() Fields {
	if d == nil {
		return Fields{}
	}
	return Fields(d.Data)
}

// Unsubscribe stops a live subscription.
type Unsubscribe func()

// Store is the document store contract.
type Store interface {
	Get(ctx context.Context, path string) (*Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	// Set creates or overwrites the document. With merge the given fields are
	// merged into the existing payload, nested maps included.
	Set(ctx context.Context, path string, data map[string]interface{}, merge bool) error
	// Update merges fields into an existing document and fails with ErrNotFound
	// when the document is missing.
	Update(ctx context.Context, path string, data map[string]interface{}) error
	Delete(ctx context.Context, path string) error
	Batch() Batch
	// Subscribe delivers the current state of the document and every later
	// change. A nil document means the document does not exist.
	Subscribe(ctx context.Context, path string, onChange func(*Document), onError func(error)) (Unsubscribe, error)
}

// Batch stages writes that are committed atomically.
type Batch interface {
	Set(path string, data map[string]interface{}, merge bool)
	Delete(path string)
	Len() int
	Commit(ctx context.Context) error
}

type opKind int

const (
	opSet opKind = iota
	opDelete
)

type batchOp struct {
	kind  opKind
	path  string
	data  map[string]interface{}
	merge bool
}

// stagedOps is the shared staging area used by the backend batches.
type stagedOps struct {
	ops []batchOp
}

func (s *stagedOps) Set(path string, data map[string]interface{}, merge bool) {
	s.ops = append(s.ops, batchOp{kind: opSet, path: path, data: copyMap(data), merge: merge})
}

func (s *stagedOps) Delete(path string) {
	s.ops = append(s.ops, batchOp{kind: opDelete, path: path})
}

func (s *stagedOps) Len() int {
	return len(s.ops)
}

func (s *stagedOps) validate() error {
	for _, op := range s.ops {
		if !IsDocument(op.path) {
			return ErrInvalidPath
		}
	}
	return nil
}
