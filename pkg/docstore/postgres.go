package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Notifier publishes and listens for document change signals. Backends
// without a native change feed use it to implement Subscribe.
type Notifier interface {
	Publish(ctx context.Context, path string) error
	Listen(ctx context.Context, path string, onSignal func()) (Unsubscribe, error)
}

const postgresSchema = `CREATE TABLE IF NOT EXISTS documents (
	path TEXT PRIMARY KEY,
	parent TEXT NOT NULL,
	id TEXT NOT NULL,
	data JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS documents_parent_idx ON documents (parent, id);`

const (
	pgSelectData = `SELECT data FROM documents WHERE path = $1`
	pgLockData   = `SELECT data FROM documents WHERE path = $1 FOR UPDATE`
	pgList       = `SELECT id, path, data FROM documents WHERE parent = $1 ORDER BY id`
	pgUpsert     = `INSERT INTO documents (path, parent, id, data, updated_at) VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	pgUpdate = `UPDATE documents SET data = $2, updated_at = NOW() WHERE path = $1`
	pgDelete = `DELETE FROM documents WHERE path = $1`
)

// PostgresStore keeps every document as a JSONB row keyed by its path.
type PostgresStore struct {
	db       *sqlx.DB
	notifier Notifier
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore)

// WithNotifier enables Subscribe through the given change notifier.
func WithNotifier(n Notifier) PostgresOption {
	return func(s *PostgresStore) {
		s.notifier = n
	}
}

type documentRow struct {
	ID   string `db:"id"`
	Path string `db:"path"`
	Data []byte `db:"data"`
}

// NewPostgresStore constructs the store.
func NewPostgresStore(db *sqlx.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// EnsureSchema creates the documents table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, path string) (*Document, error) {
	if !IsDocument(path) {
		return nil, ErrInvalidPath
	}
	path = Clean(path)
	var raw []byte
	if err := s.db.GetContext(ctx, &raw, pgSelectData, path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document %s: %w", path, err)
	}
	data, err := decodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", path, err)
	}
	return &Document{ID: Base(path), Path: path, Data: data}, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, collection string) ([]Document, error) {
	if !IsCollection(collection) {
		return nil, ErrInvalidPath
	}
	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, pgList, Clean(collection)); err != nil {
		return nil, fmt.Errorf("list documents %s: %w", collection, err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		data, err := decodeJSON(row.Data)
		if err != nil {
			return nil, fmt.Errorf("decode document %s: %w", row.Path, err)
		}
		docs = append(docs, Document{ID: row.ID, Path: row.Path, Data: data})
	}
	return docs, nil
}

// Set implements Store.
func (s *PostgresStore) Set(ctx context.Context, path string, data map[string]interface{}, merge bool) error {
	if !IsDocument(path) {
		return ErrInvalidPath
	}
	path = Clean(path)
	if !merge {
		if err := pgWrite(ctx, s.db, path, data); err != nil {
			return err
		}
		s.publish(ctx, path)
		return nil
	}
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		return pgMerge(ctx, tx, path, data, true)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, path)
	return nil
}

// Update implements Store.
func (s *PostgresStore) Update(ctx context.Context, path string, data map[string]interface{}) error {
	if !IsDocument(path) {
		return ErrInvalidPath
	}
	path = Clean(path)
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		return pgMerge(ctx, tx, path, data, false)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, path)
	return nil
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, path string) error {
	if !IsDocument(path) {
		return ErrInvalidPath
	}
	path = Clean(path)
	if _, err := s.db.ExecContext(ctx, pgDelete, path); err != nil {
		return fmt.Errorf("delete document %s: %w", path, err)
	}
	s.publish(ctx, path)
	return nil
}

// Batch implements Store. The batch runs as one transaction.
func (s *PostgresStore) Batch() Batch {
	return &postgresBatch{store: s}
}

// Subscribe implements Store through the configured Notifier.
func (s *PostgresStore) Subscribe(ctx context.Context, path string, onChange func(*Document), onError func(error)) (Unsubscribe, error) {
	if s.notifier == nil {
		return nil, ErrSubscribeUnsupported
	}
	if !IsDocument(path) {
		return nil, ErrInvalidPath
	}
	deliver := func() {
		doc, err := s.Get(ctx, path)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				onChange(nil)
				return
			}
			if onError != nil && ctx.Err() == nil {
				onError(err)
			}
			return
		}
		onChange(doc)
	}
	unsubscribe, err := s.notifier.Listen(ctx, Clean(path), deliver)
	if err != nil {
		return nil, err
	}
	deliver()
	return unsubscribe, nil
}

func (s *PostgresStore) publish(ctx context.Context, path string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Publish(ctx, path)
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func pgWrite(ctx context.Context, exec sqlx.ExecerContext, path string, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", path, err)
	}
	if _, err := exec.ExecContext(ctx, pgUpsert, path, Parent(path), Base(path), payload); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	return nil
}

// pgMerge merges data into the locked row. With upsert a missing row is
// created, otherwise ErrNotFound is returned.
func pgMerge(ctx context.Context, tx *sqlx.Tx, path string, data map[string]interface{}, upsert bool) error {
	var raw []byte
	err := tx.GetContext(ctx, &raw, pgLockData, path)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if !upsert {
			return ErrNotFound
		}
		return pgWrite(ctx, tx, path, data)
	case err != nil:
		return fmt.Errorf("lock document %s: %w", path, err)
	}
	current, err := decodeJSON(raw)
	if err != nil {
		return fmt.Errorf("decode document %s: %w", path, err)
	}
	merged := mergeInto(current, data)
	payload, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, pgUpdate, path, payload); err != nil {
		return fmt.Errorf("update document %s: %w", path, err)
	}
	return nil
}

func decodeJSON(raw []byte) (map[string]interface{}, error) {
	data := map[string]interface{}{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

type postgresBatch struct {
	stagedOps
	store *PostgresStore
}

func (b *postgresBatch) Commit(ctx context.Context) error {
	if err := b.validate(); err != nil {
		return err
	}
	if len(b.ops) == 0 {
		return nil
	}
	err := b.store.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, op := range b.ops {
			path := Clean(op.path)
			switch op.kind {
			case opSet:
				if op.merge {
					if err := pgMerge(ctx, tx, path, op.data, true); err != nil {
						return err
					}
					continue
				}
				if err := pgWrite(ctx, tx, path, op.data); err != nil {
					return err
				}
			case opDelete:
				if _, err := tx.ExecContext(ctx, pgDelete, path); err != nil {
					return fmt.Errorf("delete document %s: %w", path, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, op := range b.ops {
		b.store.publish(ctx, Clean(op.path))
	}
	b.ops = nil
	return nil
}
