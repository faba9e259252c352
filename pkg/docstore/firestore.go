package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is the hosted Store backend.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an initialised Firestore client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) doc(path string) (*firestore.DocumentRef, error) {
	if !IsDocument(path) {
		return nil, ErrInvalidPath
	}
	ref := s.client.Doc(Clean(path))
	if ref == nil {
		return nil, ErrInvalidPath
	}
	return ref, nil
}

// Get implements Store.
func (s *FirestoreStore) Get(ctx context.Context, path string) (*Document, error) {
	ref, err := s.doc(path)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("firestore get %s: %w", path, err)
	}
	return &Document{ID: ref.ID, Path: Clean(path), Data: snap.Data()}, nil
}

// List implements Store.
func (s *FirestoreStore) List(ctx context.Context, collection string) ([]Document, error) {
	if !IsCollection(collection) {
		return nil, ErrInvalidPath
	}
	coll := s.client.Collection(Clean(collection))
	if coll == nil {
		return nil, ErrInvalidPath
	}
	iter := coll.Documents(ctx)
	defer iter.Stop()

	docs := make([]Document, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list %s: %w", collection, err)
		}
		docs = append(docs, Document{
			ID:   snap.Ref.ID,
			Path: Join(collection, snap.Ref.ID),
			Data: snap.Data(),
		})
	}
	return docs, nil
}

// Set implements Store.
func (s *FirestoreStore) Set(ctx context.Context, path string, data map[string]interface{}, merge bool) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	if merge {
		_, err = ref.Set(ctx, data, firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, data)
	}
	if err != nil {
		return fmt.Errorf("firestore set %s: %w", path, err)
	}
	return nil
}

// Update implements Store.
func (s *FirestoreStore) Update(ctx context.Context, path string, data map[string]interface{}) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	updates := make([]firestore.Update, 0, len(data))
	for key, value := range data {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{key}, Value: value})
	}
	if len(updates) == 0 {
		if _, err := s.Get(ctx, path); err != nil {
			return err
		}
		return nil
	}
	if _, err := ref.Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("firestore update %s: %w", path, err)
	}
	return nil
}

// Delete implements Store.
func (s *FirestoreStore) Delete(ctx context.Context, path string) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("firestore delete %s: %w", path, err)
	}
	return nil
}

// Batch implements Store.
func (s *FirestoreStore) Batch() Batch {
	return &firestoreBatch{store: s}
}

// Subscribe implements Store using document snapshots.
func (s *FirestoreStore) Subscribe(ctx context.Context, path string, onChange func(*Document), onError func(error)) (Unsubscribe, error) {
	ref, err := s.doc(path)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	snapshots := ref.Snapshots(ctx)
	go func() {
		defer snapshots.Stop()
		for {
			snap, err := snapshots.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				if onError != nil {
					onError(fmt.Errorf("firestore snapshots %s: %w", path, err))
				}
				return
			}
			if !snap.Exists() {
				onChange(nil)
				continue
			}
			onChange(&Document{ID: ref.ID, Path: Clean(path), Data: snap.Data()})
		}
	}()
	return Unsubscribe(cancel), nil
}

type firestoreBatch struct {
	stagedOps
	store *FirestoreStore
}

func (b *firestoreBatch) Commit(ctx context.Context) error {
	if err := b.validate(); err != nil {
		return err
	}
	if len(b.ops) == 0 {
		return nil
	}
	batch := b.store.client.Batch()
	for _, op := range b.ops {
		ref := b.store.client.Doc(Clean(op.path))
		switch op.kind {
		case opSet:
			data := op.data
			if data == nil {
				data = map[string]interface{}{}
			}
			if op.merge {
				batch.Set(ref, data, firestore.MergeAll)
			} else {
				batch.Set(ref, data)
			}
		case opDelete:
			batch.Delete(ref)
		}
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("firestore batch commit: %w", err)
	}
	b.ops = nil
	return nil
}
