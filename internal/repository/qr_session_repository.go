package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// QRSessionRepository persists QR handoff sessions.
type QRSessionRepository struct {
	store docstore.Store
}

// NewQRSessionRepository constructs a QRSessionRepository.
func NewQRSessionRepository(store docstore.Store) *QRSessionRepository {
	return &QRSessionRepository{store: store}
}

// Create writes a new session document.
func (r *QRSessionRepository) Create(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := r.store.Set(ctx, docstore.Join(QRSessionsCollection, id), fields, false); err != nil {
		return fmt.Errorf("create qr session %s: %w", id, err)
	}
	return nil
}

// FindByID returns the session or docstore.ErrNotFound.
func (r *QRSessionRepository) FindByID(ctx context.Context, id string) (*models.QRSession, error) {
	doc, err := r.store.Get(ctx, docstore.Join(QRSessionsCollection, id))
	if err != nil {
		return nil, fmt.Errorf("get qr session %s: %w", id, err)
	}
	session := models.QRSessionFromDocument(*doc)
	return &session, nil
}

// Update merges fields into an existing session.
func (r *QRSessionRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := r.store.Update(ctx, docstore.Join(QRSessionsCollection, id), fields); err != nil {
		return fmt.Errorf("update qr session %s: %w", id, err)
	}
	return nil
}

// Delete removes a session.
func (r *QRSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, docstore.Join(QRSessionsCollection, id)); err != nil {
		return fmt.Errorf("delete qr session %s: %w", id, err)
	}
	return nil
}

// Watch delivers the session on every change. A nil session means it was deleted.
func (r *QRSessionRepository) Watch(ctx context.Context, id string, onChange func(*models.QRSession), onError func(error)) (docstore.Unsubscribe, error) {
	return r.store.Subscribe(ctx, docstore.Join(QRSessionsCollection, id), func(doc *docstore.Document) {
		if doc == nil {
			onChange(nil)
			return
		}
		session := models.QRSessionFromDocument(*doc)
		onChange(&session)
	}, onError)
}
