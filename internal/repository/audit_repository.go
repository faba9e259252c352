package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// AuditRepository persists the audit trail of each site.
type AuditRepository struct {
	store docstore.Store
	now   func() time.Time
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(store docstore.Store) *AuditRepository {
	return &AuditRepository{store: store, now: time.Now}
}

// CreateAuditLog stores the entry, assigning its id and timestamp when unset.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, site models.SiteRef, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = r.now().UTC()
	}
	if err := r.store.Set(ctx, AuditLogPath(site, log.ID), log.Fields(), false); err != nil {
		return fmt.Errorf("create audit log %s: %w", log.Action, err)
	}
	return nil
}

// List returns the audit trail of a site, newest first.
func (r *AuditRepository) List(ctx context.Context, site models.SiteRef) ([]models.AuditLog, error) {
	docs, err := r.store.List(ctx, AuditLogsCollection(site))
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	logs := make([]models.AuditLog, 0, len(docs))
	for _, doc := range docs {
		logs = append(logs, models.AuditLogFromDocument(doc))
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
	return logs, nil
}
