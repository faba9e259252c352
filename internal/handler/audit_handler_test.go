package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-control-api/internal/models"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
)

type fakeAuditLister struct {
	site models.SiteRef
}

func (f *fakeAuditLister) List(_ context.Context, site models.SiteRef) ([]models.AuditLog, error) {
	f.site = site
	return []models.AuditLog{{ID: "a1", Actor: "52998224725", Action: models.AuditActionClassDelete, Resource: "class", ResourceID: "T001"}}, nil
}

func TestAuditHandlerListsSiteTrail(t *testing.T) {
	lister := &fakeAuditLister{}
	r := newTestRouter(instructorClaims(models.RoleSiteInstructor))
	r.GET("/audit-logs", NewAuditHandler(lister).List)

	rec := serve(r, http.MethodGet, "/audit-logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []models.AuditLog
	env := decodeEnvelope(t, rec, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "T001", logs[0].ResourceID)
	assert.EqualValues(t, 1, env.Meta["total"])
	assert.Equal(t, centro, lister.site)

	rec = serve(r, http.MethodGet, "/audit-logs?site=norte", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(t, rec))
}
