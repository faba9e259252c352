package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-control-api/internal/models"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/response"
)

type auditLister interface {
	List(ctx context.Context, site models.SiteRef) ([]models.AuditLog, error)
}

// AuditHandler exposes the audit trail of a site.
type AuditHandler struct {
	logs auditLister
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(logs auditLister) *AuditHandler {
	return &AuditHandler{logs: logs}
}

// List godoc
// @Summary List the audit trail of the site
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param site query string false "Site of the state (state instructors)"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	logs, err := h.logs.List(c.Request.Context(), site)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs"))
		return
	}
	response.JSON(c, http.StatusOK, logs, map[string]interface{}{"total": len(logs)})
}
