package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-control-api/internal/models"
)

// AuditWriter stores audit entries of a site.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, site models.SiteRef, log *models.AuditLog) error
}

// Audit creates a middleware that records an audit entry after a successful
// request. idParam names the route parameter identifying the resource.
func Audit(repo AuditWriter, action, resource, idParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}
		value, ok := c.Get(ContextUserKey)
		if !ok {
			return
		}
		claims, ok := value.(*models.JWTClaims)
		if !ok {
			return
		}
		site := claims.SiteRef()
		if override := strings.TrimSpace(c.Query("site")); override != "" {
			site.Site = override
		}

		params := make(map[string]interface{}, len(c.Params))
		for _, p := range c.Params {
			params[p.Key] = p.Value
		}
		_ = repo.CreateAuditLog(c.Request.Context(), site, &models.AuditLog{
			Actor:      claims.CPF,
			ActorName:  claims.Name,
			Action:     action,
			Resource:   resource,
			ResourceID: c.Param(idParam),
			Details: map[string]interface{}{
				"path":       c.FullPath(),
				"method":     c.Request.Method,
				"status":     c.Writer.Status(),
				"latency_ms": time.Since(start).Milliseconds(),
				"params":     params,
			},
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
	}
}
