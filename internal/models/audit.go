package models

import (
	"time"

	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// Audit actions recorded for roster changes that cannot be undone from the UI.
const (
	AuditActionClassDelete     = "class.delete"
	AuditActionStudentDelete   = "student.delete"
	AuditActionStudentDisable  = "student.disable"
	AuditActionStudentEnable   = "student.enable"
	AuditActionStudentTransfer = "student.transfer"
	AuditActionMakeUpRemove    = "makeup.remove"
)

// AuditLog records who changed what within a site.
type AuditLog struct {
	ID         string                 `json:"id"`
	Actor      string                 `json:"actor"`
	ActorName  string                 `json:"actor_name,omitempty"`
	Action     string                 `json:"action"`
	Resource   string                 `json:"resource"`
	ResourceID string                 `json:"resource_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	IPAddress  string                 `json:"ip_address"`
	UserAgent  string                 `json:"user_agent"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Fields encodes the entry for storage.
func (a AuditLog) Fields() map[string]interface{} {
	out := map[string]interface{}{
		"actor":      a.Actor,
		"actorName":  a.ActorName,
		"action":     a.Action,
		"resource":   a.Resource,
		"resourceId": a.ResourceID,
		"ipAddress":  a.IPAddress,
		"userAgent":  a.UserAgent,
		"createdAt":  a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if len(a.Details) > 0 {
		out["details"] = a.Details
	}
	return out
}

// AuditLogFromDocument decodes an audit document.
func AuditLogFromDocument(doc docstore.Document) AuditLog {
	f := doc.Fields()
	var details map[string]interface{}
	if f.Has("details") {
		details = f.Map("details")
	}
	return AuditLog{
		ID:         doc.ID,
		Actor:      f.String("actor"),
		ActorName:  f.String("actorName"),
		Action:     f.String("action"),
		Resource:   f.String("resource"),
		ResourceID: f.String("resourceId"),
		Details:    details,
		IPAddress:  f.String("ipAddress"),
		UserAgent:  f.String("userAgent"),
		CreatedAt:  f.Time("createdAt"),
	}
}
