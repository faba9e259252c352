package models

import (
	"time"

	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// QRSessionStatus is the handoff session lifecycle.
type QRSessionStatus string

const (
	QRWaiting   QRSessionStatus = "waiting"
	QRCompleted QRSessionStatus = "completed"
	QRExpired   QRSessionStatus = "expired"
)

// QRSession lets an authenticated device hand its session to a new one.
type QRSession struct {
	ID            string          `json:"id"`
	Status        QRSessionStatus `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
	EncryptedData string          `json:"-"`
	CompletedAt   time.Time       `json:"completed_at,omitempty"`
}

// Expired reports whether now is past the expiry.
func (s QRSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// QRSessionFromDocument decodes a session document.
func QRSessionFromDocument(doc docstore.Document) QRSession {
	f := doc.Fields()
	return QRSession{
		ID:            doc.ID,
		Status:        QRSessionStatus(f.String("status")),
		CreatedAt:     f.Time("createdAt"),
		ExpiresAt:     f.Time("expiresAt"),
		EncryptedData: f.String("encryptedData"),
		CompletedAt:   f.Time("completedAt"),
	}
}

// QRHandoffPayload is what the authenticated device passes to the new one.
type QRHandoffPayload struct {
	CPF     string `json:"cpf"`
	Token   string `json:"token"`
	Country string `json:"country"`
	State   string `json:"state"`
	Site    string `json:"site"`
	IsToken bool   `json:"isToken"`
}

// QREvent is streamed to the device waiting on a session.
type QREvent struct {
	Type       string         `json:"type"`
	SessionID  string         `json:"session_id"`
	Login      *LoginResponse `json:"login,omitempty"`
	NewSession *QRSession     `json:"new_session,omitempty"`
	Message    string         `json:"message,omitempty"`
}

// QR event types.
const (
	QREventWaiting   = "waiting"
	QREventCompleted = "completed"
	QREventExpired   = "expired"
	QREventError     = "error"
)

// CheckInPayload is encoded into the self check-in link of a lecture.
type CheckInPayload struct {
	Country      string `json:"country"`
	State        string `json:"state"`
	Site         string `json:"site"`
	ClassID      string `json:"classId"`
	LectureID    string `json:"lectureId"`
	Fragment     int    `json:"fragment,omitempty"`
	LectureTitle string `json:"lectureTitle"`
	Instructor   string `json:"instructor"`
}

// SiteRef returns the site of the check-in.
func (p CheckInPayload) SiteRef() SiteRef {
	return SiteRef{Country: p.Country, State: p.State, Site: p.Site}
}
