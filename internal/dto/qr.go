package dto

import "time"

// QRSessionResponse is returned when a handoff session is created.
type QRSessionResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	QRURL     string    `json:"qr_url"`
	EventsURL string    `json:"events_url"`
}

// CompleteQRSessionRequest is posted by the already authenticated device. The
// token is taken from the caller's own bearer token when omitted.
type CompleteQRSessionRequest struct {
	Token string `json:"token"`
}
