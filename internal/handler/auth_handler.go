package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/middleware"
	"github.com/noah-isme/class-control-api/internal/models"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

type qrAuthService interface {
	CreateSession(ctx context.Context) (*models.QRSession, error)
	CompleteSession(ctx context.Context, id string, payload models.QRHandoffPayload) error
	SessionQR(ctx context.Context, id string) ([]byte, error)
	Watch(ctx context.Context, id string, emit func(models.QREvent)) error
}

// AuthHandler wires HTTP endpoints to the auth and QR handoff services.
type AuthHandler struct {
	service authService
	qr      qrAuthService
	prefix  string
}

// NewAuthHandler creates a new handler. prefix is the API prefix used to
// build the session resource URLs.
func NewAuthHandler(svc authService, qr qrAuthService, prefix string) *AuthHandler {
	return &AuthHandler{service: svc, qr: qr, prefix: strings.TrimRight(prefix, "/")}
}

// Login godoc
// @Summary Authenticate instructor
// @Description Authenticate an instructor by CPF and password at the chosen site
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// CreateQRSession godoc
// @Summary Start a QR login handoff
// @Tags Authentication
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /auth/qr/sessions [post]
func (h *AuthHandler) CreateQRSession(c *gin.Context) {
	session, err := h.qr.CreateSession(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, h.sessionResponse(session))
}

// SessionQR godoc
// @Summary QR code of a handoff session
// @Tags Authentication
// @Produce png
// @Param id path string true "Session ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /auth/qr/sessions/{id}/qr.png [get]
func (h *AuthHandler) SessionQR(c *gin.Context) {
	png, err := h.qr.SessionQR(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// SessionEvents godoc
// @Summary Stream handoff session events
// @Description Server-sent events: waiting, completed (with the new login), expired (with a replacement session) or error
// @Tags Authentication
// @Produce text/event-stream
// @Param id path string true "Session ID"
// @Success 200 {string} string "event stream"
// @Router /auth/qr/sessions/{id}/events [get]
func (h *AuthHandler) SessionEvents(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events := make(chan models.QREvent, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.qr.Watch(ctx, c.Param("id"), func(event models.QREvent) {
			select {
			case events <- event:
			case <-ctx.Done():
			}
		})
	}()

	write := func(event models.QREvent) bool {
		if event.NewSession != nil {
			c.SSEvent(event.Type, gin.H{
				"session_id":  event.SessionID,
				"new_session": h.sessionResponse(event.NewSession),
			})
			return false
		}
		c.SSEvent(event.Type, event)
		return event.Type == models.QREventWaiting
	}

	c.Header("Cache-Control", "no-store")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event := <-events:
			return write(event)
		case <-done:
			for {
				select {
				case event := <-events:
					if !write(event) {
						return false
					}
				default:
					return false
				}
			}
		}
	})
}

// CompleteQRSession godoc
// @Summary Hand the current login to a waiting device
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param payload body dto.CompleteQRSessionRequest false "Token override"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /auth/qr/sessions/{id}/complete [post]
func (h *AuthHandler) CompleteQRSession(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CompleteQRSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		token = middleware.BearerToken(c)
	}
	payload := models.QRHandoffPayload{
		CPF:     claims.CPF,
		Token:   token,
		Country: claims.Country,
		State:   claims.State,
		Site:    claims.Site,
		IsToken: true,
	}
	if err := h.qr.CompleteSession(c.Request.Context(), c.Param("id"), payload); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *AuthHandler) sessionResponse(session *models.QRSession) dto.QRSessionResponse {
	base := h.prefix + "/auth/qr/sessions/" + session.ID
	return dto.QRSessionResponse{
		ID:        session.ID,
		Status:    string(session.Status),
		ExpiresAt: session.ExpiresAt,
		QRURL:     base + "/qr.png",
		EventsURL: base + "/events",
	}
}
