package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
)

type fakeAuthSrv struct {
	login     models.LoginRequest
	completed models.QRHandoffPayload
	events    []models.QREvent
	expiresAt time.Time
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.login = req
	if req.Password != "segredo" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "token", Site: models.SiteRef{Country: req.Country, State: req.State, Site: req.Site}}, nil
}

func (f *fakeAuthSrv) CreateSession(context.Context) (*models.QRSession, error) {
	return &models.QRSession{ID: "qr_1_abc", Status: models.QRWaiting, ExpiresAt: f.expiresAt}, nil
}

func (f *fakeAuthSrv) CompleteSession(_ context.Context, id string, payload models.QRHandoffPayload) error {
	if id == "qr_old" {
		return appErrors.ErrSessionExpired
	}
	f.completed = payload
	return nil
}

func (f *fakeAuthSrv) SessionQR(_ context.Context, id string) ([]byte, error) {
	return []byte("\x89PNG"), nil
}

func (f *fakeAuthSrv) Watch(_ context.Context, id string, emit func(models.QREvent)) error {
	for _, event := range f.events {
		emit(event)
	}
	return nil
}

type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func newAuthRouter(srv *fakeAuthSrv, claims *models.JWTClaims) *gin.Engine {
	h := NewAuthHandler(srv, srv, "/api/v1")
	r := newTestRouter(claims)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/qr/sessions", h.CreateQRSession)
	r.GET("/auth/qr/sessions/:id/qr.png", h.SessionQR)
	r.GET("/auth/qr/sessions/:id/events", h.SessionEvents)
	r.POST("/auth/qr/sessions/:id/complete", h.CompleteQRSession)
	return r
}

func TestAuthHandlerLogin(t *testing.T) {
	srv := &fakeAuthSrv{}
	r := newAuthRouter(srv, nil)

	rec := serve(r, http.MethodPost, "/auth/login", map[string]string{
		"cpf": "529.982.247-25", "password": "segredo", "country": "br", "state": "sp", "site": "centro",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.LoginResponse
	decodeEnvelope(t, rec, &res)
	assert.Equal(t, "token", res.AccessToken)
	assert.Equal(t, "529.982.247-25", srv.login.CPF)

	rec = serve(r, http.MethodPost, "/auth/login", map[string]string{"cpf": "52998224725", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerCreateSessionLinksResources(t *testing.T) {
	srv := &fakeAuthSrv{expiresAt: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)}
	rec := serve(newAuthRouter(srv, nil), http.MethodPost, "/auth/qr/sessions", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var res dto.QRSessionResponse
	decodeEnvelope(t, rec, &res)
	assert.Equal(t, "qr_1_abc", res.ID)
	assert.Equal(t, "waiting", res.Status)
	assert.Equal(t, "/api/v1/auth/qr/sessions/qr_1_abc/qr.png", res.QRURL)
	assert.Equal(t, "/api/v1/auth/qr/sessions/qr_1_abc/events", res.EventsURL)
}

func TestAuthHandlerSessionQR(t *testing.T) {
	rec := serve(newAuthRouter(&fakeAuthSrv{}, nil), http.MethodGet, "/auth/qr/sessions/qr_1_abc/qr.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestAuthHandlerCompleteUsesCallerIdentity(t *testing.T) {
	srv := &fakeAuthSrv{}
	r := newAuthRouter(srv, instructorClaims(models.RoleSiteInstructor))

	req := httptest.NewRequest(http.MethodPost, "/auth/qr/sessions/qr_1_abc/complete", nil)
	req.Header.Set("Authorization", "Bearer caller-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "52998224725", srv.completed.CPF)
	assert.Equal(t, "caller-token", srv.completed.Token)
	assert.Equal(t, "centro", srv.completed.Site)
	assert.True(t, srv.completed.IsToken)

	rec = serve(r, http.MethodPost, "/auth/qr/sessions/qr_old/complete", nil)
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, appErrors.ErrSessionExpired.Code, errorCode(t, rec))
}

func TestAuthHandlerCompleteRequiresLogin(t *testing.T) {
	rec := serve(newAuthRouter(&fakeAuthSrv{}, nil), http.MethodPost, "/auth/qr/sessions/qr_1_abc/complete", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerSessionEventsStream(t *testing.T) {
	srv := &fakeAuthSrv{events: []models.QREvent{
		{Type: models.QREventWaiting, SessionID: "qr_1_abc"},
		{Type: models.QREventCompleted, SessionID: "qr_1_abc", Login: &models.LoginResponse{AccessToken: "handed-off"}},
	}}
	r := newAuthRouter(srv, nil)

	rec := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/qr/sessions/qr_1_abc/events", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "event:waiting")
	assert.Contains(t, body, "event:completed")
	assert.Contains(t, body, "handed-off")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
}

func TestAuthHandlerSessionEventsRegeneratesOnExpiry(t *testing.T) {
	srv := &fakeAuthSrv{events: []models.QREvent{
		{Type: models.QREventExpired, SessionID: "qr_1_abc", NewSession: &models.QRSession{ID: "qr_2_def", Status: models.QRWaiting}},
	}}
	r := newAuthRouter(srv, nil)

	rec := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/qr/sessions/qr_1_abc/events", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "event:expired")
	assert.Contains(t, body, "/api/v1/auth/qr/sessions/qr_2_def/events")
}
