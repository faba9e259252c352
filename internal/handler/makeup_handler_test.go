package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
)

type fakeMakeUpSrv struct {
	scheduled dto.ScheduleMakeUpRequest
	removed   []string
	notified  int
}

func (f *fakeMakeUpSrv) Absences(_ context.Context, site models.SiteRef, classID string) ([]models.StudentAbsences, error) {
	return []models.StudentAbsences{{}, {}}, nil
}

func (f *fakeMakeUpSrv) Schedule(_ context.Context, site models.SiteRef, classID string, req dto.ScheduleMakeUpRequest) (*dto.ScheduleMakeUpResponse, error) {
	f.scheduled = req
	res := &dto.ScheduleMakeUpResponse{Entry: dto.MakeUpView{MakeUpEntry: models.MakeUpEntry{ID: "m1"}}}
	if req.Notify {
		res.WhatsAppLink = "https://wa.me/+5511999990001?text=x"
	}
	return res, nil
}

func (f *fakeMakeUpSrv) MarkNotified(_ context.Context, site models.SiteRef, classID, id string) (*dto.MakeUpView, error) {
	f.notified++
	return &dto.MakeUpView{MakeUpEntry: models.MakeUpEntry{ID: id}}, nil
}

func (f *fakeMakeUpSrv) List(_ context.Context, site models.SiteRef, classID string) ([]dto.MakeUpView, error) {
	return []dto.MakeUpView{{MakeUpEntry: models.MakeUpEntry{ID: "m2"}}, {MakeUpEntry: models.MakeUpEntry{ID: "m1"}}}, nil
}

func (f *fakeMakeUpSrv) Update(_ context.Context, site models.SiteRef, classID, id string, req dto.UpdateMakeUpRequest) (*dto.MakeUpView, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}
	return &dto.MakeUpView{MakeUpEntry: models.MakeUpEntry{ID: id}}, nil
}

func (f *fakeMakeUpSrv) Remove(_ context.Context, site models.SiteRef, classID, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeMakeUpSrv) NotificationLink(_ context.Context, site models.SiteRef, classID, id string) (*dto.NotificationLinkResponse, error) {
	if id == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "make-up not found")
	}
	return &dto.NotificationLinkResponse{Link: "https://wa.me/+5511999990001?text=x", Message: "x"}, nil
}

func newMakeUpRouter(srv *fakeMakeUpSrv) *gin.Engine {
	h := NewMakeUpHandler(srv)
	r := newTestRouter(instructorClaims(models.RoleSiteInstructor))
	r.GET("/classes/:classId/absences", h.Absences)
	r.GET("/classes/:classId/makeups", h.List)
	r.POST("/classes/:classId/makeups", h.Schedule)
	r.PATCH("/classes/:classId/makeups/:id", h.Update)
	r.DELETE("/classes/:classId/makeups/:id", h.Remove)
	r.POST("/classes/:classId/makeups/:id/notified", h.MarkNotified)
	r.GET("/classes/:classId/makeups/:id/whatsapp-link", h.NotificationLink)
	return r
}

func TestMakeUpHandlerScheduleWithNotify(t *testing.T) {
	srv := &fakeMakeUpSrv{}
	r := newMakeUpRouter(srv)

	rec := serve(r, http.MethodPost, "/classes/T001/makeups", map[string]interface{}{
		"student_id":     "A001",
		"lecture_id":     "03",
		"scheduled_date": "2024-04-10",
		"instructor":     "Rui",
		"notify":         true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, srv.scheduled.Notify)
	var res dto.ScheduleMakeUpResponse
	decodeEnvelope(t, rec, &res)
	assert.Equal(t, "m1", res.Entry.ID)
	assert.NotEmpty(t, res.WhatsAppLink)
}

func TestMakeUpHandlerListsAndAbsences(t *testing.T) {
	r := newMakeUpRouter(&fakeMakeUpSrv{})

	rec := serve(r, http.MethodGet, "/classes/T001/makeups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec, nil)
	assert.EqualValues(t, 2, env.Meta["total"])

	rec = serve(r, http.MethodGet, "/classes/T001/absences", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMakeUpHandlerNotifiedAndLink(t *testing.T) {
	srv := &fakeMakeUpSrv{}
	r := newMakeUpRouter(srv)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/classes/T001/makeups/m1/notified", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/classes/T001/makeups/m1/notified", nil).Code)
	assert.Equal(t, 2, srv.notified)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/classes/T001/makeups/m1/whatsapp-link", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/classes/T001/makeups/missing/whatsapp-link", nil).Code)
}

func TestMakeUpHandlerUpdateAndRemove(t *testing.T) {
	srv := &fakeMakeUpSrv{}
	r := newMakeUpRouter(srv)

	rec := serve(r, http.MethodPatch, "/classes/T001/makeups/m1", map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodPatch, "/classes/T001/makeups/m1", map[string]string{"status": string(models.MakeUpDone)})
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusPreconditionFailed, serve(r, http.MethodDelete, "/classes/T001/makeups/m1", nil).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/classes/T001/makeups/m1?confirm=true", nil).Code)
	assert.Equal(t, []string{"m1"}, srv.removed)
}
