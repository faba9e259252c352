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
	"github.com/noah-isme/class-control-api/internal/service"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/whatsapp"
)

type fakeAttendanceSrv struct {
	fragment  int
	toggle    service.ToggleInput
	extras    service.ExtrasInput
	kind      whatsapp.MessageKind
	toggleErr error
	checkIn   dto.CheckInRequest
	checkErr  error
	linkActor string
}

func (f *fakeAttendanceSrv) Reconcile(_ context.Context, site models.SiteRef, classID, lectureID string, fragment int) ([]models.StudentAttendance, error) {
	f.fragment = fragment
	return []models.StudentAttendance{{Student: models.Student{ID: "A001"}, Status: models.Absent()}}, nil
}

func (f *fakeAttendanceSrv) Toggle(_ context.Context, in service.ToggleInput) (*models.StudentAttendance, error) {
	f.toggle = in
	if f.toggleErr != nil {
		return nil, f.toggleErr
	}
	return &models.StudentAttendance{
		Student: models.Student{ID: in.StudentID},
		Status:  models.Present(models.PresenceDetails{Date: "2024-03-04", Instructor: in.Actor}),
	}, nil
}

func (f *fakeAttendanceSrv) UpdateExtras(_ context.Context, in service.ExtrasInput) (*models.StudentAttendance, error) {
	f.extras = in
	return &models.StudentAttendance{
		Student: models.Student{ID: in.StudentID},
		Status:  models.Present(models.PresenceDetails{Date: in.Date, MakeUp: in.MakeUp}),
	}, nil
}

func (f *fakeAttendanceSrv) MessageLink(_ context.Context, site models.SiteRef, classID, lectureID, studentID string, kind whatsapp.MessageKind) (*dto.NotificationLinkResponse, error) {
	f.kind = kind
	return &dto.NotificationLinkResponse{Link: "https://wa.me/+5511999990001?text=oi"}, nil
}

func (f *fakeAttendanceSrv) CheckInLink(_ context.Context, site models.SiteRef, classID, lectureID string, fragment int, instructor string) (*dto.CheckInLinkResponse, error) {
	f.fragment = fragment
	f.linkActor = instructor
	return &dto.CheckInLinkResponse{Link: "https://presenca.example.org/?p=abc", Payload: "abc"}, nil
}

func (f *fakeAttendanceSrv) CheckInQR(_ context.Context, site models.SiteRef, classID, lectureID string, fragment int, instructor string) ([]byte, error) {
	return []byte("\x89PNG\r\n"), nil
}

func (f *fakeAttendanceSrv) CheckIn(_ context.Context, req dto.CheckInRequest) (*dto.CheckInResponse, error) {
	f.checkIn = req
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return &dto.CheckInResponse{StudentID: "A001", LectureID: "02", Fragment: 2}, nil
}

func newAttendanceRouter(srv *fakeAttendanceSrv) *gin.Engine {
	h := NewAttendanceHandler(srv, srv)
	r := newTestRouter(instructorClaims(models.RoleSiteInstructor))
	base := "/classes/:classId/lectures/:lectureId"
	r.GET(base+"/attendance", h.Reconcile)
	r.POST(base+"/attendance/:studentId/toggle", h.Toggle)
	r.PUT(base+"/attendance/:studentId/extras", h.Extras)
	r.GET(base+"/attendance/:studentId/whatsapp-link", h.MessageLink)
	r.GET(base+"/checkin-link", h.CheckInLink)
	r.GET(base+"/checkin-qr.png", h.CheckInQR)
	r.POST("/checkin", h.CheckIn)
	return r
}

func TestAttendanceHandlerReconcileFragment(t *testing.T) {
	srv := &fakeAttendanceSrv{}
	r := newAttendanceRouter(srv)

	rec := serve(r, http.MethodGet, "/classes/T001/lectures/02/attendance?fragment=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, srv.fragment)
	var rows []models.StudentAttendance
	decodeEnvelope(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Status.IsAbsent())

	rec = serve(r, http.MethodGet, "/classes/T001/lectures/02/attendance?fragment=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerToggle(t *testing.T) {
	srv := &fakeAttendanceSrv{}
	r := newAttendanceRouter(srv)

	rec := serve(r, http.MethodPost, "/classes/T001/lectures/01/attendance/A001/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Rui", srv.toggle.Actor)
	assert.Equal(t, centro, srv.toggle.Site)
	assert.Equal(t, "A001", srv.toggle.StudentID)
	var row models.StudentAttendance
	decodeEnvelope(t, rec, &row)
	require.True(t, row.Status.IsPresent())
	assert.Equal(t, "Rui", row.Status.Details.Instructor)

	rec = serve(r, http.MethodPost, "/classes/T001/lectures/02/attendance/A001/toggle", map[string]interface{}{"fragment": 1, "date": "2024-03-04"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, srv.toggle.Fragment)
	assert.Equal(t, "2024-03-04", srv.toggle.Date)

	srv.toggleErr = appErrors.ErrStudentDisabled
	rec = serve(r, http.MethodPost, "/classes/T001/lectures/01/attendance/A003/toggle", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, appErrors.ErrStudentDisabled.Code, errorCode(t, rec))
}

func TestAttendanceHandlerExtras(t *testing.T) {
	srv := &fakeAttendanceSrv{}
	r := newAttendanceRouter(srv)

	rec := serve(r, http.MethodPut, "/classes/T001/lectures/01/attendance/A001/extras", map[string]interface{}{
		"date": "2024-03-11", "instructor": "Marta", "makeup": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.extras.MakeUp)
	assert.Equal(t, "Marta", srv.extras.Instructor)
	assert.Equal(t, "01", srv.extras.LectureID)
}

func TestAttendanceHandlerMessageLinkDefaultsKind(t *testing.T) {
	srv := &fakeAttendanceSrv{}
	r := newAttendanceRouter(srv)

	rec := serve(r, http.MethodGet, "/classes/T001/lectures/01/attendance/A001/whatsapp-link", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, whatsapp.KindConversation, srv.kind)

	serve(r, http.MethodGet, "/classes/T001/lectures/01/attendance/A001/whatsapp-link?kind=resumo", nil)
	assert.Equal(t, whatsapp.KindSummary, srv.kind)
}

func TestAttendanceHandlerCheckInLinkAndQR(t *testing.T) {
	srv := &fakeAttendanceSrv{}
	r := newAttendanceRouter(srv)

	rec := serve(r, http.MethodGet, "/classes/T001/lectures/02/checkin-link?fragment=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, srv.fragment)
	assert.Equal(t, "Rui", srv.linkActor)

	rec = serve(r, http.MethodGet, "/classes/T001/lectures/02/checkin-qr.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String()[:4])
}

func TestAttendanceHandlerCheckIn(t *testing.T) {
	srv := &fakeAttendanceSrv{}
	r := newAttendanceRouter(srv)

	rec := serve(r, http.MethodPost, "/checkin", map[string]string{"payload": "abc", "code": "joao1234"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "joao1234", srv.checkIn.Code)

	srv.checkErr = appErrors.ErrAlreadyPresent
	rec = serve(r, http.MethodPost, "/checkin", map[string]string{"payload": "abc", "code": "joao1234"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, appErrors.ErrAlreadyPresent.Code, errorCode(t, rec))
}
