package service

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
)

func newTestCheckInService(f *fixture) *CheckInService {
	svc := NewCheckInService(f.students, f.lectures, f.attendance, nil, nil, "https://presenca.example.org/", brt, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 12, 1, 0, 0, 0, time.UTC) }
	return svc
}

func seedCheckIn(t *testing.T, f *fixture) {
	t.Helper()
	f.class(t, "T001", "Rui")
	f.student(t, "T001", "A001", "João Silva", "(11) 99999-1234")
	f.student(t, "T001", "A002", "Bia", "11999995678")
	f.lecture(t, "T001", "02", "Os sonhos", "", 2)
	require.NoError(t, f.students.SetStatus(context.Background(), testSite, "T001", "A002", models.StudentDisabled))
}

func checkInPayload(t *testing.T, svc *CheckInService, fragment int) string {
	t.Helper()
	link, err := svc.CheckInLink(context.Background(), testSite, "T001", "02", fragment, "Rui")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.Link, "https://presenca.example.org/checkin?d="))
	parsed, err := url.Parse(link.Link)
	require.NoError(t, err)
	assert.Equal(t, link.Payload, parsed.Query().Get("d"))
	return link.Payload
}

func TestCheckInFoldsAccentsAndMarksPresent(t *testing.T) {
	f := newFixture(t)
	seedCheckIn(t, f)
	svc := newTestCheckInService(f)
	payload := checkInPayload(t, svc, 2)

	resp, err := svc.CheckIn(context.Background(), dto.CheckInRequest{Payload: payload, Code: "joao-1234"})
	require.NoError(t, err)
	assert.Equal(t, "A001", resp.StudentID)
	assert.Equal(t, 2, resp.Fragment)
	assert.Equal(t, "Os sonhos (Parte 2)", resp.LectureTitle)
	assert.Equal(t, "2024-03-11", resp.Date)

	rec, err := f.attendance.Find(context.Background(), testSite, "T001", "02", 2, "A001")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.AttendancePresent, rec.Status)
	assert.True(t, rec.ViaQR)
	assert.Equal(t, "Rui", rec.Instructor)
	assert.NotEmpty(t, rec.RegisteredAt)

	_, err = svc.CheckIn(context.Background(), dto.CheckInRequest{Payload: payload, Code: "JOÃO1234"})
	assert.Equal(t, appErrors.ErrAlreadyPresent.Code, appErrors.FromError(err).Code)
}

func TestCheckInRefusals(t *testing.T) {
	f := newFixture(t)
	seedCheckIn(t, f)
	svc := newTestCheckInService(f)
	payload := checkInPayload(t, svc, 1)

	cases := []struct {
		name string
		req  dto.CheckInRequest
		code string
	}{
		{"wrong digits", dto.CheckInRequest{Payload: payload, Code: "joao0000"}, appErrors.ErrNotFound.Code},
		{"unknown name", dto.CheckInRequest{Payload: payload, Code: "maria1234"}, appErrors.ErrNotFound.Code},
		{"disabled", dto.CheckInRequest{Payload: payload, Code: "bia5678"}, appErrors.ErrStudentDisabled.Code},
		{"malformed code", dto.CheckInRequest{Payload: payload, Code: "1234joao"}, appErrors.ErrValidation.Code},
		{"broken link", dto.CheckInRequest{Payload: "%%%", Code: "joao1234"}, appErrors.ErrValidation.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CheckIn(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}

	rec, err := f.attendance.Find(context.Background(), testSite, "T001", "02", 1, "A001")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCheckInPrefersActiveNamesakeOverDisabledOne(t *testing.T) {
	f := newFixture(t)
	seedCheckIn(t, f)
	f.student(t, "T001", "A003", "Bia Souza", "11988884321")
	svc := newTestCheckInService(f)
	payload := checkInPayload(t, svc, 1)

	resp, err := svc.CheckIn(context.Background(), dto.CheckInRequest{Payload: payload, Code: "bia4321"})
	require.NoError(t, err)
	assert.Equal(t, "A003", resp.StudentID)

	_, err = svc.CheckIn(context.Background(), dto.CheckInRequest{Payload: payload, Code: "bia5678"})
	assert.Equal(t, appErrors.ErrStudentDisabled.Code, appErrors.FromError(err).Code)
	_, err = svc.CheckIn(context.Background(), dto.CheckInRequest{Payload: payload, Code: "bia0000"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCheckInQRRendersPNG(t *testing.T) {
	f := newFixture(t)
	seedCheckIn(t, f)

	png, err := newTestCheckInService(f).CheckInQR(context.Background(), testSite, "T001", "02", 1, "Rui")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "joao", foldName("João"))
	assert.Equal(t, "ines", foldName(" INÊS "))
	assert.Equal(t, foldName("Cecília"), foldName("CECILIA"))
}
