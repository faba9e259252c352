package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/whatsapp"
)

var brt = time.FixedZone("BRT", -3*60*60)

func newTestAttendanceService(f *fixture) *AttendanceService {
	// 01:30 UTC on the 5th is still the 4th in Brazil.
	clock := func() time.Time { return time.Date(2024, 3, 5, 1, 30, 0, 0, time.UTC) }
	return NewAttendanceService(f.students, f.lectures, f.attendance, nil, nil,
		WithAttendanceLocation(brt), WithAttendanceClock(clock))
}

func TestReconcileSortsByNameAndMarksDisabled(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	f.student(t, "T001", "A002", "bruno", "11999990002")
	f.student(t, "T001", "A003", "ana", "11999990003")
	f.student(t, "T001", "A001", "Ana", "11999990001")
	f.lecture(t, "T001", "01", "Introdução", "2024-03-04", 0)
	f.mark(t, "T001", "01", 0, present("A001", "2024-03-04"))
	f.mark(t, "T001", "01", 0, present("A002", "2024-03-04"))
	require.NoError(t, f.students.SetStatus(context.Background(), testSite, "T001", "A002", models.StudentDisabled))

	list, err := newTestAttendanceService(f).Reconcile(context.Background(), testSite, "T001", "01", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "A001", list[0].Student.ID)
	assert.Equal(t, "A003", list[1].Student.ID)
	assert.Equal(t, "A002", list[2].Student.ID)
	assert.True(t, list[0].Status.IsPresent())
	assert.True(t, list[1].Status.IsAbsent())
	assert.True(t, list[2].Status.IsDisabled())
}

func TestReconcileMissingLectureIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	f.student(t, "T001", "A001", "Ana", "11999990001")

	list, err := newTestAttendanceService(f).Reconcile(context.Background(), testSite, "T001", "99", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestToggleUsesLocalDateAndKeepsMakeUpFlag(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	f.student(t, "T001", "A001", "Ana", "11999990001")
	f.lecture(t, "T001", "01", "Introdução", "", 0)
	svc := newTestAttendanceService(f)
	ctx := context.Background()
	in := ToggleInput{Site: testSite, ClassID: "T001", LectureID: "01", StudentID: "A001", Actor: "Rui"}

	got, err := svc.Toggle(ctx, in)
	require.NoError(t, err)
	require.True(t, got.Status.IsPresent())
	assert.Equal(t, "2024-03-04", got.Status.Details.Date)
	assert.Equal(t, "Rui", got.Status.Details.Instructor)

	_, err = svc.UpdateExtras(ctx, ExtrasInput{
		Site: testSite, ClassID: "T001", LectureID: "01", StudentID: "A001",
		AttendanceExtrasRequest: dto.AttendanceExtrasRequest{Date: "2024-03-06", Instructor: "Marta", MakeUp: true},
	})
	require.NoError(t, err)

	got, err = svc.Toggle(ctx, in)
	require.NoError(t, err)
	assert.True(t, got.Status.IsAbsent())

	rec, err := f.attendance.Find(ctx, testSite, "T001", "01", 0, "A001")
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceAbsent, rec.Status)
	assert.Empty(t, rec.Date)
	assert.Empty(t, rec.Instructor)
	assert.True(t, rec.MakeUp)
}

func TestToggleRoutesFragments(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	f.student(t, "T001", "A001", "Ana", "11999990001")
	f.lecture(t, "T001", "01", "Introdução", "", 0)
	f.lecture(t, "T001", "02", "Os sonhos", "", 3)
	svc := newTestAttendanceService(f)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, ToggleInput{Site: testSite, ClassID: "T001", LectureID: "02", StudentID: "A001",
		ToggleAttendanceRequest: dto.ToggleAttendanceRequest{Fragment: 2, Date: "2024-03-11"}})
	require.NoError(t, err)
	rec, err := f.attendance.Find(ctx, testSite, "T001", "02", 2, "A001")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "2024-03-11", rec.Date)
	lectureLevel, err := f.attendance.Find(ctx, testSite, "T001", "02", 0, "A001")
	require.NoError(t, err)
	assert.Nil(t, lectureLevel)

	_, err = svc.Toggle(ctx, ToggleInput{Site: testSite, ClassID: "T001", LectureID: "01", StudentID: "A001",
		ToggleAttendanceRequest: dto.ToggleAttendanceRequest{Fragment: 2}})
	require.NoError(t, err)
	rec, err = f.attendance.Find(ctx, testSite, "T001", "01", 0, "A001")
	require.NoError(t, err)
	require.NotNil(t, rec)

	_, err = svc.Toggle(ctx, ToggleInput{Site: testSite, ClassID: "T001", LectureID: "02", StudentID: "A001",
		ToggleAttendanceRequest: dto.ToggleAttendanceRequest{Fragment: 4}})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFragmentedLectureRequiresFragment(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	f.student(t, "T001", "A001", "Ana", "11999990001")
	f.lecture(t, "T001", "02", "Os sonhos", "", 3)
	svc := newTestAttendanceService(f)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, ToggleInput{Site: testSite, ClassID: "T001", LectureID: "02", StudentID: "A001",
		ToggleAttendanceRequest: dto.ToggleAttendanceRequest{Date: "2024-03-11"}})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	for n := 0; n <= 3; n++ {
		rec, err := f.attendance.Find(ctx, testSite, "T001", "02", n, "A001")
		require.NoError(t, err)
		assert.Nil(t, rec, "fragment %d", n)
	}

	_, err = svc.Reconcile(ctx, testSite, "T001", "02", 0)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestToggleRefusesDisabledStudent(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	f.student(t, "T001", "A001", "Ana", "11999990001")
	f.lecture(t, "T001", "01", "Introdução", "", 0)
	require.NoError(t, f.students.SetStatus(context.Background(), testSite, "T001", "A001", models.StudentDisabled))

	_, err := newTestAttendanceService(f).Toggle(context.Background(), ToggleInput{Site: testSite, ClassID: "T001", LectureID: "01", StudentID: "A001"})
	assert.ErrorIs(t, err, appErrors.ErrStudentDisabled)
}

func TestMessageLinkTargetsStudentNumber(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	f.student(t, "T001", "A001", "Ana Souza", "(11) 99999-0001")
	f.lecture(t, "T001", "01", "Introdução", "", 0)
	svc := newTestAttendanceService(f)

	resp, err := svc.MessageLink(context.Background(), testSite, "T001", "01", "A001", whatsapp.KindConversation)
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "Ana")
	assert.Contains(t, resp.Link, "https://wa.me/+5511999990001?text=")

	resp, err = svc.MessageLink(context.Background(), testSite, "T001", "01", "A001", whatsapp.MessageKind("invalid"))
	assert.Nil(t, resp)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
