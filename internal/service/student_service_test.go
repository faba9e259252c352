package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
)

func newTestStudentService(f *fixture) *StudentService {
	return NewStudentService(f.students, f.classes, f.lectures, f.attendance, nil, nil)
}

func TestStudentCreateWritesPlaceholders(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	f.student(t, "T001", "A001", "Ana", "11999990001")
	f.lecture(t, "T001", "01", "Introdução", "2024-03-04", 0)
	f.lecture(t, "T001", "02", "Os sonhos", "", 2)
	ctx := context.Background()

	student, err := newTestStudentService(f).Create(ctx, testSite, "T001", dto.CreateStudentRequest{
		Name:     " Bruno Lima ",
		WhatsApp: "(11) 98888-0002",
	})
	require.NoError(t, err)
	assert.Equal(t, "A002", student.ID)
	assert.Equal(t, "Bruno Lima", student.Name)
	assert.Equal(t, "11988880002", student.WhatsApp)
	assert.Equal(t, "55", student.CountryCode)

	for _, scope := range []struct {
		lecture  string
		fragment int
	}{{"01", 0}, {"02", 1}, {"02", 2}} {
		rec, err := f.attendance.Find(ctx, testSite, "T001", scope.lecture, scope.fragment, "A002")
		require.NoError(t, err)
		require.NotNil(t, rec, "%s/%d", scope.lecture, scope.fragment)
		assert.Equal(t, models.AttendanceAbsent, rec.Status)
	}
	rec, err := f.attendance.Find(ctx, testSite, "T001", "02", 0, "A002")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStudentCreateValidatesPhoneAndClass(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	svc := newTestStudentService(f)
	ctx := context.Background()

	_, err := svc.Create(ctx, testSite, "T001", dto.CreateStudentRequest{Name: "Ana", WhatsApp: "123"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, testSite, "T001", dto.CreateStudentRequest{Name: "4na", WhatsApp: "11999990001"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, testSite, "T404", dto.CreateStudentRequest{Name: "Ana", WhatsApp: "11999990001"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentListAndUpdate(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	f.student(t, "T001", "A001", "bruno", "11999990001")
	f.student(t, "T001", "A002", "Ana", "11999990002")
	svc := newTestStudentService(f)
	ctx := context.Background()

	list, err := svc.List(ctx, testSite, "T001")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A002", list[0].ID)

	cc := "351"
	phone := "912345678"
	updated, err := svc.Update(ctx, testSite, "T001", "A001", dto.UpdateStudentRequest{CountryCode: &cc, WhatsApp: &phone})
	require.NoError(t, err)
	assert.Equal(t, "351", updated.CountryCode)
	assert.Equal(t, "912345678", updated.WhatsApp)

	short := "12"
	_, err = svc.Update(ctx, testSite, "T001", "A001", dto.UpdateStudentRequest{WhatsApp: &short})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
