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

func TestClassCreateClonesTemplates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"01", "02"} {
		require.NoError(t, f.lectures.PutTemplate(ctx, id, map[string]interface{}{
			"nome":      map[string]interface{}{"pt": "Lição " + id},
			"instrutor": "Template",
			"data":      "2020-01-01",
		}))
	}
	svc := NewClassService(f.classes, f.lectures, nil)

	resp, err := svc.Create(ctx, testSite, dto.CreateClassRequest{
		Owner:       "Rui",
		OpeningDate: "04-03-2024",
		Location:    "Sala 1",
		Days:        []string{"segunda", " quarta "},
	})
	require.NoError(t, err)
	assert.Equal(t, "T001", resp.Class.ID)
	assert.Equal(t, "2024-03-04", resp.Class.OpeningDate)
	assert.Equal(t, "segunda e quarta", resp.Class.Days)
	assert.Equal(t, models.DefaultClassTime, resp.Class.Time)
	assert.Equal(t, []string{"01", "02"}, resp.LecturesCreated)
	assert.Len(t, resp.MissingLectures, LectureTemplateCount-2)

	lecture, err := f.lectures.FindByID(ctx, testSite, "T001", "01")
	require.NoError(t, err)
	assert.Equal(t, "Lição 01", lecture.Title)
	assert.Empty(t, lecture.Instructor)
	assert.Empty(t, lecture.Date)

	again, err := svc.Create(ctx, testSite, dto.CreateClassRequest{
		Owner: "Marta", OpeningDate: "2024-08-01", Location: "Sala 2", Days: []string{"sábado"}, Time: "09:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "T002", again.Class.ID)
	assert.Equal(t, "09:30", again.Class.Time)
}

func TestClassCreateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	svc := NewClassService(f.classes, f.lectures, nil)

	_, err := svc.Create(context.Background(), testSite, dto.CreateClassRequest{
		Owner: "Rui", OpeningDate: "2024/03/04", Location: "Sala 1", Days: []string{"segunda"},
	})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), testSite, dto.CreateClassRequest{Owner: "Rui"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), models.SiteRef{Country: "br"}, dto.CreateClassRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassUpdateMergesFields(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	svc := NewClassService(f.classes, f.lectures, nil)

	topic := "O Livro dos Espíritos"
	updated, err := svc.Update(context.Background(), testSite, "T001", dto.UpdateClassRequest{
		Topic: &topic,
		Days:  []string{"terça", "quinta"},
	})
	require.NoError(t, err)
	assert.Equal(t, topic, updated.Topic)
	assert.Equal(t, "terça e quinta", updated.Days)
	assert.Equal(t, "Rui", updated.Owner)

	_, err = svc.Update(context.Background(), testSite, "T404", dto.UpdateClassRequest{Topic: &topic})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassLecturesListsInOrder(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	f.lecture(t, "T001", "02", "Os sonhos", "", 2)
	f.lecture(t, "T001", "01", "A prece", "2024-03-04", 0)
	svc := NewClassService(f.classes, f.lectures, nil)

	lectures, err := svc.Lectures(context.Background(), testSite, "T001")
	require.NoError(t, err)
	require.Len(t, lectures, 2)
	assert.Equal(t, "01", lectures[0].ID)
	assert.True(t, lectures[1].Fragmented())

	_, err = svc.Lectures(context.Background(), testSite, "T404")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
