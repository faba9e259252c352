package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/internal/repository"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/jobs"
	"github.com/noah-isme/class-control-api/pkg/storage"
)

type overviewStub struct {
	matrix *models.OverviewMatrix
	err    error
}

func (o overviewStub) Build(ctx context.Context, site models.SiteRef, classID string) (*models.OverviewMatrix, bool, error) {
	return o.matrix, false, o.err
}

func sampleMatrix() *models.OverviewMatrix {
	return &models.OverviewMatrix{
		ClassID: "T001",
		Columns: []models.OverviewColumn{
			{LectureID: "01", Title: "Introdução", Date: "2024-03-04"},
			{LectureID: "02", Fragment: 1, Title: "Parte 1"},
		},
		Rows: []models.OverviewRow{
			{StudentID: "A001", Name: "Ana", Cells: []models.OverviewCell{
				{Category: models.CellPresent, Icon: models.CellPresent.Icon()},
				{Category: models.CellLate, Icon: models.CellLate.Icon()},
			}},
			{StudentID: "A002", Name: "Bruno", Disabled: true, Cells: []models.OverviewCell{
				{Category: models.CellAbsent, Icon: models.CellAbsent.Icon()},
				{Category: models.CellAbsent, Icon: models.CellAbsent.Icon()},
			}},
		},
		PresencePercent: "100.0",
	}
}

func newTestExportService(t *testing.T, overview overviewBuilder) *ExportService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	return NewExportService(overview, files, signer, ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}, nil, nil, nil)
}

func readExport(t *testing.T, svc *ExportService, relPath string) []byte {
	t.Helper()
	file, err := svc.Open(relPath)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	return data
}

func TestExportGenerateCSV(t *testing.T) {
	svc := newTestExportService(t, overviewStub{matrix: sampleMatrix()})
	job := &models.ExportJob{ID: "job-1", Site: testSite, ClassID: "T001", Format: models.ExportFormatCSV}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/download/"))
	assert.True(t, strings.HasPrefix(result.RelativePath, "overview_centro_T001_"))

	content := string(readExport(t, svc, result.RelativePath))
	assert.Contains(t, content, "Aluno,Introdução (2024-03-04),Parte 1")
	assert.Contains(t, content, "Ana,✅,⏰")
	assert.Contains(t, content, "Bruno (desativado),❌,❌")

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, result.RelativePath, relPath)
}

func TestExportGeneratePDF(t *testing.T) {
	svc := newTestExportService(t, overviewStub{matrix: sampleMatrix()})
	job := &models.ExportJob{ID: "job-2", Site: testSite, ClassID: "T001", Format: models.ExportFormatPDF}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, models.ExportFormatPDF, result.Format)
	assert.True(t, bytes.HasPrefix(readExport(t, svc, result.RelativePath), []byte("%PDF")))
}

func TestOverviewDatasetUsesLabelsForPDF(t *testing.T) {
	data := overviewDataset(sampleMatrix(), true)
	assert.Equal(t, []string{"Ana", "P", "A"}, data.Rows[0])
	assert.Equal(t, "Presença geral: 100.0%", data.Notes[0])
}

type queueStub struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type generatorStub struct {
	err error
}

func (g generatorStub) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	return nil, g.err
}

func TestExportJobLifecycle(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	ctx := context.Background()
	repo := repository.NewExportJobRepository(f.store)
	queue := &queueStub{}
	exporter := newTestExportService(t, overviewStub{matrix: sampleMatrix()})
	svc := NewExportJobService(repo, f.classes, queue, exporter, nil, nil, ExportJobConfig{})

	created, err := svc.CreateJob(ctx, testSite, "T001", dto.ExportRequest{Format: models.ExportFormatCSV}, "52998224725")
	require.NoError(t, err)
	assert.Equal(t, models.ExportQueued, created.Status)
	require.Len(t, queue.jobs, 1)

	worker := NewExportWorker(repo, exporter, nil, nil)
	require.NoError(t, worker.Handle(ctx, queue.jobs[0]))

	status, err := svc.GetStatus(ctx, testSite, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotEmpty(t, status.ResultURL)

	token := status.ResultURL[strings.LastIndex(status.ResultURL, "/")+1:]
	download, err := svc.ResolveDownload(ctx, token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ExportFormatCSV, download.Format)
	assert.True(t, strings.HasSuffix(download.Filename, ".csv"))

	_, err = svc.ResolveDownload(ctx, token+"x")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	other := models.SiteRef{Country: "br", State: "rj", Site: "centro"}
	_, err = svc.GetStatus(ctx, other, created.ID)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportWorkerRequeuesThenFails(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	ctx := context.Background()
	repo := repository.NewExportJobRepository(f.store)
	queue := &queueStub{}
	svc := NewExportJobService(repo, f.classes, queue, nil, nil, nil, ExportJobConfig{})

	created, err := svc.CreateJob(ctx, testSite, "T001", dto.ExportRequest{Format: models.ExportFormatPDF}, "52998224725")
	require.NoError(t, err)

	worker := NewExportWorker(repo, generatorStub{err: errors.New("render failed")}, nil, nil)
	require.Error(t, worker.Handle(ctx, queue.jobs[0]))
	job, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportQueued, job.Status)
	assert.Equal(t, "render failed", job.Error)

	worker.Exhausted(ctx, queue.jobs[0], errors.New("render failed"))
	job, err = repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportFailed, job.Status)
	assert.NotNil(t, job.FinishedAt)
}

func TestExportJobEnqueueFailureMarksFailed(t *testing.T) {
	f := newFixture(t)
	f.class(t, "T001", "Rui")
	repo := repository.NewExportJobRepository(f.store)
	svc := NewExportJobService(repo, f.classes, &queueStub{err: jobs.ErrQueueStopped}, nil, nil, nil, ExportJobConfig{})

	_, err := svc.CreateJob(context.Background(), testSite, "T001", dto.ExportRequest{Format: models.ExportFormatCSV}, "x")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateJob(context.Background(), testSite, "T404", dto.ExportRequest{Format: models.ExportFormatCSV}, "x")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
