package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/export"
	"github.com/noah-isme/class-control-api/pkg/storage"
)

type overviewBuilder interface {
	Build(ctx context.Context, site models.SiteRef, classID string) (*models.OverviewMatrix, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders overview matrices and persists the files.
type ExportService struct {
	overview overviewBuilder
	storage  fileStorage
	csv      datasetRenderer
	pdf      datasetRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the CSV and PDF exporters.
func NewExportService(overview overviewBuilder, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		overview: overview,
		storage:  storage,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Generate builds the class overview, renders it in the job format and
// stores the result behind a signed download token.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	matrix, _, err := s.overview.Build(ctx, job.Site, job.ClassID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(overviewDataset(matrix, false))
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(overviewDataset(matrix, true))
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	stamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("overview_%s_%s_%s.%s", sanitizeFilename(job.Site.Site), sanitizeFilename(job.ClassID), stamp, job.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

// overviewDataset flattens the matrix. Letter labels replace the icons when
// the target cannot draw emoji.
func overviewDataset(m *models.OverviewMatrix, labels bool) export.Dataset {
	headers := make([]string, 0, len(m.Columns)+1)
	headers = append(headers, "Aluno")
	for _, col := range m.Columns {
		header := col.Title
		if col.Date != "" {
			header = fmt.Sprintf("%s (%s)", header, col.Date)
		}
		headers = append(headers, header)
	}
	rows := make([][]string, 0, len(m.Rows))
	for _, row := range m.Rows {
		line := make([]string, 0, len(row.Cells)+1)
		name := row.Name
		if row.Disabled {
			name += " (desativado)"
		}
		line = append(line, name)
		for _, cell := range row.Cells {
			if labels {
				line = append(line, cell.Category.Label())
			} else {
				line = append(line, cell.Icon)
			}
		}
		rows = append(rows, line)
	}
	legend := "Legenda: 🔄 reposição, ⏰ atraso, 📱 via QR, ✅ presente, ❌ falta"
	if labels {
		legend = "Legenda: R reposição, A atraso, Q via QR, P presente, F falta"
	}
	return export.Dataset{
		Title: fmt.Sprintf("Visão geral da turma %s", m.ClassID),
		Notes: []string{
			fmt.Sprintf("Presença geral: %s%%", m.PresencePercent),
			legend,
		},
		Headers: headers,
		Rows:    rows,
	}
}
