package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/whatsapp"
)

type overviewClassRepository interface {
	FindByID(ctx context.Context, site models.SiteRef, id string) (*models.Class, error)
}

type overviewLectureRepository interface {
	List(ctx context.Context, site models.SiteRef, classID string) ([]models.Lecture, error)
	ListFragments(ctx context.Context, site models.SiteRef, classID, lectureID string) ([]models.Fragment, error)
}

type overviewAttendanceRepository interface {
	ListByStudent(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int) (map[string]models.AttendanceRecord, error)
}

// OverviewService builds the class-wide attendance matrix.
type OverviewService struct {
	classes    overviewClassRepository
	students   attendanceStudentRepository
	lectures   overviewLectureRepository
	attendance overviewAttendanceRepository
	cache      *CacheService
	logger     *zap.Logger
	now        func() time.Time
}

// NewOverviewService constructs the service.
func NewOverviewService(classes overviewClassRepository, students attendanceStudentRepository, lectures overviewLectureRepository, attendance overviewAttendanceRepository, cache *CacheService, logger *zap.Logger) *OverviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverviewService{
		classes:    classes,
		students:   students,
		lectures:   lectures,
		attendance: attendance,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// Build returns the matrix of the class, served from the cache when possible.
// The boolean reports a cache hit.
func (s *OverviewService) Build(ctx context.Context, site models.SiteRef, classID string) (*models.OverviewMatrix, bool, error) {
	if err := checkSite(site); err != nil {
		return nil, false, err
	}
	if _, err := s.classes.FindByID(ctx, site, classID); err != nil {
		return nil, false, storeError(err, "class", "failed to load class")
	}
	var matrix models.OverviewMatrix
	hit, err := s.cache.Remember(ctx, OverviewCacheKey(site, classID), &matrix, func() (interface{}, error) {
		return s.build(ctx, site, classID)
	})
	if err != nil {
		return nil, false, err
	}
	return &matrix, hit, nil
}

func (s *OverviewService) build(ctx context.Context, site models.SiteRef, classID string) (*models.OverviewMatrix, error) {
	students, err := s.students.List(ctx, site, classID)
	if err != nil {
		return nil, internalError(err, "failed to list students")
	}
	lectures, err := s.lectures.List(ctx, site, classID)
	if err != nil {
		return nil, internalError(err, "failed to list lectures")
	}
	sortLecturesByDate(lectures)
	sortStudents(students)

	var columns []models.OverviewColumn
	var records []map[string]models.AttendanceRecord
	for _, lecture := range lectures {
		if !lecture.Fragmented() {
			recs, err := s.attendance.ListByStudent(ctx, site, classID, lecture.ID, 0)
			if err != nil {
				return nil, internalError(err, "failed to list attendance")
			}
			columns = append(columns, models.OverviewColumn{LectureID: lecture.ID, Title: lecture.DisplayTitle(), Date: lecture.Date})
			records = append(records, recs)
			continue
		}
		fragments, err := s.lectures.ListFragments(ctx, site, classID, lecture.ID)
		if err != nil {
			return nil, internalError(err, "failed to list fragments")
		}
		titles := make(map[int]string, len(fragments))
		for _, f := range fragments {
			titles[f.Number] = f.Title
		}
		for n := 1; n <= lecture.TotalFragments; n++ {
			title := strings.TrimSpace(titles[n])
			if title == "" {
				title = models.FragmentLabel(n)
			}
			recs, err := s.attendance.ListByStudent(ctx, site, classID, lecture.ID, n)
			if err != nil {
				return nil, internalError(err, "failed to list attendance")
			}
			columns = append(columns, models.OverviewColumn{LectureID: lecture.ID, Fragment: n, Title: title, Date: lecture.Date})
			records = append(records, recs)
		}
	}

	matrix := &models.OverviewMatrix{
		ClassID:     classID,
		Columns:     columns,
		Rows:        make([]models.OverviewRow, 0, len(students)),
		GeneratedAt: timestamp(s.now()),
	}
	if matrix.Columns == nil {
		matrix.Columns = []models.OverviewColumn{}
	}
	var present, total int
	for _, student := range students {
		row := models.OverviewRow{
			StudentID: student.ID,
			Name:      student.Name,
			Disabled:  student.Disabled(),
			Cells:     make([]models.OverviewCell, 0, len(columns)),
		}
		for i := range columns {
			var rec *models.AttendanceRecord
			if r, ok := records[i][student.ID]; ok {
				rec = &r
			}
			status := models.NormalizeAttendance(rec)
			row.Cells = append(row.Cells, overviewCell(status))
			if !student.Disabled() {
				total++
				if status.IsPresent() {
					present++
				}
			}
		}
		matrix.Rows = append(matrix.Rows, row)
	}
	matrix.PresencePercent = presencePercent(present, total)
	return matrix, nil
}

// overviewCell picks one category with the precedence makeup, late, qr,
// present. Anything that is not Present is absent.
func overviewCell(status models.AttendanceStatus) models.OverviewCell {
	category := models.CellAbsent
	tooltip := "Ausente"
	if status.IsDisabled() {
		tooltip = "Desativado"
	}
	if status.IsPresent() && status.Details != nil {
		d := status.Details
		switch {
		case d.MakeUp:
			category = models.CellMakeUp
		case d.Late:
			category = models.CellLate
		case d.ViaQR:
			category = models.CellQR
		default:
			category = models.CellPresent
		}
		parts := []string{"Presente"}
		if d.MakeUp {
			parts = append(parts, "Reposição")
		}
		if d.Late {
			parts = append(parts, "Atraso")
		}
		if d.ViaQR {
			parts = append(parts, "QR Code")
		}
		tooltip = strings.Join(parts, ", ")
		if d.Date != "" {
			tooltip += " em " + whatsapp.BRDate(d.Date)
		}
	}
	return models.OverviewCell{Category: category, Icon: category.Icon(), Tooltip: tooltip}
}

func presencePercent(present, total int) string {
	if total == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(present)/float64(total)*100)
}

// sortLecturesByDate orders lectures by date with undated ones last, then by id.
func sortLecturesByDate(lectures []models.Lecture) {
	sort.SliceStable(lectures, func(i, j int) bool {
		a, b := strings.TrimSpace(lectures[i].Date), strings.TrimSpace(lectures[j].Date)
		switch {
		case a == "" && b != "":
			return false
		case a != "" && b == "":
			return true
		case a != b:
			return a < b
		}
		return lectures[i].ID < lectures[j].ID
	})
}
