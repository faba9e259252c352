package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/validation"
	"github.com/noah-isme/class-control-api/pkg/whatsapp"
)

type attendanceStudentRepository interface {
	List(ctx context.Context, site models.SiteRef, classID string) ([]models.Student, error)
	FindByID(ctx context.Context, site models.SiteRef, classID, id string) (*models.Student, error)
}

type attendanceLectureRepository interface {
	FindByID(ctx context.Context, site models.SiteRef, classID, id string) (*models.Lecture, error)
}

type attendanceRecordRepository interface {
	ListByStudent(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int) (map[string]models.AttendanceRecord, error)
	Find(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int, studentID string) (*models.AttendanceRecord, error)
	Merge(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int, studentID string, fields map[string]interface{}) error
}

// AttendanceService reconciles students with their attendance records and
// applies attendance changes.
type AttendanceService struct {
	students   attendanceStudentRepository
	lectures   attendanceLectureRepository
	attendance attendanceRecordRepository
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	location   *time.Location
	now        func() time.Time
}

// AttendanceServiceOption customises the service.
type AttendanceServiceOption func(*AttendanceService)

// WithAttendanceLocation sets the calendar used for "today".
func WithAttendanceLocation(loc *time.Location) AttendanceServiceOption {
	return func(s *AttendanceService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithAttendanceClock overrides the time source.
func WithAttendanceClock(now func() time.Time) AttendanceServiceOption {
	return func(s *AttendanceService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAttendanceService constructs the service.
func NewAttendanceService(students attendanceStudentRepository, lectures attendanceLectureRepository, attendance attendanceRecordRepository, cache *CacheService, logger *zap.Logger, opts ...AttendanceServiceOption) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AttendanceService{
		students:   students,
		lectures:   lectures,
		attendance: attendance,
		cache:      cache,
		validator:  validation.New(),
		logger:     logger,
		location:   time.UTC,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reconcile lists every student of the class with their effective status for
// the lecture, or fragment when the lecture is fragmented. Students are sorted
// by name, then id. A missing class or lecture yields an empty list.
func (s *AttendanceService) Reconcile(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int) ([]models.StudentAttendance, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	lecture, err := s.lectures.FindByID(ctx, site, classID, lectureID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return []models.StudentAttendance{}, nil
		}
		return nil, internalError(err, "failed to load lecture")
	}
	frag, err := effectiveFragment(*lecture, fragment)
	if err != nil {
		return nil, err
	}
	students, err := s.students.List(ctx, site, classID)
	if err != nil {
		return nil, internalError(err, "failed to list students")
	}
	records, err := s.attendance.ListByStudent(ctx, site, classID, lectureID, frag)
	if err != nil {
		return nil, internalError(err, "failed to list attendance")
	}

	sortStudents(students)
	result := make([]models.StudentAttendance, 0, len(students))
	for _, student := range students {
		var rec *models.AttendanceRecord
		if r, ok := records[student.ID]; ok {
			rec = &r
		}
		result = append(result, models.StudentAttendance{Student: student, Status: effectiveStatus(student, rec)})
	}
	return result, nil
}

// ToggleInput identifies the attendance being flipped.
type ToggleInput struct {
	Site      models.SiteRef
	ClassID   string
	LectureID string
	StudentID string
	Actor     string
	dto.ToggleAttendanceRequest
}

// Toggle flips a student between present and absent. Present records get the
// local date and the acting instructor, absent records have both cleared. The
// make-up, late and QR flags are left as they are.
func (s *AttendanceService) Toggle(ctx context.Context, in ToggleInput) (*models.StudentAttendance, error) {
	if err := s.validator.Struct(in.ToggleAttendanceRequest); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	student, lecture, frag, rec, err := s.load(ctx, in.Site, in.ClassID, in.LectureID, in.StudentID, in.Fragment)
	if err != nil {
		return nil, err
	}
	current := effectiveStatus(*student, rec)
	if current.IsDisabled() {
		return nil, appErrors.ErrStudentDisabled
	}

	fields := map[string]interface{}{"alunoId": student.ID}
	if current.IsPresent() {
		fields["status"] = models.AttendanceAbsent
		fields["data"] = ""
		fields["instrutor"] = ""
	} else {
		fields["status"] = models.AttendancePresent
		fields["data"] = s.localDate(in.Date)
		fields["instrutor"] = strings.TrimSpace(in.Actor)
	}
	if err := s.attendance.Merge(ctx, in.Site, in.ClassID, lecture.ID, frag, student.ID, fields); err != nil {
		return nil, internalError(err, "failed to update attendance")
	}
	s.cache.InvalidateOverview(ctx, in.Site, in.ClassID)

	updated := mergeRecord(rec, fields)
	s.logger.Debug("attendance toggled",
		zap.String("class_id", in.ClassID),
		zap.String("lecture_id", lecture.ID),
		zap.Int("fragment", frag),
		zap.String("student_id", student.ID),
		zap.String("status", updated.Status),
	)
	return &models.StudentAttendance{Student: *student, Status: models.NormalizeAttendance(&updated)}, nil
}

// ExtrasInput records a make-up or late arrival.
type ExtrasInput struct {
	Site      models.SiteRef
	ClassID   string
	LectureID string
	StudentID string
	dto.AttendanceExtrasRequest
}

// UpdateExtras marks the student present with the given date, instructor and
// make-up and late flags.
func (s *AttendanceService) UpdateExtras(ctx context.Context, in ExtrasInput) (*models.StudentAttendance, error) {
	if err := s.validator.Struct(in.AttendanceExtrasRequest); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	student, lecture, frag, rec, err := s.load(ctx, in.Site, in.ClassID, in.LectureID, in.StudentID, in.Fragment)
	if err != nil {
		return nil, err
	}
	if effectiveStatus(*student, rec).IsDisabled() {
		return nil, appErrors.ErrStudentDisabled
	}
	fields := map[string]interface{}{
		"alunoId":   student.ID,
		"status":    models.AttendancePresent,
		"data":      in.Date,
		"instrutor": strings.TrimSpace(in.Instructor),
		"reposicao": in.MakeUp,
		"atraso":    in.Late,
	}
	if err := s.attendance.Merge(ctx, in.Site, in.ClassID, lecture.ID, frag, student.ID, fields); err != nil {
		return nil, internalError(err, "failed to update attendance")
	}
	s.cache.InvalidateOverview(ctx, in.Site, in.ClassID)
	updated := mergeRecord(rec, fields)
	return &models.StudentAttendance{Student: *student, Status: models.NormalizeAttendance(&updated)}, nil
}

func (s *AttendanceService) load(ctx context.Context, site models.SiteRef, classID, lectureID, studentID string, fragment int) (*models.Student, *models.Lecture, int, *models.AttendanceRecord, error) {
	if err := checkSite(site); err != nil {
		return nil, nil, 0, nil, err
	}
	student, err := s.students.FindByID(ctx, site, classID, studentID)
	if err != nil {
		return nil, nil, 0, nil, storeError(err, "student", "failed to load student")
	}
	lecture, err := s.lectures.FindByID(ctx, site, classID, lectureID)
	if err != nil {
		return nil, nil, 0, nil, storeError(err, "lecture", "failed to load lecture")
	}
	frag, err := effectiveFragment(*lecture, fragment)
	if err != nil {
		return nil, nil, 0, nil, err
	}
	rec, err := s.attendance.Find(ctx, site, classID, lectureID, frag, studentID)
	if err != nil {
		return nil, nil, 0, nil, internalError(err, "failed to load attendance")
	}
	return student, lecture, frag, rec, nil
}

// localDate returns requested when set, today in the configured calendar otherwise.
func (s *AttendanceService) localDate(requested string) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}
	return s.now().In(s.location).Format(isoDate)
}

// effectiveStatus treats every record of a disabled student as Disabled.
func effectiveStatus(student models.Student, rec *models.AttendanceRecord) models.AttendanceStatus {
	if student.Disabled() {
		return models.Disabled()
	}
	return models.NormalizeAttendance(rec)
}

func mergeRecord(rec *models.AttendanceRecord, fields map[string]interface{}) models.AttendanceRecord {
	var out models.AttendanceRecord
	if rec != nil {
		out = *rec
	}
	f := docstore.Fields(fields)
	out.StudentID = f.String("alunoId")
	out.Status = f.String("status")
	out.Date = f.String("data")
	out.Instructor = f.String("instrutor")
	if f.Has("reposicao") {
		out.MakeUp = f.Bool("reposicao")
	}
	if f.Has("atraso") {
		out.Late = f.Bool("atraso")
	}
	return out
}

func sortStudents(students []models.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		a, b := strings.ToLower(students[i].Name), strings.ToLower(students[j].Name)
		if a != b {
			return a < b
		}
		return students[i].ID < students[j].ID
	})
}

// MessageLink composes a WhatsApp message of the given kind about the lecture
// for the student and returns it with its deep link.
func (s *AttendanceService) MessageLink(ctx context.Context, site models.SiteRef, classID, lectureID, studentID string, kind whatsapp.MessageKind) (*dto.NotificationLinkResponse, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown message kind")
	}
	student, lecture, _, _, err := s.load(ctx, site, classID, lectureID, studentID, 0)
	if err != nil {
		return nil, err
	}
	message := whatsapp.LectureMessage(kind, firstName(student.Name), historyTitle(*lecture), s.now().In(s.location))
	return &dto.NotificationLinkResponse{
		Link:    whatsapp.Link(student.CountryCode, student.WhatsApp, message),
		Message: message,
	}, nil
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}
