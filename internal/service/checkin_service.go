package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/whatsapp"
)

var checkInCodePattern = regexp.MustCompile(`^(\p{L}+)(\d{4})$`)

// CheckInService lets students mark their own presence from a lecture link.
type CheckInService struct {
	students   attendanceStudentRepository
	lectures   attendanceLectureRepository
	attendance attendanceRecordRepository
	cache      *CacheService
	metrics    *MetricsService
	baseURL    string
	location   *time.Location
	logger     *zap.Logger
	now        func() time.Time
}

// NewCheckInService constructs the service. baseURL prefixes generated links.
func NewCheckInService(students attendanceStudentRepository, lectures attendanceLectureRepository, attendance attendanceRecordRepository, cache *CacheService, metrics *MetricsService, baseURL string, loc *time.Location, logger *zap.Logger) *CheckInService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CheckInService{
		students:   students,
		lectures:   lectures,
		attendance: attendance,
		cache:      cache,
		metrics:    metrics,
		baseURL:    strings.TrimRight(baseURL, "/"),
		location:   loc,
		logger:     logger,
		now:        time.Now,
	}
}

// CheckInLink builds the link students open to check in to the lecture.
func (s *CheckInService) CheckInLink(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int, instructor string) (*dto.CheckInLinkResponse, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	lecture, err := s.lectures.FindByID(ctx, site, classID, lectureID)
	if err != nil {
		return nil, storeError(err, "lecture", "failed to load lecture")
	}
	frag, err := effectiveFragment(*lecture, fragment)
	if err != nil {
		return nil, err
	}
	title := lecture.DisplayTitle()
	if frag > 0 {
		title = title + " (" + models.FragmentLabel(frag) + ")"
	}
	raw, err := json.Marshal(models.CheckInPayload{
		Country:      site.Country,
		State:        site.State,
		Site:         site.Site,
		ClassID:      classID,
		LectureID:    lectureID,
		Fragment:     frag,
		LectureTitle: title,
		Instructor:   instructor,
	})
	if err != nil {
		return nil, internalError(err, "failed to encode check-in payload")
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return &dto.CheckInLinkResponse{
		Link:    s.baseURL + "/checkin?d=" + url.QueryEscape(payload),
		Payload: payload,
	}, nil
}

// CheckInQR renders the check-in link as a PNG.
func (s *CheckInService) CheckInQR(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int, instructor string) ([]byte, error) {
	link, err := s.CheckInLink(ctx, site, classID, lectureID, fragment, instructor)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(link.Link, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, internalError(err, "failed to render qr code")
	}
	return png, nil
}

// CheckIn validates the student code against the class roster and marks the
// student present. The code is the first name followed by the last four
// digits of the WhatsApp number.
func (s *CheckInService) CheckIn(ctx context.Context, req dto.CheckInRequest) (*dto.CheckInResponse, error) {
	payload, err := decodeCheckInPayload(req.Payload)
	if err != nil {
		s.metrics.RecordCheckIn(outcomeFailure)
		return nil, err
	}
	site := payload.SiteRef()
	if err := checkSite(site); err != nil {
		s.metrics.RecordCheckIn(outcomeFailure)
		return nil, err
	}
	name, digits, ok := parseCheckInCode(req.Code)
	if !ok {
		s.metrics.RecordCheckIn(outcomeFailure)
		return nil, appErrors.Clone(appErrors.ErrValidation, "code must be letters followed by 4 digits")
	}

	lecture, err := s.lectures.FindByID(ctx, site, payload.ClassID, payload.LectureID)
	if err != nil {
		s.metrics.RecordCheckIn(outcomeFailure)
		return nil, storeError(err, "lecture", "failed to load lecture")
	}
	frag, err := effectiveFragment(*lecture, payload.Fragment)
	if err != nil {
		s.metrics.RecordCheckIn(outcomeFailure)
		return nil, err
	}

	students, err := s.students.List(ctx, site, payload.ClassID)
	if err != nil {
		s.metrics.RecordCheckIn(outcomeFailure)
		return nil, internalError(err, "failed to list students")
	}
	student, err := matchStudent(students, name, digits)
	if err != nil {
		s.metrics.RecordCheckIn(outcomeRefused)
		return nil, err
	}

	current, err := s.attendance.Find(ctx, site, payload.ClassID, lecture.ID, frag, student.ID)
	if err != nil {
		s.metrics.RecordCheckIn(outcomeFailure)
		return nil, internalError(err, "failed to load attendance")
	}
	if current != nil && current.Status == models.AttendancePresent {
		s.metrics.RecordCheckIn(outcomeRefused)
		return nil, appErrors.Clone(appErrors.ErrAlreadyPresent, "attendance already registered for this lecture")
	}

	now := s.now()
	today := now.In(s.location).Format(isoDate)
	record := models.AttendanceRecord{
		StudentID:    student.ID,
		Status:       models.AttendancePresent,
		Date:         today,
		Instructor:   payload.Instructor,
		ViaQR:        true,
		RegisteredAt: timestamp(now),
	}
	if err := s.attendance.Merge(ctx, site, payload.ClassID, lecture.ID, frag, student.ID, record.Fields()); err != nil {
		s.metrics.RecordCheckIn(outcomeFailure)
		return nil, internalError(err, "failed to register attendance")
	}
	s.cache.InvalidateOverview(ctx, site, payload.ClassID)
	s.metrics.RecordCheckIn(outcomeSuccess)
	s.logger.Info("self check-in",
		zap.String("class_id", payload.ClassID),
		zap.String("lecture_id", lecture.ID),
		zap.Int("fragment", frag),
		zap.String("student_id", student.ID),
	)

	title := payload.LectureTitle
	if title == "" {
		title = lecture.DisplayTitle()
	}
	return &dto.CheckInResponse{
		StudentID:    student.ID,
		StudentName:  student.Name,
		LectureID:    lecture.ID,
		LectureTitle: title,
		Fragment:     frag,
		Date:         today,
	}, nil
}

func decodeCheckInPayload(raw string) (*models.CheckInPayload, error) {
	raw = strings.TrimSpace(raw)
	if unescaped, err := url.QueryUnescape(raw); err == nil {
		raw = unescaped
	}
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil {
		if decoded, err = base64.StdEncoding.DecodeString(raw); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in link")
		}
	}
	var payload models.CheckInPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in link")
	}
	if payload.ClassID == "" || payload.LectureID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid check-in link")
	}
	return &payload, nil
}

// parseCheckInCode strips punctuation and splits the code into the folded
// name and the four digits.
func parseCheckInCode(code string) (string, string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, code)
	match := checkInCodePattern.FindStringSubmatch(cleaned)
	if match == nil {
		return "", "", false
	}
	return foldName(match[1]), match[2], true
}

// matchStudent finds the student whose folded first name and WhatsApp suffix
// match. A disabled student is refused only when both match and no active
// classmate does.
func matchStudent(students []models.Student, name, digits string) (*models.Student, error) {
	var disabled bool
	for i := range students {
		student := students[i]
		if foldName(firstName(student.Name)) != name {
			continue
		}
		phone := whatsapp.Digits(student.WhatsApp)
		if len(phone) < 4 || phone[len(phone)-4:] != digits {
			continue
		}
		if student.Disabled() {
			disabled = true
			continue
		}
		return &student, nil
	}
	if disabled {
		return nil, appErrors.Clone(appErrors.ErrStudentDisabled, "student is disabled, contact the instructor")
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "name or last 4 whatsapp digits do not match")
}

// foldName lowercases and removes diacritics.
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
