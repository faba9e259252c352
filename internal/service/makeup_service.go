package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/validation"
	"github.com/noah-isme/class-control-api/pkg/whatsapp"
)

type makeUpRepository interface {
	List(ctx context.Context, site models.SiteRef, classID string) ([]models.MakeUpEntry, error)
	FindByID(ctx context.Context, site models.SiteRef, classID, id string) (*models.MakeUpEntry, error)
	Create(ctx context.Context, site models.SiteRef, classID string, entry *models.MakeUpEntry) error
	Update(ctx context.Context, site models.SiteRef, classID, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, site models.SiteRef, classID, id string) error
}

type makeUpLectureRepository interface {
	List(ctx context.Context, site models.SiteRef, classID string) ([]models.Lecture, error)
	FindByID(ctx context.Context, site models.SiteRef, classID, id string) (*models.Lecture, error)
}

type makeUpAttendanceRepository interface {
	List(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int) ([]models.AttendanceRecord, error)
}

// MakeUpService computes unresolved absences and manages make-up entries.
type MakeUpService struct {
	entries    makeUpRepository
	students   attendanceStudentRepository
	lectures   makeUpLectureRepository
	attendance makeUpAttendanceRepository
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// MakeUpServiceOption customises the service.
type MakeUpServiceOption func(*MakeUpService)

// WithMakeUpClock overrides the time source.
func WithMakeUpClock(now func() time.Time) MakeUpServiceOption {
	return func(s *MakeUpService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMakeUpService constructs the service.
func NewMakeUpService(entries makeUpRepository, students attendanceStudentRepository, lectures makeUpLectureRepository, attendance makeUpAttendanceRepository, logger *zap.Logger, opts ...MakeUpServiceOption) *MakeUpService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MakeUpService{
		entries:    entries,
		students:   students,
		lectures:   lectures,
		attendance: attendance,
		validator:  validation.New(),
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Absences lists, for every student with at least one, the absences in held
// lectures. A lecture, or a fragment of a fragmented lecture, is held once any
// of its records carries a date. Disabled students and records never count.
// Students with most absences come first, ties ordered by name.
func (s *MakeUpService) Absences(ctx context.Context, site models.SiteRef, classID string) ([]models.StudentAbsences, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	students, err := s.students.List(ctx, site, classID)
	if err != nil {
		return nil, internalError(err, "failed to list students")
	}
	lectures, err := s.lectures.List(ctx, site, classID)
	if err != nil {
		return nil, internalError(err, "failed to list lectures")
	}

	absences := make(map[string][]models.Absence, len(students))
	for _, lecture := range lectures {
		scopes := []int{0}
		if lecture.Fragmented() {
			scopes = scopes[:0]
			for n := 1; n <= lecture.TotalFragments; n++ {
				scopes = append(scopes, n)
			}
		}
		for _, frag := range scopes {
			records, err := s.attendance.List(ctx, site, classID, lecture.ID, frag)
			if err != nil {
				return nil, internalError(err, "failed to list attendance")
			}
			heldOn, held := heldDate(records)
			if !held {
				continue
			}
			if heldOn == "" {
				heldOn = lecture.Date
			}
			byStudent := make(map[string]*models.AttendanceRecord, len(records))
			for i := range records {
				byStudent[records[i].StudentID] = &records[i]
			}
			for _, student := range students {
				rec := byStudent[student.ID]
				if !effectiveStatus(student, rec).IsAbsent() {
					continue
				}
				date := heldOn
				if rec != nil && rec.Dated() {
					date = rec.Date
				}
				absences[student.ID] = append(absences[student.ID], models.Absence{
					LectureID:    lecture.ID,
					LectureTitle: lecture.DisplayTitle(),
					Fragment:     frag,
					Date:         date,
				})
			}
		}
	}

	out := make([]models.StudentAbsences, 0, len(absences))
	for _, student := range students {
		list := absences[student.ID]
		if len(list) == 0 {
			continue
		}
		out = append(out, models.StudentAbsences{
			StudentID:   student.ID,
			Name:        student.Name,
			WhatsApp:    student.WhatsApp,
			CountryCode: student.CountryCode,
			Absences:    list,
			Total:       len(list),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// heldDate reports whether any record is dated and returns the first date.
func heldDate(records []models.AttendanceRecord) (string, bool) {
	for _, rec := range records {
		if rec.Dated() {
			return strings.TrimSpace(rec.Date), true
		}
	}
	return "", false
}

// Schedule creates a pending entry. With Notify the WhatsApp message and link
// are composed and the entry records that a link was issued; the sent flag is
// written later by MarkNotified.
func (s *MakeUpService) Schedule(ctx context.Context, site models.SiteRef, classID string, req dto.ScheduleMakeUpRequest) (*dto.ScheduleMakeUpResponse, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid makeup payload")
	}
	student, err := s.students.FindByID(ctx, site, classID, req.StudentID)
	if err != nil {
		return nil, storeError(err, "student", "failed to load student")
	}
	lecture, err := s.lectures.FindByID(ctx, site, classID, req.LectureID)
	if err != nil {
		return nil, storeError(err, "lecture", "failed to load lecture")
	}

	now := s.now()
	fragment := req.Fragment
	if fragment <= 0 {
		fragment = 1
	}
	entry := models.MakeUpEntry{
		ID:            uuid.NewString(),
		StudentID:     student.ID,
		StudentName:   student.Name,
		LectureID:     lecture.ID,
		LectureTitle:  lecture.DisplayTitle(),
		Fragment:      fragment,
		ScheduledDate: req.ScheduledDate,
		Instructor:    strings.TrimSpace(req.Instructor),
		Notes:         strings.TrimSpace(req.Notes),
		Status:        models.MakeUpPending,
		CreatedAt:     timestamp(now),
		UpdatedAt:     timestamp(now),
	}
	resp := &dto.ScheduleMakeUpResponse{}
	if req.Notify {
		resp.Message = makeUpMessage(entry)
		resp.WhatsAppLink = whatsapp.Link(student.CountryCode, student.WhatsApp, resp.Message)
		entry.LinkIssuedAt = timestamp(now)
	}
	if err := s.entries.Create(ctx, site, classID, &entry); err != nil {
		return nil, internalError(err, "failed to create makeup")
	}
	resp.Entry = dto.NewMakeUpView(entry)
	s.logger.Info("makeup scheduled",
		zap.String("class_id", classID),
		zap.String("makeup_id", entry.ID),
		zap.Bool("notify", req.Notify),
	)
	return resp, nil
}

// MarkNotified moves an entry from Scheduled to NotificationSent. Calling it
// again keeps the first timestamp.
func (s *MakeUpService) MarkNotified(ctx context.Context, site models.SiteRef, classID, id string) (*dto.MakeUpView, error) {
	entry, err := s.find(ctx, site, classID, id)
	if err != nil {
		return nil, err
	}
	if entry.State() == models.NotificationSent {
		view := dto.NewMakeUpView(*entry)
		return &view, nil
	}
	now := timestamp(s.now())
	fields := map[string]interface{}{
		"whatsappEnviado":   true,
		"dataEnvioWhatsApp": now,
		"dataAtualizacao":   now,
	}
	if err := s.entries.Update(ctx, site, classID, id, fields); err != nil {
		return nil, storeError(err, "makeup", "failed to mark makeup notified")
	}
	entry.NotificationSent = true
	entry.NotifiedAt = now
	entry.UpdatedAt = now
	view := dto.NewMakeUpView(*entry)
	return &view, nil
}

// List returns the entries of a class, most recently created first.
func (s *MakeUpService) List(ctx context.Context, site models.SiteRef, classID string) ([]dto.MakeUpView, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	entries, err := s.entries.List(ctx, site, classID)
	if err != nil {
		return nil, internalError(err, "failed to list makeups")
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return parseTimestamp(entries[i].CreatedAt).After(parseTimestamp(entries[j].CreatedAt))
	})
	views := make([]dto.MakeUpView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, dto.NewMakeUpView(entry))
	}
	return views, nil
}

// Update changes the status, date, instructor or notes of an entry.
func (s *MakeUpService) Update(ctx context.Context, site models.SiteRef, classID, id string, req dto.UpdateMakeUpRequest) (*dto.MakeUpView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid makeup payload")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown makeup status")
	}
	if _, err := s.find(ctx, site, classID, id); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{"dataAtualizacao": timestamp(s.now())}
	if req.Status != nil {
		fields["status"] = string(*req.Status)
	}
	if req.ScheduledDate != nil {
		fields["dataAgendada"] = *req.ScheduledDate
	}
	if req.Instructor != nil {
		fields["instrutor"] = strings.TrimSpace(*req.Instructor)
	}
	if req.Notes != nil {
		fields["observacoes"] = strings.TrimSpace(*req.Notes)
	}
	if err := s.entries.Update(ctx, site, classID, id, fields); err != nil {
		return nil, storeError(err, "makeup", "failed to update makeup")
	}
	entry, err := s.find(ctx, site, classID, id)
	if err != nil {
		return nil, err
	}
	view := dto.NewMakeUpView(*entry)
	return &view, nil
}

// Remove deletes an entry by id.
func (s *MakeUpService) Remove(ctx context.Context, site models.SiteRef, classID, id string) error {
	if _, err := s.find(ctx, site, classID, id); err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, site, classID, id); err != nil {
		return internalError(err, "failed to delete makeup")
	}
	return nil
}

// NotificationLink recomposes the WhatsApp link of an entry. An entry not yet
// marked as sent records that a link was issued.
func (s *MakeUpService) NotificationLink(ctx context.Context, site models.SiteRef, classID, id string) (*dto.NotificationLinkResponse, error) {
	entry, err := s.find(ctx, site, classID, id)
	if err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, site, classID, entry.StudentID)
	if err != nil {
		return nil, storeError(err, "student", "failed to load student")
	}
	message := makeUpMessage(*entry)
	if entry.State() == models.NotificationScheduled {
		if err := s.entries.Update(ctx, site, classID, id, map[string]interface{}{"linkGeradoEm": timestamp(s.now())}); err != nil {
			return nil, storeError(err, "makeup", "failed to update makeup")
		}
	}
	return &dto.NotificationLinkResponse{
		Link:    whatsapp.Link(student.CountryCode, student.WhatsApp, message),
		Message: message,
	}, nil
}

func (s *MakeUpService) find(ctx context.Context, site models.SiteRef, classID, id string) (*models.MakeUpEntry, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	entry, err := s.entries.FindByID(ctx, site, classID, id)
	if err != nil {
		return nil, storeError(err, "makeup", "failed to load makeup")
	}
	return entry, nil
}

func makeUpMessage(entry models.MakeUpEntry) string {
	return whatsapp.MakeUpMessage(whatsapp.MakeUp{
		StudentName:  entry.StudentName,
		LectureTitle: entry.LectureTitle,
		Date:         entry.ScheduledDate,
		Instructor:   entry.Instructor,
		Notes:        entry.Notes,
	})
}

func parseTimestamp(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
