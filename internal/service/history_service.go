package service

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/whatsapp"
)

type historyLectureRepository interface {
	List(ctx context.Context, site models.SiteRef, classID string) ([]models.Lecture, error)
}

type historyAttendanceRepository interface {
	Find(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int, studentID string) (*models.AttendanceRecord, error)
}

// HistoryService assembles the attendance history of a student.
type HistoryService struct {
	classes    overviewClassRepository
	students   attendanceStudentRepository
	lectures   historyLectureRepository
	attendance historyAttendanceRepository
	logger     *zap.Logger
	location   *time.Location
	now        func() time.Time
}

// NewHistoryService constructs the service. loc is the calendar of the report date.
func NewHistoryService(classes overviewClassRepository, students attendanceStudentRepository, lectures historyLectureRepository, attendance historyAttendanceRepository, loc *time.Location, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &HistoryService{
		classes:    classes,
		students:   students,
		lectures:   lectures,
		attendance: attendance,
		logger:     logger,
		location:   loc,
		now:        time.Now,
	}
}

// History returns one record per lecture, or per fragment of a fragmented
// lecture, in lecture id order. A missing record counts as an absence.
func (s *HistoryService) History(ctx context.Context, site models.SiteRef, classID, studentID string) (*models.StudentHistory, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	class, err := s.classes.FindByID(ctx, site, classID)
	if err != nil {
		return nil, storeError(err, "class", "failed to load class")
	}
	student, err := s.students.FindByID(ctx, site, classID, studentID)
	if err != nil {
		return nil, storeError(err, "student", "failed to load student")
	}
	lectures, err := s.lectures.List(ctx, site, classID)
	if err != nil {
		return nil, internalError(err, "failed to list lectures")
	}

	history := &models.StudentHistory{
		Student:    *student,
		ClassID:    classID,
		Instructor: strings.TrimSpace(class.Owner),
		Records:    make([]models.HistoryRecord, 0, len(lectures)),
	}
	if history.Instructor == "" {
		history.Instructor = models.UnknownInstructor
	}
	for _, lecture := range lectures {
		title := historyTitle(lecture)
		scopes := []int{0}
		if lecture.Fragmented() {
			scopes = scopes[:0]
			for n := 1; n <= lecture.TotalFragments; n++ {
				scopes = append(scopes, n)
			}
		}
		for _, frag := range scopes {
			rec, err := s.attendance.Find(ctx, site, classID, lecture.ID, frag, studentID)
			if err != nil {
				return nil, internalError(err, "failed to load attendance")
			}
			entry := models.HistoryRecord{LectureID: lecture.ID, Title: title}
			if frag > 0 {
				entry.Title = title + " (" + models.FragmentLabel(frag) + ")"
			}
			status := models.NormalizeAttendance(rec)
			history.Stats.Total++
			if status.IsPresent() {
				entry.Present = true
				entry.MakeUp = status.Details.MakeUp
				entry.Late = status.Details.Late
				entry.Date = status.Details.Date
				history.Stats.Present++
				if entry.MakeUp {
					history.Stats.MakeUps++
				}
				if entry.Late {
					history.Stats.Late++
				}
			} else {
				history.Stats.Absent++
			}
			history.Records = append(history.Records, entry)
		}
	}
	if history.Stats.Total > 0 {
		history.Stats.Percentage = int(math.Round(float64(history.Stats.Present) / float64(history.Stats.Total) * 100))
	}
	return history, nil
}

// Share composes the WhatsApp history message of a student and its link.
func (s *HistoryService) Share(ctx context.Context, site models.SiteRef, classID, studentID string) (*dto.HistoryShareResponse, error) {
	history, err := s.History(ctx, site, classID, studentID)
	if err != nil {
		return nil, err
	}
	entries := make([]whatsapp.HistoryEntry, 0, len(history.Records))
	for _, r := range history.Records {
		entries = append(entries, whatsapp.HistoryEntry{
			LectureID: r.LectureID,
			Title:     r.Title,
			Present:   r.Present,
			MakeUp:    r.MakeUp,
			Late:      r.Late,
			Date:      r.Date,
		})
	}
	message := whatsapp.HistoryMessage(whatsapp.History{
		StudentName: history.Student.Name,
		Instructor:  history.Instructor,
		Stats: whatsapp.HistoryStats{
			Total:      history.Stats.Total,
			Present:    history.Stats.Present,
			Absent:     history.Stats.Absent,
			MakeUps:    history.Stats.MakeUps,
			Late:       history.Stats.Late,
			Percentage: history.Stats.Percentage,
		},
		Entries: entries,
	}, s.now().In(s.location))
	return &dto.HistoryShareResponse{
		Message: message,
		Link:    whatsapp.Link(history.Student.CountryCode, history.Student.WhatsApp, message),
	}, nil
}

func historyTitle(lecture models.Lecture) string {
	if t := strings.TrimSpace(lecture.Title); t != "" {
		return t
	}
	if t, ok := whatsapp.LessonTitle(lecture.ID); ok {
		return t
	}
	return "Palestra " + lecture.ID
}
