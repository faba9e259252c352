package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/idgen"
	"github.com/noah-isme/class-control-api/pkg/validation"
	"github.com/noah-isme/class-control-api/pkg/whatsapp"
)

type studentRepository interface {
	List(ctx context.Context, site models.SiteRef, classID string) ([]models.Student, error)
	FindByID(ctx context.Context, site models.SiteRef, classID, id string) (*models.Student, error)
	Create(ctx context.Context, site models.SiteRef, classID string, student *models.Student) error
	Update(ctx context.Context, site models.SiteRef, classID, id string, fields map[string]interface{}) error
}

type studentClassReader interface {
	FindByID(ctx context.Context, site models.SiteRef, id string) (*models.Class, error)
}

type studentLectureReader interface {
	List(ctx context.Context, site models.SiteRef, classID string) ([]models.Lecture, error)
}

type placeholderWriter interface {
	Merge(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int, studentID string, fields map[string]interface{}) error
}

// StudentService provides student management.
type StudentService struct {
	repo       studentRepository
	classes    studentClassReader
	lectures   studentLectureReader
	attendance placeholderWriter
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, classes studentClassReader, lectures studentLectureReader, attendance placeholderWriter, cache *CacheService, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:       repo,
		classes:    classes,
		lectures:   lectures,
		attendance: attendance,
		cache:      cache,
		validator:  validation.New(),
		logger:     logger,
	}
}

// List returns the students of a class sorted by name.
func (s *StudentService) List(ctx context.Context, site models.SiteRef, classID string) ([]models.Student, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	students, err := s.repo.List(ctx, site, classID)
	if err != nil {
		return nil, internalError(err, "failed to list students")
	}
	sortStudents(students)
	return students, nil
}

// Get returns a student.
func (s *StudentService) Get(ctx context.Context, site models.SiteRef, classID, id string) (*models.Student, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	student, err := s.repo.FindByID(ctx, site, classID, id)
	if err != nil {
		return nil, storeError(err, "student", "failed to load student")
	}
	return student, nil
}

// Create enrols a student under the next A-prefixed id of the class and
// writes an absent placeholder under every existing lecture.
func (s *StudentService) Create(ctx context.Context, site models.SiteRef, classID string, req dto.CreateStudentRequest) (*models.Student, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	countryCode := whatsapp.Digits(req.CountryCode)
	if countryCode == "" {
		countryCode = whatsapp.DefaultCountryCode
	}
	number := whatsapp.Digits(req.WhatsApp)
	if err := s.checkPhone(countryCode, number); err != nil {
		return nil, err
	}
	if _, err := s.classes.FindByID(ctx, site, classID); err != nil {
		return nil, storeError(err, "class", "failed to load class")
	}
	existing, err := s.repo.List(ctx, site, classID)
	if err != nil {
		return nil, internalError(err, "failed to list students")
	}
	ids := make([]string, 0, len(existing))
	for _, st := range existing {
		ids = append(ids, st.ID)
	}
	student := models.Student{
		ID:          idgen.Next(ids, "A", 3),
		Name:        strings.TrimSpace(req.Name),
		WhatsApp:    number,
		CountryCode: countryCode,
		Status:      models.StudentActive,
	}
	if err := s.repo.Create(ctx, site, classID, &student); err != nil {
		return nil, internalError(err, "failed to create student")
	}

	lectures, err := s.lectures.List(ctx, site, classID)
	if err != nil {
		s.logger.Warn("attendance placeholders skipped", zap.String("student_id", student.ID), zap.Error(err))
		return &student, nil
	}
	placeholder := models.AttendanceRecord{StudentID: student.ID, Status: models.AttendanceAbsent}.Fields()
	for _, lecture := range lectures {
		scopes := []int{0}
		if lecture.Fragmented() {
			scopes = scopes[:0]
			for n := 1; n <= lecture.TotalFragments; n++ {
				scopes = append(scopes, n)
			}
		}
		for _, frag := range scopes {
			if err := s.attendance.Merge(ctx, site, classID, lecture.ID, frag, student.ID, placeholder); err != nil {
				s.logger.Warn("attendance placeholder failed",
					zap.String("student_id", student.ID),
					zap.String("lecture_id", lecture.ID),
					zap.Error(err),
				)
			}
		}
	}
	s.cache.InvalidateOverview(ctx, site, classID)
	return &student, nil
}

// Update merges the provided fields into the student.
func (s *StudentService) Update(ctx context.Context, site models.SiteRef, classID, id string, req dto.UpdateStudentRequest) (*models.Student, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	current, err := s.repo.FindByID(ctx, site, classID, id)
	if err != nil {
		return nil, storeError(err, "student", "failed to load student")
	}
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["nome"] = strings.TrimSpace(*req.Name)
	}
	countryCode := current.CountryCode
	if req.CountryCode != nil {
		countryCode = whatsapp.Digits(*req.CountryCode)
		fields["codigoPais"] = countryCode
	}
	if req.WhatsApp != nil || req.CountryCode != nil {
		number := current.WhatsApp
		if req.WhatsApp != nil {
			number = whatsapp.Digits(*req.WhatsApp)
			fields["whatsapp"] = number
		}
		if err := s.checkPhone(countryCode, number); err != nil {
			return nil, err
		}
	}
	if len(fields) > 0 {
		if err := s.repo.Update(ctx, site, classID, id, fields); err != nil {
			return nil, storeError(err, "student", "failed to update student")
		}
		s.cache.InvalidateOverview(ctx, site, classID)
	}
	return s.Get(ctx, site, classID, id)
}

func (s *StudentService) checkPhone(countryCode, number string) error {
	if countryCode == "" {
		countryCode = whatsapp.DefaultCountryCode
	}
	if err := s.validator.Var("+"+countryCode+number, "intlphone"); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "whatsapp must be a country code followed by 8 to 15 digits")
	}
	return nil
}
