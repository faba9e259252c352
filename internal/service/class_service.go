package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/idgen"
	"github.com/noah-isme/class-control-api/pkg/validation"
)

// LectureTemplateCount is the number of canonical lectures every class starts with.
const LectureTemplateCount = 23

type classRepository interface {
	List(ctx context.Context, site models.SiteRef) ([]models.Class, error)
	FindByID(ctx context.Context, site models.SiteRef, id string) (*models.Class, error)
	Create(ctx context.Context, site models.SiteRef, class *models.Class) error
	Update(ctx context.Context, site models.SiteRef, id string, fields map[string]interface{}) error
}

type lectureTemplateRepository interface {
	List(ctx context.Context, site models.SiteRef, classID string) ([]models.Lecture, error)
	Template(ctx context.Context, id string) (map[string]interface{}, error)
	Put(ctx context.Context, site models.SiteRef, classID, id string, data map[string]interface{}) error
}

// ClassService coordinates class operations.
type ClassService struct {
	repo      classRepository
	lectures  lectureTemplateRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, lectures lectureTemplateRepository, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, lectures: lectures, validator: validation.New(), logger: logger}
}

// List returns the classes of the site sorted by id.
func (s *ClassService) List(ctx context.Context, site models.SiteRef) ([]models.Class, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	classes, err := s.repo.List(ctx, site)
	if err != nil {
		return nil, internalError(err, "failed to list classes")
	}
	return classes, nil
}

// Get returns a class by id.
func (s *ClassService) Get(ctx context.Context, site models.SiteRef, id string) (*models.Class, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	class, err := s.repo.FindByID(ctx, site, id)
	if err != nil {
		return nil, storeError(err, "class", "failed to load class")
	}
	return class, nil
}

// Create allocates the next T-prefixed id, stores the class and clones the
// lecture templates into it with instructor and date blanked.
func (s *ClassService) Create(ctx context.Context, site models.SiteRef, req dto.CreateClassRequest) (*dto.CreateClassResponse, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid class payload")
	}
	opening, ok := normalizeOpeningDate(req.OpeningDate)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "opening date must be DD-MM-YYYY or YYYY-MM-DD")
	}
	existing, err := s.repo.List(ctx, site)
	if err != nil {
		return nil, internalError(err, "failed to list classes")
	}
	ids := make([]string, 0, len(existing))
	for _, c := range existing {
		ids = append(ids, c.ID)
	}
	class := models.Class{
		ID:          idgen.Next(ids, "T", 3),
		Owner:       strings.TrimSpace(req.Owner),
		OpeningDate: opening,
		Location:    strings.TrimSpace(req.Location),
		Days:        joinDays(req.Days),
		Time:        strings.TrimSpace(req.Time),
		Topic:       strings.TrimSpace(req.Topic),
		Notes:       strings.TrimSpace(req.Notes),
	}
	if class.Time == "" {
		class.Time = models.DefaultClassTime
	}
	if err := s.repo.Create(ctx, site, &class); err != nil {
		return nil, internalError(err, "failed to create class")
	}

	resp := &dto.CreateClassResponse{Class: class, LecturesCreated: []string{}}
	for i := 1; i <= LectureTemplateCount; i++ {
		lectureID := fmt.Sprintf("%02d", i)
		data, err := s.lectures.Template(ctx, lectureID)
		if err != nil {
			if !errors.Is(err, docstore.ErrNotFound) {
				s.logger.Warn("lecture template unreadable", zap.String("lecture_id", lectureID), zap.Error(err))
			}
			resp.MissingLectures = append(resp.MissingLectures, lectureID)
			continue
		}
		data["instrutor"] = ""
		data["data"] = ""
		if err := s.lectures.Put(ctx, site, class.ID, lectureID, data); err != nil {
			s.logger.Warn("lecture clone failed", zap.String("class_id", class.ID), zap.String("lecture_id", lectureID), zap.Error(err))
			resp.MissingLectures = append(resp.MissingLectures, lectureID)
			continue
		}
		resp.LecturesCreated = append(resp.LecturesCreated, lectureID)
	}
	s.logger.Info("class created",
		zap.String("class_id", class.ID),
		zap.Int("lectures", len(resp.LecturesCreated)),
	)
	return resp, nil
}

// Update merges the provided fields into the class.
func (s *ClassService) Update(ctx context.Context, site models.SiteRef, id string, req dto.UpdateClassRequest) (*models.Class, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid class payload")
	}
	fields := map[string]interface{}{}
	if req.Owner != nil {
		fields["responsavel"] = strings.TrimSpace(*req.Owner)
	}
	if req.OpeningDate != nil {
		opening, ok := normalizeOpeningDate(*req.OpeningDate)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "opening date must be DD-MM-YYYY or YYYY-MM-DD")
		}
		fields["dataAbertura"] = opening
	}
	if req.Location != nil {
		fields["local"] = strings.TrimSpace(*req.Location)
	}
	if len(req.Days) > 0 {
		fields["dias"] = joinDays(req.Days)
	}
	if req.Time != nil {
		fields["horario"] = strings.TrimSpace(*req.Time)
	}
	if req.Topic != nil {
		fields["tema"] = strings.TrimSpace(*req.Topic)
	}
	if req.Notes != nil {
		fields["obs"] = strings.TrimSpace(*req.Notes)
	}
	if len(fields) > 0 {
		if err := s.repo.Update(ctx, site, id, fields); err != nil {
			return nil, storeError(err, "class", "failed to update class")
		}
	}
	return s.Get(ctx, site, id)
}

// Lectures returns the lectures of the class ordered by id.
func (s *ClassService) Lectures(ctx context.Context, site models.SiteRef, classID string) ([]models.Lecture, error) {
	if _, err := s.Get(ctx, site, classID); err != nil {
		return nil, err
	}
	lectures, err := s.lectures.List(ctx, site, classID)
	if err != nil {
		return nil, internalError(err, "failed to list lectures")
	}
	sort.Slice(lectures, func(i, j int) bool { return lectures[i].ID < lectures[j].ID })
	return lectures, nil
}

func joinDays(days []string) string {
	cleaned := make([]string, 0, len(days))
	for _, d := range days {
		if d = strings.TrimSpace(d); d != "" {
			cleaned = append(cleaned, d)
		}
	}
	return strings.Join(cleaned, " e ")
}
