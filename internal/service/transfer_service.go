package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/idgen"
)

type batcher interface {
	Batch() docstore.Batch
}

type transferClassRepository interface {
	List(ctx context.Context, site models.SiteRef) ([]models.Class, error)
	FindByID(ctx context.Context, site models.SiteRef, id string) (*models.Class, error)
}

type transferStudentRepository interface {
	List(ctx context.Context, site models.SiteRef, classID string) ([]models.Student, error)
	FindByID(ctx context.Context, site models.SiteRef, classID, id string) (*models.Student, error)
	Count(ctx context.Context, site models.SiteRef, classID string) (int, error)
	StageCreate(b docstore.Batch, site models.SiteRef, classID string, student models.Student) error
	StageDelete(b docstore.Batch, site models.SiteRef, classID, id string)
}

type transferLectureRepository interface {
	List(ctx context.Context, site models.SiteRef, classID string) ([]models.Lecture, error)
}

type transferAttendanceRepository interface {
	Raw(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int, studentID string) (map[string]interface{}, error)
	StageSet(b docstore.Batch, site models.SiteRef, classID, lectureID string, fragment int, studentID string, data map[string]interface{})
	StageDelete(b docstore.Batch, site models.SiteRef, classID, lectureID string, fragment int, studentID string)
}

// TransferService moves a student between classes of the same site in a
// single atomic batch.
type TransferService struct {
	batcher    batcher
	classes    transferClassRepository
	students   transferStudentRepository
	lectures   transferLectureRepository
	attendance transferAttendanceRepository
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewTransferService constructs the service.
func NewTransferService(b batcher, classes transferClassRepository, students transferStudentRepository, lectures transferLectureRepository, attendance transferAttendanceRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *TransferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{
		batcher:    b,
		classes:    classes,
		students:   students,
		lectures:   lectures,
		attendance: attendance,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

// Transfer moves the student from one class to another with their attendance
// history. Records of lectures the target class does not have are not copied
// but are still removed from the source; they are reported as dropped. Student
// ids are scoped per class, so when the target already uses the id the student
// is re-keyed with the next free id of the target class.
func (s *TransferService) Transfer(ctx context.Context, site models.SiteRef, fromClassID, studentID, toClassID string) (*dto.TransferResult, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	toClassID = strings.TrimSpace(toClassID)
	if toClassID == "" || toClassID == fromClassID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target class must differ from the current class")
	}
	if _, err := s.classes.FindByID(ctx, site, toClassID); err != nil {
		return nil, storeError(err, "target class", "failed to load target class")
	}
	student, err := s.students.FindByID(ctx, site, fromClassID, studentID)
	if err != nil {
		return nil, storeError(err, "student", "failed to load student")
	}
	sourceLectures, err := s.lectures.List(ctx, site, fromClassID)
	if err != nil {
		return nil, internalError(err, "failed to list source lectures")
	}
	targetLectures, err := s.lectures.List(ctx, site, toClassID)
	if err != nil {
		return nil, internalError(err, "failed to list target lectures")
	}
	inTarget := make(map[string]bool, len(targetLectures))
	for _, l := range targetLectures {
		inTarget[l.ID] = true
	}
	targetID, err := s.targetStudentID(ctx, site, toClassID, studentID)
	if err != nil {
		return nil, err
	}

	moved := *student
	moved.ID = targetID
	batch := s.batcher.Batch()
	if err := s.students.StageCreate(batch, site, toClassID, moved); err != nil {
		return nil, internalError(err, "failed to stage student")
	}
	result := &dto.TransferResult{
		StudentID:       studentID,
		TargetStudentID: targetID,
		FromClassID:     fromClassID,
		ToClassID:       toClassID,
		CopiedLectures:  []string{},
		DroppedLectures: []string{},
	}
	for _, lecture := range sourceLectures {
		copied, dropped := false, false
		for frag := 0; frag <= fragmentCount(lecture); frag++ {
			raw, err := s.attendance.Raw(ctx, site, fromClassID, lecture.ID, frag, studentID)
			if err != nil {
				return nil, internalError(err, "failed to read attendance")
			}
			if raw == nil {
				continue
			}
			if inTarget[lecture.ID] {
				s.attendance.StageSet(batch, site, toClassID, lecture.ID, frag, targetID, rekeyRecord(raw, targetID))
				copied = true
			} else {
				dropped = true
			}
			s.attendance.StageDelete(batch, site, fromClassID, lecture.ID, frag, studentID)
		}
		if copied {
			result.CopiedLectures = append(result.CopiedLectures, lecture.ID)
		}
		if dropped {
			result.DroppedLectures = append(result.DroppedLectures, lecture.ID)
		}
	}
	s.students.StageDelete(batch, site, fromClassID, studentID)

	if err := batch.Commit(ctx); err != nil {
		s.metrics.RecordTransfer(outcomeFailure)
		s.logger.Error("transfer batch aborted",
			zap.String("student_id", studentID),
			zap.String("from_class_id", fromClassID),
			zap.String("to_class_id", toClassID),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrBatchAborted.Code, appErrors.ErrBatchAborted.Status, appErrors.ErrBatchAborted.Message)
	}
	s.metrics.RecordTransfer(outcomeSuccess)
	s.cache.InvalidateOverview(ctx, site, fromClassID)
	s.cache.InvalidateOverview(ctx, site, toClassID)
	if targetID != studentID {
		s.logger.Info("transferred student re-keyed in target class",
			zap.String("student_id", studentID),
			zap.String("target_student_id", targetID),
			zap.String("to_class_id", toClassID),
		)
	}
	if len(result.DroppedLectures) > 0 {
		s.logger.Warn("transfer dropped attendance for lectures missing in target class",
			zap.String("student_id", studentID),
			zap.Strings("lectures", result.DroppedLectures),
		)
	}
	return result, nil
}

// rekeyRecord copies the stored record, pointing its student field at id.
func rekeyRecord(raw map[string]interface{}, id string) map[string]interface{} {
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	if _, ok := out["alunoId"]; ok {
		out["alunoId"] = id
	}
	return out
}

// targetStudentID keeps the student id unless the target class already has a
// student under it.
func (s *TransferService) targetStudentID(ctx context.Context, site models.SiteRef, toClassID, studentID string) (string, error) {
	existing, err := s.students.List(ctx, site, toClassID)
	if err != nil {
		return "", internalError(err, "failed to list target students")
	}
	ids := make([]string, 0, len(existing))
	taken := false
	for _, st := range existing {
		ids = append(ids, st.ID)
		if st.ID == studentID {
			taken = true
		}
	}
	if !taken {
		return studentID, nil
	}
	return idgen.Next(ids, "A", 3), nil
}

// AvailableClasses lists the other classes of the site with their student
// counts, newest opening date first.
func (s *TransferService) AvailableClasses(ctx context.Context, site models.SiteRef, currentClassID string) ([]models.ClassSummary, error) {
	if err := checkSite(site); err != nil {
		return nil, err
	}
	classes, err := s.classes.List(ctx, site)
	if err != nil {
		return nil, internalError(err, "failed to list classes")
	}
	out := make([]models.ClassSummary, 0, len(classes))
	for _, class := range classes {
		if class.ID == currentClassID {
			continue
		}
		count, err := s.students.Count(ctx, site, class.ID)
		if err != nil {
			return nil, internalError(err, "failed to count students")
		}
		out = append(out, models.ClassSummary{Class: class, StudentCount: count})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OpeningDate > out[j].OpeningDate })
	return out, nil
}

// fragmentCount is the highest fragment number whose attendance path exists.
func fragmentCount(lecture models.Lecture) int {
	if !lecture.Fragmented() {
		return 0
	}
	return lecture.TotalFragments
}
