package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/crypto"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// StudentRepository manages the students of a class. With a cipher the
// WhatsApp number is stored encrypted.
type StudentRepository struct {
	store  docstore.Store
	cipher *crypto.Cipher
}

// NewStudentRepository constructs a StudentRepository. cipher may be nil.
func NewStudentRepository(store docstore.Store, cipher *crypto.Cipher) *StudentRepository {
	return &StudentRepository{store: store, cipher: cipher}
}

// List returns the students of a class in storage order.
func (r *StudentRepository) List(ctx context.Context, site models.SiteRef, classID string) ([]models.Student, error) {
	docs, err := r.store.List(ctx, StudentsCollection(site, classID))
	if err != nil {
		return nil, fmt.Errorf("list students of %s: %w", classID, err)
	}
	students := make([]models.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, r.decode(doc))
	}
	return students, nil
}

// Count returns the number of students in a class.
func (r *StudentRepository) Count(ctx context.Context, site models.SiteRef, classID string) (int, error) {
	docs, err := r.store.List(ctx, StudentsCollection(site, classID))
	if err != nil {
		return 0, fmt.Errorf("count students of %s: %w", classID, err)
	}
	return len(docs), nil
}

// FindByID returns the student or docstore.ErrNotFound.
func (r *StudentRepository) FindByID(ctx context.Context, site models.SiteRef, classID, id string) (*models.Student, error) {
	doc, err := r.store.Get(ctx, StudentPath(site, classID, id))
	if err != nil {
		return nil, fmt.Errorf("get student %s: %w", id, err)
	}
	student := r.decode(*doc)
	return &student, nil
}

// Create writes a new student document.
func (r *StudentRepository) Create(ctx context.Context, site models.SiteRef, classID string, student *models.Student) error {
	fields, err := r.encode(*student)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, StudentPath(site, classID, student.ID), fields, false); err != nil {
		return fmt.Errorf("create student %s: %w", student.ID, err)
	}
	return nil
}

// Update merges fields into an existing student. A whatsapp value is encrypted first.
func (r *StudentRepository) Update(ctx context.Context, site models.SiteRef, classID, id string, fields map[string]interface{}) error {
	if raw, ok := fields["whatsapp"].(string); ok && r.cipher != nil && raw != "" {
		enc, err := r.cipher.Encrypt(raw)
		if err != nil {
			return fmt.Errorf("encrypt whatsapp of %s: %w", id, err)
		}
		fields["whatsapp"] = enc
	}
	if err := r.store.Update(ctx, StudentPath(site, classID, id), fields); err != nil {
		return fmt.Errorf("update student %s: %w", id, err)
	}
	return nil
}

// SetStatus merges the status field.
func (r *StudentRepository) SetStatus(ctx context.Context, site models.SiteRef, classID, id string, status models.StudentStatus) error {
	return r.Update(ctx, site, classID, id, map[string]interface{}{"status": string(status)})
}

// Delete removes the student document.
func (r *StudentRepository) Delete(ctx context.Context, site models.SiteRef, classID, id string) error {
	if err := r.store.Delete(ctx, StudentPath(site, classID, id)); err != nil {
		return fmt.Errorf("delete student %s: %w", id, err)
	}
	return nil
}

// StageCreate stages a full write of the student into the batch.
func (r *StudentRepository) StageCreate(b docstore.Batch, site models.SiteRef, classID string, student models.Student) error {
	fields, err := r.encode(student)
	if err != nil {
		return err
	}
	b.Set(StudentPath(site, classID, student.ID), fields, false)
	return nil
}

// StageDelete stages the student deletion into the batch.
func (r *StudentRepository) StageDelete(b docstore.Batch, site models.SiteRef, classID, id string) {
	b.Delete(StudentPath(site, classID, id))
}

func (r *StudentRepository) encode(student models.Student) (map[string]interface{}, error) {
	fields := student.Fields()
	if r.cipher != nil && student.WhatsApp != "" && !crypto.IsEncrypted(student.WhatsApp) {
		enc, err := r.cipher.Encrypt(student.WhatsApp)
		if err != nil {
			return nil, fmt.Errorf("encrypt whatsapp of %s: %w", student.ID, err)
		}
		fields["whatsapp"] = enc
	}
	return fields, nil
}

func (r *StudentRepository) decode(doc docstore.Document) models.Student {
	student := models.StudentFromDocument(doc)
	student.WhatsApp = r.cipher.DecryptOrKeep(student.WhatsApp)
	return student
}
