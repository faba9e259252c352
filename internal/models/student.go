package models

import "github.com/noah-isme/class-control-api/pkg/docstore"

// StudentStatus is the enrolment state of a student.
type StudentStatus string

const (
	StudentActive   StudentStatus = "ativo"
	StudentDisabled StudentStatus = "desativado"
)

// Student (aluno) is enrolled in exactly one class.
type Student struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	WhatsApp    string        `json:"whatsapp"`
	CountryCode string        `json:"country_code"`
	Status      StudentStatus `json:"status"`
}

// Disabled reports whether the student was soft-deleted.
func (s Student) Disabled() bool {
	return s.Status == StudentDisabled
}

// StudentFromDocument decodes a student document. A missing or unknown status means active.
func StudentFromDocument(doc docstore.Document) Student {
	f := doc.Fields()
	status := StudentActive
	if StudentStatus(f.String("status")) == StudentDisabled {
		status = StudentDisabled
	}
	return Student{
		ID:          doc.ID,
		Name:        f.String("nome"),
		WhatsApp:    f.String("whatsapp"),
		CountryCode: f.String("codigoPais"),
		Status:      status,
	}
}

// Fields encodes the student for storage.
func (s Student) Fields() map[string]interface{} {
	status := s.Status
	if status == "" {
		status = StudentActive
	}
	return map[string]interface{}{
		"nome":       s.Name,
		"whatsapp":   s.WhatsApp,
		"codigoPais": s.CountryCode,
		"status":     string(status),
	}
}
