package models

import (
	"strings"

	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// MakeUpStatus is the lifecycle status of a make-up entry.
type MakeUpStatus string

const (
	MakeUpPending   MakeUpStatus = "pendente"
	MakeUpDone      MakeUpStatus = "realizada"
	MakeUpCancelled MakeUpStatus = "cancelada"
)

// Valid reports whether s is a known status.
func (s MakeUpStatus) Valid() bool {
	switch s {
	case MakeUpPending, MakeUpDone, MakeUpCancelled:
		return true
	}
	return false
}

// NotificationState tracks the WhatsApp notification of a make-up entry.
type NotificationState string

const (
	NotificationScheduled NotificationState = "scheduled"
	NotificationSent      NotificationState = "notification_sent"
)

// Delivery is what can be said about the notification.
type Delivery string

const (
	DeliveryNotRequested Delivery = "not_requested"
	DeliveryUnknown      Delivery = "unknown"
	DeliverySent         Delivery = "sent"
)

// MakeUpEntry (reposição) is a scheduled make-up session for a missed lecture.
type MakeUpEntry struct {
	ID               string       `json:"id"`
	StudentID        string       `json:"student_id"`
	StudentName      string       `json:"student_name"`
	LectureID        string       `json:"lecture_id"`
	LectureTitle     string       `json:"lecture_title"`
	Fragment         int          `json:"fragment"`
	ScheduledDate    string       `json:"scheduled_date"`
	Instructor       string       `json:"instructor"`
	Notes            string       `json:"notes"`
	Status           MakeUpStatus `json:"status"`
	NotificationSent bool         `json:"notification_sent"`
	NotifiedAt       string       `json:"notified_at,omitempty"`
	LinkIssuedAt     string       `json:"link_issued_at,omitempty"`
	CreatedAt        string       `json:"created_at"`
	UpdatedAt        string       `json:"updated_at"`
}

// State is NotificationSent once the flag is written, Scheduled before.
func (m MakeUpEntry) State() NotificationState {
	if m.NotificationSent {
		return NotificationSent
	}
	return NotificationScheduled
}

// Delivery reports unknown for an entry whose link was issued but never confirmed.
func (m MakeUpEntry) Delivery() Delivery {
	switch {
	case m.NotificationSent:
		return DeliverySent
	case strings.TrimSpace(m.LinkIssuedAt) != "":
		return DeliveryUnknown
	default:
		return DeliveryNotRequested
	}
}

// MakeUpFromDocument decodes a make-up document applying the defaults.
func MakeUpFromDocument(doc docstore.Document) MakeUpEntry {
	f := doc.Fields()
	fragment := f.Int("fragmentoNumero")
	if fragment <= 0 {
		fragment = 1
	}
	status := MakeUpStatus(f.String("status"))
	if status == "" {
		status = MakeUpPending
	}
	return MakeUpEntry{
		ID:               doc.ID,
		StudentID:        f.String("alunoId"),
		StudentName:      f.String("alunoNome"),
		LectureID:        f.String("palestraOriginalId"),
		LectureTitle:     f.String("palestraOriginalTitulo"),
		Fragment:         fragment,
		ScheduledDate:    f.String("dataAgendada"),
		Instructor:       f.String("instrutor"),
		Notes:            f.String("observacoes"),
		Status:           status,
		NotificationSent: f.Bool("whatsappEnviado"),
		NotifiedAt:       f.String("dataEnvioWhatsApp"),
		LinkIssuedAt:     f.String("linkGeradoEm"),
		CreatedAt:        f.String("dataCriacao"),
		UpdatedAt:        f.String("dataAtualizacao"),
	}
}

// Fields encodes the entry for storage.
func (m MakeUpEntry) Fields() map[string]interface{} {
	out := map[string]interface{}{
		"alunoId":                m.StudentID,
		"alunoNome":              m.StudentName,
		"palestraOriginalId":     m.LectureID,
		"palestraOriginalTitulo": m.LectureTitle,
		"fragmentoNumero":        m.Fragment,
		"dataAgendada":           m.ScheduledDate,
		"instrutor":              m.Instructor,
		"observacoes":            m.Notes,
		"status":                 string(m.Status),
		"whatsappEnviado":        m.NotificationSent,
		"dataCriacao":            m.CreatedAt,
		"dataAtualizacao":        m.UpdatedAt,
	}
	if m.NotifiedAt != "" {
		out["dataEnvioWhatsApp"] = m.NotifiedAt
	}
	if m.LinkIssuedAt != "" {
		out["linkGeradoEm"] = m.LinkIssuedAt
	}
	return out
}

// Absence is one missed lecture (or fragment) of a student.
type Absence struct {
	LectureID    string `json:"lecture_id"`
	LectureTitle string `json:"lecture_title"`
	Fragment     int    `json:"fragment,omitempty"`
	Date         string `json:"date"`
}

// StudentAbsences lists every absence of a student in held lectures.
type StudentAbsences struct {
	StudentID   string    `json:"student_id"`
	Name        string    `json:"name"`
	WhatsApp    string    `json:"whatsapp"`
	CountryCode string    `json:"country_code"`
	Absences    []Absence `json:"absences"`
	Total       int       `json:"total"`
}
