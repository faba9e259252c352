package models

import (
	"strings"

	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// Stored attendance status values.
const (
	AttendancePresent  = "presente"
	AttendanceAbsent   = "ausente"
	AttendanceDisabled = "desativado"
)

// AttendanceRecord is the raw per-student attendance document of a lecture or fragment.
type AttendanceRecord struct {
	StudentID    string `json:"student_id"`
	Status       string `json:"status"`
	Date         string `json:"date"`
	Instructor   string `json:"instructor"`
	MakeUp       bool   `json:"makeup"`
	Late         bool   `json:"late"`
	ViaQR        bool   `json:"via_qr"`
	RegisteredAt string `json:"registered_at,omitempty"`
}

// Dated reports whether the record carries a non-blank date.
func (r AttendanceRecord) Dated() bool {
	return strings.TrimSpace(r.Date) != ""
}

// AttendanceRecordFromDocument decodes an attendance document.
func AttendanceRecordFromDocument(doc docstore.Document) AttendanceRecord {
	f := doc.Fields()
	// The document id is the student id; the stored field is only a fallback.
	studentID := doc.ID
	if studentID == "" {
		studentID = f.String("alunoId")
	}
	return AttendanceRecord{
		StudentID:    studentID,
		Status:       f.String("status"),
		Date:         f.String("data"),
		Instructor:   f.String("instrutor"),
		MakeUp:       f.Bool("reposicao"),
		Late:         f.Bool("atraso"),
		ViaQR:        f.Bool("marcadoViaQR"),
		RegisteredAt: f.String("dataRegistro"),
	}
}

// Fields encodes the record for storage.
func (r AttendanceRecord) Fields() map[string]interface{} {
	out := map[string]interface{}{
		"alunoId":      r.StudentID,
		"status":       r.Status,
		"data":         r.Date,
		"instrutor":    r.Instructor,
		"reposicao":    r.MakeUp,
		"atraso":       r.Late,
		"marcadoViaQR": r.ViaQR,
	}
	if r.RegisteredAt != "" {
		out["dataRegistro"] = r.RegisteredAt
	}
	return out
}

// AttendanceKind discriminates AttendanceStatus.
type AttendanceKind string

const (
	KindPresent  AttendanceKind = "present"
	KindAbsent   AttendanceKind = "absent"
	KindDisabled AttendanceKind = "disabled"
)

// PresenceDetails are the flags only a Present status carries.
type PresenceDetails struct {
	Date       string `json:"date"`
	Instructor string `json:"instructor"`
	MakeUp     bool   `json:"makeup"`
	Late       bool   `json:"late"`
	ViaQR      bool   `json:"via_qr"`
}

// AttendanceStatus is the normalized attendance of one student: Present with
// details, Absent, or Disabled. Build it with Present, Absent or Disabled.
type AttendanceStatus struct {
	Kind    AttendanceKind   `json:"kind"`
	Details *PresenceDetails `json:"details,omitempty"`
}

// Present builds a Present status.
func Present(d PresenceDetails) AttendanceStatus {
	return AttendanceStatus{Kind: KindPresent, Details: &d}
}

// Absent builds an Absent status.
func Absent() AttendanceStatus {
	return AttendanceStatus{Kind: KindAbsent}
}

// Disabled builds a Disabled status.
func Disabled() AttendanceStatus {
	return AttendanceStatus{Kind: KindDisabled}
}

func (s AttendanceStatus) IsPresent() bool  { return s.Kind == KindPresent }
func (s AttendanceStatus) IsAbsent() bool   { return s.Kind == KindAbsent }
func (s AttendanceStatus) IsDisabled() bool { return s.Kind == KindDisabled }

// NormalizeAttendance is the single read path for attendance documents. A nil
// record and unknown statuses are Absent.
func NormalizeAttendance(rec *AttendanceRecord) AttendanceStatus {
	if rec == nil {
		return Absent()
	}
	switch strings.TrimSpace(rec.Status) {
	case AttendancePresent:
		return Present(PresenceDetails{
			Date:       rec.Date,
			Instructor: rec.Instructor,
			MakeUp:     rec.MakeUp,
			Late:       rec.Late,
			ViaQR:      rec.ViaQR,
		})
	case AttendanceDisabled:
		return Disabled()
	default:
		return Absent()
	}
}

// StudentAttendance pairs a student with their effective status for one lecture or fragment.
type StudentAttendance struct {
	Student Student          `json:"student"`
	Status  AttendanceStatus `json:"status"`
}
