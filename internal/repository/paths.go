package repository

import (
	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// Top-level collections that are not scoped to a site.
const (
	LectureTemplatesCollection = "lecture_templates"
	QRSessionsCollection       = "qr_auth_sessions"
	ExportJobsCollection       = "export_jobs"
	CountriesCollection        = "countries"
)

// ClassesCollection returns the classes collection of a site.
func ClassesCollection(site models.SiteRef) string {
	return docstore.Join(site.Path(), "classes")
}

// ClassPath returns the document path of a class.
func ClassPath(site models.SiteRef, classID string) string {
	return docstore.Join(ClassesCollection(site), classID)
}

// StudentsCollection returns the students collection of a class.
func StudentsCollection(site models.SiteRef, classID string) string {
	return docstore.Join(ClassPath(site, classID), "students")
}

// StudentPath returns the document path of a student.
func StudentPath(site models.SiteRef, classID, studentID string) string {
	return docstore.Join(StudentsCollection(site, classID), studentID)
}

// LecturesCollection returns the lectures collection of a class.
func LecturesCollection(site models.SiteRef, classID string) string {
	return docstore.Join(ClassPath(site, classID), "lectures")
}

// LecturePath returns the document path of a lecture.
func LecturePath(site models.SiteRef, classID, lectureID string) string {
	return docstore.Join(LecturesCollection(site, classID), lectureID)
}

// FragmentsCollection returns the fragments collection of a lecture.
func FragmentsCollection(site models.SiteRef, classID, lectureID string) string {
	return docstore.Join(LecturePath(site, classID, lectureID), "fragments")
}

// FragmentPath returns the document path of fragment n.
func FragmentPath(site models.SiteRef, classID, lectureID string, n int) string {
	return docstore.Join(FragmentsCollection(site, classID, lectureID), models.FragmentDocID(n))
}

// AttendanceCollection returns the attendance collection of a lecture, or of
// one of its fragments when fragment is positive.
func AttendanceCollection(site models.SiteRef, classID, lectureID string, fragment int) string {
	if fragment > 0 {
		return docstore.Join(FragmentPath(site, classID, lectureID, fragment), "attendance")
	}
	return docstore.Join(LecturePath(site, classID, lectureID), "attendance")
}

// AttendancePath returns the attendance document of a student.
func AttendancePath(site models.SiteRef, classID, lectureID string, fragment int, studentID string) string {
	return docstore.Join(AttendanceCollection(site, classID, lectureID, fragment), studentID)
}

// MakeUpsCollection returns the make-up collection of a class.
func MakeUpsCollection(site models.SiteRef, classID string) string {
	return docstore.Join(ClassPath(site, classID), "makeups")
}

// MakeUpPath returns the document path of a make-up entry.
func MakeUpPath(site models.SiteRef, classID, id string) string {
	return docstore.Join(MakeUpsCollection(site, classID), id)
}

// AuditLogsCollection returns the audit trail of a site.
func AuditLogsCollection(site models.SiteRef) string {
	return docstore.Join(site.Path(), "audit_logs")
}

// AuditLogPath returns the document path of an audit entry.
func AuditLogPath(site models.SiteRef, id string) string {
	return docstore.Join(AuditLogsCollection(site), id)
}

// StateInstructorPath returns the state-level instructor document.
func StateInstructorPath(country, state, cpf string) string {
	return docstore.Join(CountriesCollection, country, "states", state, "instructors", cpf)
}

// SiteInstructorPath returns the site-level instructor document.
func SiteInstructorPath(site models.SiteRef, cpf string) string {
	return docstore.Join(site.Path(), "instructors", cpf)
}
