package models

// UnknownInstructor is reported when the class has no owner on record.
const UnknownInstructor = "Instrutor não identificado"

// HistoryRecord is one lecture line of a student's history.
type HistoryRecord struct {
	LectureID string `json:"lecture_id"`
	Title     string `json:"title"`
	Present   bool   `json:"present"`
	MakeUp    bool   `json:"makeup"`
	Late      bool   `json:"late"`
	Date      string `json:"date,omitempty"`
}

// HistoryStats summarises a history.
type HistoryStats struct {
	Total      int `json:"total"`
	Present    int `json:"present"`
	Absent     int `json:"absent"`
	MakeUps    int `json:"makeups"`
	Late       int `json:"late"`
	Percentage int `json:"percentage"`
}

// StudentHistory is the attendance history of one student in their class.
type StudentHistory struct {
	Student    Student         `json:"student"`
	ClassID    string          `json:"class_id"`
	Instructor string          `json:"instructor"`
	Stats      HistoryStats    `json:"stats"`
	Records    []HistoryRecord `json:"records"`
}
