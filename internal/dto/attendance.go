package dto

// ToggleAttendanceRequest captures POST .../attendance/:studentId/toggle. Date
// is the caller's local calendar date; when empty the server date in the
// configured timezone is used.
type ToggleAttendanceRequest struct {
	Fragment int    `json:"fragment" validate:"min=0"`
	Date     string `json:"date" validate:"omitempty,isodate"`
}

// AttendanceExtrasRequest captures PUT .../attendance/:studentId/extras.
type AttendanceExtrasRequest struct {
	Fragment   int    `json:"fragment" validate:"min=0"`
	Date       string `json:"date" validate:"required,isodate"`
	Instructor string `json:"instructor" validate:"required"`
	MakeUp     bool   `json:"makeup"`
	Late       bool   `json:"late"`
}

// CheckInLinkResponse is the self check-in link of a lecture.
type CheckInLinkResponse struct {
	Link    string `json:"link"`
	Payload string `json:"payload"`
}

// CheckInRequest captures POST /checkin.
type CheckInRequest struct {
	Payload string `json:"payload" validate:"required"`
	Code    string `json:"code" validate:"required,min=5"`
}

// CheckInResponse confirms a self check-in.
type CheckInResponse struct {
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`
	LectureID    string `json:"lecture_id"`
	LectureTitle string `json:"lecture_title"`
	Fragment     int    `json:"fragment,omitempty"`
	Date         string `json:"date"`
}
