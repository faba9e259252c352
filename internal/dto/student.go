package dto

// CreateStudentRequest captures POST /classes/:classId/students payload.
type CreateStudentRequest struct {
	Name        string `json:"name" validate:"required,personname"`
	WhatsApp    string `json:"whatsapp" validate:"required"`
	CountryCode string `json:"country_code" validate:"omitempty,numeric,max=3"`
}

// UpdateStudentRequest captures PATCH /classes/:classId/students/:studentId.
type UpdateStudentRequest struct {
	Name        *string `json:"name" validate:"omitempty,personname"`
	WhatsApp    *string `json:"whatsapp"`
	CountryCode *string `json:"country_code" validate:"omitempty,numeric,max=3"`
}

// TransferStudentRequest captures POST .../students/:studentId/transfer.
type TransferStudentRequest struct {
	TargetClassID string `json:"target_class_id" validate:"required"`
}

// TransferResult reports what the transfer copied and what it dropped.
type TransferResult struct {
	StudentID       string   `json:"student_id"`
	TargetStudentID string   `json:"target_student_id"`
	FromClassID     string   `json:"from_class_id"`
	ToClassID       string   `json:"to_class_id"`
	CopiedLectures  []string `json:"copied_lectures"`
	DroppedLectures []string `json:"dropped_lectures"`
}

// CascadeResult summarises a deletion or disable cascade.
type CascadeResult struct {
	Deleted int      `json:"deleted"`
	Updated int      `json:"updated"`
	Failed  []string `json:"failed,omitempty"`
}

// HistoryShareResponse carries the composed history message and its link.
type HistoryShareResponse struct {
	Message string `json:"message"`
	Link    string `json:"link"`
}
