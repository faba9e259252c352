package dto

import "github.com/noah-isme/class-control-api/internal/models"

// ScheduleMakeUpRequest captures POST /classes/:classId/makeups.
type ScheduleMakeUpRequest struct {
	StudentID     string `json:"student_id" validate:"required"`
	LectureID     string `json:"lecture_id" validate:"required"`
	Fragment      int    `json:"fragment" validate:"min=0"`
	ScheduledDate string `json:"scheduled_date" validate:"required,isodate"`
	Instructor    string `json:"instructor" validate:"required"`
	Notes         string `json:"notes"`
	Notify        bool   `json:"notify"`
}

// UpdateMakeUpRequest captures PATCH /classes/:classId/makeups/:id.
type UpdateMakeUpRequest struct {
	Status        *models.MakeUpStatus `json:"status"`
	ScheduledDate *string              `json:"scheduled_date" validate:"omitempty,isodate"`
	Instructor    *string              `json:"instructor" validate:"omitempty,min=1"`
	Notes         *string              `json:"notes"`
}

// MakeUpView decorates an entry with its notification state.
type MakeUpView struct {
	models.MakeUpEntry
	State    models.NotificationState `json:"state"`
	Delivery models.Delivery          `json:"delivery"`
}

// NewMakeUpView builds the view of an entry.
func NewMakeUpView(entry models.MakeUpEntry) MakeUpView {
	return MakeUpView{MakeUpEntry: entry, State: entry.State(), Delivery: entry.Delivery()}
}

// ScheduleMakeUpResponse is the created entry plus the deep link when requested.
type ScheduleMakeUpResponse struct {
	Entry        MakeUpView `json:"entry"`
	WhatsAppLink string     `json:"whatsapp_link,omitempty"`
	Message      string     `json:"message,omitempty"`
}

// NotificationLinkResponse carries a recomposed notification link.
type NotificationLinkResponse struct {
	Link    string `json:"link"`
	Message string `json:"message"`
}
