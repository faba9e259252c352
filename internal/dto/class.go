package dto

import "github.com/noah-isme/class-control-api/internal/models"

// CreateClassRequest captures POST /classes payload. OpeningDate accepts
// DD-MM-YYYY or YYYY-MM-DD.
type CreateClassRequest struct {
	Owner       string   `json:"owner" validate:"required"`
	OpeningDate string   `json:"opening_date" validate:"required"`
	Location    string   `json:"location" validate:"required"`
	Days        []string `json:"days" validate:"required,min=1,dive,required"`
	Time        string   `json:"time" validate:"omitempty,hhmm"`
	Topic       string   `json:"topic"`
	Notes       string   `json:"notes"`
}

// UpdateClassRequest captures PATCH /classes/:classId. Nil fields are left unchanged.
type UpdateClassRequest struct {
	Owner       *string  `json:"owner" validate:"omitempty,min=1"`
	OpeningDate *string  `json:"opening_date"`
	Location    *string  `json:"location" validate:"omitempty,min=1"`
	Days        []string `json:"days" validate:"omitempty,dive,required"`
	Time        *string  `json:"time" validate:"omitempty,hhmm"`
	Topic       *string  `json:"topic"`
	Notes       *string  `json:"notes"`
}

// CreateClassResponse reports the new class and the templates cloned into it.
type CreateClassResponse struct {
	Class           models.Class `json:"class"`
	LecturesCreated []string     `json:"lectures_created"`
	MissingLectures []string     `json:"missing_templates,omitempty"`
}
