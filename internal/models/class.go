package models

import "github.com/noah-isme/class-control-api/pkg/docstore"

// DefaultClassTime is used when a class is created without a meeting time.
const DefaultClassTime = "19:00"

// Class (turma) is a recurring course offering.
type Class struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	OpeningDate string `json:"opening_date"`
	Location    string `json:"location"`
	Days        string `json:"days"`
	Time        string `json:"time"`
	Topic       string `json:"topic"`
	Notes       string `json:"notes"`
}

// ClassSummary decorates a class with its enrolment count.
type ClassSummary struct {
	Class
	StudentCount int `json:"student_count"`
}

// ClassFromDocument decodes a class document.
func ClassFromDocument(doc docstore.Document) Class {
	f := doc.Fields()
	return Class{
		ID:          doc.ID,
		Owner:       f.String("responsavel"),
		OpeningDate: f.String("dataAbertura"),
		Location:    f.String("local"),
		Days:        f.String("dias"),
		Time:        f.String("horario"),
		Topic:       f.String("tema"),
		Notes:       f.String("obs"),
	}
}

// Fields encodes the class for storage.
func (c Class) Fields() map[string]interface{} {
	return map[string]interface{}{
		"responsavel":  c.Owner,
		"dataAbertura": c.OpeningDate,
		"local":        c.Location,
		"dias":         c.Days,
		"horario":      c.Time,
		"tema":         c.Topic,
		"obs":          c.Notes,
	}
}
