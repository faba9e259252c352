package models

import "github.com/noah-isme/class-control-api/pkg/docstore"

// Instructor is an authenticated operator of the tool.
type Instructor struct {
	CPF          string   `json:"cpf"`
	Name         string   `json:"name"`
	Email        string   `json:"email,omitempty"`
	Role         UserRole `json:"role"`
	PasswordHash string   `json:"-"`
}

// InstructorFromDocument decodes an instructor document found at the given level.
func InstructorFromDocument(doc docstore.Document, role UserRole) Instructor {
	f := doc.Fields()
	return Instructor{
		CPF:          doc.ID,
		Name:         f.String("nome"),
		Email:        f.String("email"),
		Role:         role,
		PasswordHash: f.String("senhaHash"),
	}
}

// Fields encodes the instructor for storage.
func (i Instructor) Fields() map[string]interface{} {
	return map[string]interface{}{
		"nome":      i.Name,
		"email":     i.Email,
		"senhaHash": i.PasswordHash,
	}
}

// GeoEntry is one country, state or site offered by the login picker.
type GeoEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GeoEntryFromDocument falls back to the id when the document has no name.
func GeoEntryFromDocument(doc docstore.Document) GeoEntry {
	name := doc.Fields().String("nome")
	if name == "" {
		name = doc.ID
	}
	return GeoEntry{ID: doc.ID, Name: name}
}
