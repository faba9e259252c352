package models

import (
	"strings"

	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// SiteRef scopes every class to the country/state/site it belongs to.
type SiteRef struct {
	Country string `json:"country" form:"country" validate:"required"`
	State   string `json:"state" form:"state" validate:"required"`
	Site    string `json:"site" form:"site" validate:"required"`
}

// Complete reports whether every segment is set and free of path separators.
func (s SiteRef) Complete() bool {
	for _, part := range []string{s.Country, s.State, s.Site} {
		if strings.TrimSpace(part) == "" || strings.Contains(part, "/") {
			return false
		}
	}
	return true
}

// Path returns countries/{c}/states/{s}/sites/{site}.
func (s SiteRef) Path() string {
	return docstore.Join("countries", s.Country, "states", s.State, "sites", s.Site)
}

// StatePath returns countries/{c}/states/{s}.
func (s SiteRef) StatePath() string {
	return docstore.Join("countries", s.Country, "states", s.State)
}
