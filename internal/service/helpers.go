package service

import (
	"errors"
	"strings"
	"time"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
)

const isoDate = "2006-01-02"

// storeError maps docstore.ErrNotFound to a NotFound error naming what was
// missing and wraps anything else as internal.
func storeError(err error, what, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
}

func internalError(err error, msg string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
}

func validationError(err error, msg string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg)
}

func checkSite(site models.SiteRef) error {
	if !site.Complete() {
		return appErrors.Clone(appErrors.ErrValidation, "country, state and site are required")
	}
	return nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// effectiveFragment returns the fragment whose attendance path applies: the
// requested one for a fragmented lecture, 0 otherwise. A fragmented lecture
// keeps no lecture-level attendance, so it requires a fragment.
func effectiveFragment(lecture models.Lecture, fragment int) (int, error) {
	if !lecture.Fragmented() {
		return 0, nil
	}
	if fragment <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "fragment required for a fragmented lecture")
	}
	if fragment > lecture.TotalFragments {
		return 0, appErrors.Clone(appErrors.ErrValidation, "fragment out of range")
	}
	return fragment, nil
}

// normalizeOpeningDate accepts DD-MM-YYYY or YYYY-MM-DD and returns YYYY-MM-DD.
func normalizeOpeningDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(isoDate, raw); err == nil {
		return t.Format(isoDate), true
	}
	if t, err := time.Parse("02-01-2006", raw); err == nil {
		return t.Format(isoDate), true
	}
	return "", false
}
