package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrStudentDisabled, "student A001 is disabled")
	assert.True(t, errors.Is(err, ErrStudentDisabled))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.Equal(t, "student is disabled", ErrStudentDisabled.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	plain := errors.New("disk on fire")
	got := FromError(plain)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.ErrorIs(t, got, plain)

	wrapped := fmt.Errorf("context: %w", Clone(ErrNotFound, "class not found"))
	assert.Equal(t, "class not found", FromError(wrapped).Message)
	assert.Nil(t, FromError(nil))
}
