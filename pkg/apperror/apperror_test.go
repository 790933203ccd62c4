package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationf(t *testing.T) {
	err := Validationf("seat %s out of range", "12A")
	assert.EqualError(t, err, "seat 12A out of range")
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
}

func TestNotFoundMessage(t *testing.T) {
	assert.EqualError(t, NotFound("diagram model", "abc"), "diagram model not found: abc")
	assert.EqualError(t, NotFound("diagram model", ""), "diagram model not found")
}

func TestPredicatesUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("loading config: %w", NotFound("amenity", "x"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))

	assert.False(t, IsValidation(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}
