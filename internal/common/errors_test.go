package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	detailed := ErrNotFound.WithDetails("Therapist not found.")

	assert.Nil(t, ErrNotFound.Details)
	assert.Equal(t, "Therapist not found.", detailed.Details)
	assert.Equal(t, http.StatusNotFound, detailed.StatusCode)
}

func TestAPIError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", ErrNotFound.WithDetails("missing"))

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrConflict))

	apiErr, ok := IsAPIError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestFormatValidationErrors(t *testing.T) {
	type form struct {
		Date  string `validate:"required"`
		Email string `validate:"email"`
		Role  string `validate:"oneof=patient therapist"`
	}
	err := validator.New().Struct(form{Email: "nope", Role: "admin"})
	var ve validator.ValidationErrors
	require.True(t, errors.As(err, &ve))

	out := FormatValidationErrors(ve)
	assert.Equal(t, "The date field is required.", out["Date"])
	assert.Equal(t, "The email field must be a valid email address.", out["Email"])
	assert.Equal(t, "The role field must be one of the following values: patient therapist.", out["Role"])
}
