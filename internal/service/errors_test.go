package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("Lessons can only be booked up to %d days in advance", 21)
	assert.Equal(t, "Lessons can only be booked up to 21 days in advance", err.Error())
	assert.True(t, IsValidation(err))
	assert.False(t, IsConflict(err))

	// классификация работает и через обёртки
	wrapped := fmt.Errorf("book lesson: %w", err)
	assert.True(t, IsValidation(wrapped))
}

func TestConflictErrorWithDates(t *testing.T) {
	dates := []time.Time{
		time.Date(2026, 9, 22, 16, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 29, 16, 0, 0, 0, time.UTC),
	}
	err := &ConflictError{Message: "Conflicting lessons already exist at the requested time", Dates: dates}

	assert.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "2026-09-22 16:00")
	assert.Contains(t, err.Error(), "2026-09-29 16:00")
}

func TestConflictErrorWithoutDates(t *testing.T) {
	err := &ConflictError{Message: "This time slot has been booked by another student"}
	assert.Equal(t, "This time slot has been booked by another student", err.Error())
}

func TestErrNotFoundWrapping(t *testing.T) {
	err := fmt.Errorf("recurring slot %d: %w", 42, ErrNotFound)
	require.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, IsValidation(err))
	assert.False(t, IsConflict(err))
}
