package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttemptStatus_String(t *testing.T) {
	tests := []struct {
		status   AttemptStatus
		expected string
	}{
		{AttemptStatusUnset, "unset"},
		{AttemptStatusFound, "found"},
		{AttemptStatusMiss, "miss"},
		{AttemptStatusError, "error"},
		{AttemptStatusNotFound, "not_found"},
		{AttemptStatusDBError, "db_error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestAttemptStatus_IsValid(t *testing.T) {
	assert.True(t, AttemptStatusFound.IsValid())
	assert.True(t, AttemptStatusMiss.IsValid())
	assert.True(t, AttemptStatusError.IsValid())
	assert.False(t, AttemptStatusUnset.IsValid())
	assert.False(t, AttemptStatusNotFound.IsValid())
	assert.False(t, AttemptStatus("bogus").IsValid())
}

func TestAttemptStatus_CountsAsMiss(t *testing.T) {
	assert.False(t, AttemptStatusFound.CountsAsMiss())
	assert.True(t, AttemptStatusMiss.CountsAsMiss())
	assert.True(t, AttemptStatusError.CountsAsMiss())
}
