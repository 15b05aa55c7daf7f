package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaharia-lab/courier/internal/service"
)

func TestNotFoundError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *service.NotFoundError
		expected string
	}{
		{
			name:     "typical resource",
			err:      &service.NotFoundError{Resource: "dead letter", ID: "3f2a"},
			expected: `dead letter "3f2a" not found`,
		},
		{
			name:     "different resource type",
			err:      &service.NotFoundError{Resource: "preferences", ID: "42"},
			expected: `preferences "42" not found`,
		},
		{
			name:     "empty ID",
			err:      &service.NotFoundError{Resource: "user", ID: ""},
			expected: `user "" not found`,
		},
		{
			name:     "empty resource",
			err:      &service.NotFoundError{Resource: "", ID: "some-id"},
			expected: ` "some-id" not found`,
		},
		{
			name:     "both empty",
			err:      &service.NotFoundError{Resource: "", ID: ""},
			expected: ` "" not found`,
		},
		{
			name:     "ID with special characters",
			err:      &service.NotFoundError{Resource: "task", ID: "a/b"},
			expected: `task "a/b" not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestNotFoundError_implements_error(t *testing.T) {
	var err error = &service.NotFoundError{Resource: "user", ID: "x"}
	assert.Error(t, err)
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *service.ValidationError
		expected string
	}{
		{
			name:     "with field and message",
			err:      &service.ValidationError{Field: "Subject", Message: "is required"},
			expected: `validation error for "Subject": is required`,
		},
		{
			name:     "without field - returns message only",
			err:      &service.ValidationError{Field: "", Message: "invalid request body"},
			expected: "invalid request body",
		},
		{
			name:     "empty message with field",
			err:      &service.ValidationError{Field: "UserID", Message: ""},
			expected: `validation error for "UserID": `,
		},
		{
			name:     "both empty",
			err:      &service.ValidationError{Field: "", Message: ""},
			expected: "",
		},
		{
			name:     "field with special characters",
			err:      &service.ValidationError{Field: "Users[0].ID", Message: "must be greater than 0"},
			expected: `validation error for "Users[0].ID": must be greater than 0`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestValidationError_implements_error(t *testing.T) {
	var err error = &service.ValidationError{Field: "x", Message: "bad"}
	assert.Error(t, err)
}

func TestUnavailableError_Error(t *testing.T) {
	err := &service.UnavailableError{Reason: "scheduler is shutting down"}
	assert.Equal(t, "service unavailable: scheduler is shutting down", err.Error())
}
