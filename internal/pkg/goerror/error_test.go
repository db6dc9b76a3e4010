package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTooManyRequest(t *testing.T) {
	err := NewTooManyRequest("slow down", 42)

	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, http.StatusTooManyRequests, gerr.StatusCode())
	assert.Equal(t, 42, gerr.RetryAfter())
	assert.Equal(t, map[string]string{"retry_after": "42"}, gerr.Fields())
	assert.Equal(t, "slow down", gerr.Error())

	noHint := NewTooManyRequest("slow down", 0)
	require.True(t, errors.As(noHint, &gerr))
	assert.Zero(t, gerr.RetryAfter())
	assert.Nil(t, gerr.Fields())
}

func TestNewBusinessWithFields(t *testing.T) {
	err := NewBusinessWithFields("Invalid OTP", CodeRejected, "remaining_attempts", "3", "dangling")

	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, http.StatusBadRequest, gerr.StatusCode())
	assert.Equal(t, TypeBusiness, gerr.Type())
	assert.Equal(t, map[string]string{"remaining_attempts": "3"}, gerr.Fields())
}

func TestNewServer(t *testing.T) {
	cause := errors.New("boom")
	err := NewServer(cause)

	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error", gerr.Msg())
	assert.Equal(t, http.StatusInternalServerError, gerr.StatusCode())
}

func TestNewServerWithMessage(t *testing.T) {
	cause := errors.New("gateway down")
	err := NewServerWithMessage(cause, "Failed to send OTP. Please try again.")

	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to send OTP. Please try again.", gerr.Msg())
	assert.Equal(t, TypeServer, gerr.Type())
}

func TestNewInvalidInput(t *testing.T) {
	err := NewInvalidInput(nil, "phone", "phone is invalid")

	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, http.StatusUnprocessableEntity, gerr.StatusCode())
	assert.Equal(t, "phone is invalid", gerr.Fields()["phone"])

	odd := NewInvalidInput(nil, "phone")
	require.True(t, errors.As(odd, &gerr))
	assert.Equal(t, CodeInvalidFormat, gerr.Code())
}

func TestCode(t *testing.T) {
	tests := []struct {
		code   Code
		name   string
		status int
	}{
		{CodeInternal, "ERROR_CODE_INTERNAL", http.StatusInternalServerError},
		{CodeInvalidFormat, "ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
		{CodeInvalidInput, "ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
		{CodeRejected, "ERROR_CODE_REJECTED", http.StatusBadRequest},
		{CodeTooManyRequest, "ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
		{CodeLockedOut, "ERROR_CODE_LOCKED_OUT", http.StatusTooManyRequests},
		{Code(99), "ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			require.True(t, errors.As(NewBusiness("x", tt.code), &gerr))
			assert.Equal(t, tt.name, tt.code.String())
			assert.Equal(t, tt.status, gerr.StatusCode())
		})
	}
}
