package account

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailMapsErrorKindsToEnvelopeCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"user not found", NewUserNotFoundError("a@x.com"), CodeUserNotFound},
		{"already exists", NewUserAlreadyExistsError("a@x.com"), CodeUserExists},
		{"auth failed", NewAuthFailedError("a@x.com"), CodeAuthFailed},
		{"no data", NewNoDataError(), CodeNoData},
		{"foreign error", errors.New("connection refused"), CodeServerError},
		{"wrapped account error", fmt.Errorf("op: %w", NewNoDataError()), CodeNoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Fail(tt.err)
			assert.Equal(t, tt.code, result.Code)
			assert.NotEmpty(t, result.Message)
			assert.Nil(t, result.Data)
		})
	}
}

func TestOK(t *testing.T) {
	result := OK("payload")
	assert.Equal(t, CodeOK, result.Code)
	assert.Equal(t, "payload", result.Data)
	assert.Empty(t, result.Message)
}
