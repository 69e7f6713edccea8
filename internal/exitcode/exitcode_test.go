package exitcode

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/intraworks/workbench/internal/errors"
)

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, Success},
		{"invalid credentials", errors.NewInvalidCredentialsError(""), AuthError},
		{"unauthorized", errors.NewUnauthorizedError(), AuthError},
		{"refresh failed", errors.NewRefreshFailedError(fmt.Errorf("x")), AuthError},
		{"wrapped coded error", fmt.Errorf("op: %w", errors.NewUnauthorizedError()), AuthError},
		{"api request", errors.New(errors.ErrCodeAPIRequest, "dial failed"), NetworkError},
		{"config invalid", errors.NewConfigInvalidError("bad"), ConfigError},
		{"plain connection error", fmt.Errorf("connection refused"), NetworkError},
		{"plain timeout", fmt.Errorf("request timeout"), NetworkError},
		{"usage", fmt.Errorf(`unknown command "bard"`), UsageError},
		{"anything else", fmt.Errorf("boom"), GeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineExitCode(tt.err))
		})
	}
}

func TestDescription(t *testing.T) {
	assert.Equal(t, "Success", Description(Success))
	assert.Equal(t, "Authentication error", Description(AuthError))
	assert.Equal(t, "Unknown error", Description(99))
}
