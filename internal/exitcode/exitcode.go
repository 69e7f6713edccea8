package exitcode

import (
	"os"
	"strings"

	"github.com/intraworks/workbench/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AuthError indicates an authentication or session failure
	AuthError = 3

	// NetworkError indicates a network connectivity issue
	NetworkError = 4

	// ConfigError indicates invalid or unreadable configuration
	ConfigError = 5

	// Interrupted indicates the operation was cancelled by the user
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	// Coded errors map directly.
	switch errors.CodeOf(err) {
	case errors.ErrCodeAuthInvalidCredentials,
		errors.ErrCodeAuthRefreshFailed,
		errors.ErrCodeAuthRefreshExpired,
		errors.ErrCodeAuthUnauthorized,
		errors.ErrCodeAuthIncompleteResponse:
		return AuthError
	case errors.ErrCodeAPIRequest:
		return NetworkError
	case errors.ErrCodeConfigNotFound, errors.ErrCodeConfigInvalid:
		return ConfigError
	}

	errMsg := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "timeout") {
		return NetworkError
	}

	// Usage errors
	if strings.Contains(errMsg, "unknown command") || strings.Contains(errMsg, "required flag") {
		return UsageError
	}

	return GeneralError
}

// Description returns a human-readable description of an exit code
func Description(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case ConfigError:
		return "Configuration error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
