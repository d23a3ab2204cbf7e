package exitcode

import (
	stderrors "errors"
	"net/http"
	"os"
	"strings"

	"github.com/felixgeelhaar/journal/internal/apiclient"
	"github.com/felixgeelhaar/journal/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// APIError indicates the server rejected the request
	APIError = 3

	// NotFound indicates the requested resource or route does not exist
	NotFound = 4

	// AuthError indicates an authentication or authorization failure
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// Interrupted indicates the command was cancelled by SIGINT or SIGTERM
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

	code := DetermineExitCode(err)
	Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if apiclient.IsTransport(err) {
		return NetworkError
	}

	switch status := apiclient.StatusCode(err); {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return AuthError
	case status == http.StatusNotFound:
		return NotFound
	case status != 0:
		return APIError
	}

	var jerr *errors.JournalError
	if stderrors.As(err, &jerr) {
		switch {
		case strings.HasPrefix(string(jerr.Code), "AUTH-"):
			return AuthError
		case jerr.Code == errors.ErrCodeRouteNotFound, jerr.Code == errors.ErrCodeFileNotFound:
			return NotFound
		case strings.HasPrefix(string(jerr.Code), "CONFIG-"):
			return UsageError
		case strings.HasPrefix(string(jerr.Code), "API-"):
			return APIError
		}
	}

	// cobra reports usage problems as plain errors
	errMsg := strings.ToLower(err.Error())
	for _, marker := range []string{"unknown command", "unknown flag", "invalid argument", "required flag", "accepts ", "requires at least", "missing argument"} {
		if strings.Contains(errMsg, marker) {
			return UsageError
		}
	}

	return GeneralError
}
