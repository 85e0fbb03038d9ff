package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ErrTodoNotFound returns an error for when a todo id does not exist.
func ErrTodoNotFound(id int) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("todo not found: %d", id),
		Suggestion: "Run 'todoui list' to see the current todo ids",
	}
}

// ErrEmptyBody wraps the empty-body validation error.
func ErrEmptyBody(err error) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: "Provide the task text, e.g. 'todoui add Buy groceries'",
	}
}

// ErrInvalidTodoID returns an error for a non-numeric todo id argument.
func ErrInvalidTodoID(arg string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid todo id: %s", arg),
		Suggestion: "Todo ids are integers; run 'todoui list' to see them",
	}
}

// ErrInvalidFilter returns an error for an unknown filter mode with valid options.
func ErrInvalidFilter(mode string, valid []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid filter: %s", mode),
		Suggestion: fmt.Sprintf("Valid options: %s", strings.Join(valid, ", ")),
	}
}

// ErrBaseURLRequired returns an error when production mode has no API base URL.
func ErrBaseURLRequired(environment string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("api.base_url is required in %s mode", environment),
		Suggestion: "Set api.base_url in your config file, pass --api-url, or export TODOUI_API_URL",
	}
}

// ErrBackendOffline returns an error when the API is unreachable with smart suggestions.
func ErrBackendOffline(name, reason string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("backend %s is offline: %s", name, reason),
		Suggestion: getSmartSuggestion(reason),
	}
}

// ErrRequestsPaused returns an error when requests are held back after
// repeated server failures. They resume once wait has passed.
func ErrRequestsPaused(name string, wait time.Duration) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("backend %s is offline: too many consecutive failures, requests paused", name),
		Suggestion: fmt.Sprintf("Requests are paused after repeated server errors; retry in %s", wait),
	}
}

// getSmartSuggestion returns a context-aware suggestion based on the error reason.
func getSmartSuggestion(reason string) string {
	lowerReason := strings.ToLower(reason)

	if strings.Contains(lowerReason, "no such host") || strings.Contains(lowerReason, "dns") {
		return "Check your DNS settings and internet connection"
	}

	if strings.Contains(lowerReason, "connection refused") {
		return "Check if the todos API server is running and api.base_url is correct"
	}

	if strings.Contains(lowerReason, "timeout") || strings.Contains(lowerReason, "deadline exceeded") {
		return "The server may be slow or unreachable. Try again later or raise api.timeout"
	}

	return "Check your internet connection and try again"
}

// ErrCredentialsNotFound returns an error when no API token is available.
func ErrCredentialsNotFound(account string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("no API token found for account %s", account),
		Suggestion: fmt.Sprintf("Run 'todoui credentials set %s' or export TODOUI_API_TOKEN", account),
	}
}

// ErrAuthentication is the root of every authentication failure.
var ErrAuthentication = errors.New("authentication failed")

// ErrAuthenticationFailed returns an error when the API rejects the token.
func ErrAuthenticationFailed(name string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%w for %s", ErrAuthentication, name),
		Suggestion: "Verify your API token is correct and has not expired",
	}
}

// IsSuggestion reports whether err carries a suggestion and returns it.
func IsSuggestion(err error) (*ErrorWithSuggestion, bool) {
	var s *ErrorWithSuggestion
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}
