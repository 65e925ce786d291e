package api

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthExpired indicates the server rejected the bearer token (401).
	ErrAuthExpired = errors.New("session expired")

	// ErrForbidden indicates the caller's role lacks access (403).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested resource does not exist (404).
	ErrNotFound = errors.New("not found")

	// ErrConnection indicates the server was unreachable or the response
	// could not be read or parsed.
	ErrConnection = errors.New("connection error")
)

// Error is a server-reported failure carrying the HTTP status and the
// verbatim message from the response body's "error" or "msg" field.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// Validation reports whether the error is a 4xx business/validation refusal.
func (e *Error) Validation() bool {
	return e.Status >= 400 && e.Status < 500
}

// IsAuthExpired reports whether err is, or wraps, a 401 rejection.
func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}

// UserMessage converts any client error into the text shown to the user.
// Server messages pass through unchanged; transport failures get a fixed
// wording with the cause appended.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to do that."
	case errors.Is(err, ErrNotFound):
		return "Not found."
	case errors.Is(err, ErrConnection):
		return "Could not reach the server. Check your connection and retry."
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
