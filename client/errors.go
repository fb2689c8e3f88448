package client

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned for any 401 response. The transport does not
// log out or navigate by itself; the top-level controller owns that
// decision.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError carries the per-field message map of a 422 response.
// Screens render only the first message per field.
type ValidationError struct {
	Fields map[string][]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// First returns the first message for field, or "".
func (e *ValidationError) First(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// StatusError is any other non-2xx response, propagated untouched.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// AsValidation unwraps err into a *ValidationError when it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
