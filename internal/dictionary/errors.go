package dictionary

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when the service reports that it has no entry for
// the requested word.
var ErrNotFound = errors.New("dictionary: word not found")

// MissMessage is the user-facing text for a lookup miss.
func MissMessage(word string) string {
	return "No definition found for " + strings.ToLower(word) + "!"
}

// TransportError wraps any failure to obtain or decode a response. Its
// Error text is the underlying failure's message, unmodified, because it is
// displayed to the user as-is.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "transport error"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

func transportErrorf(format string, args ...any) *TransportError {
	return &TransportError{Err: fmt.Errorf(format, args...)}
}
