package navigator

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched by errors for 404 responses: no document exists in the requested
// direction.
var ErrNotFound = errors.New("document not found")

// StatusError is returned for non-2xx API responses.
type StatusError struct {
	Op         string // e.g. "next"
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: server returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// Is reports 404 responses as ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err indicates a 404 response.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
