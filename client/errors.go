package client

import (
	"fmt"

	clienterrors "github.com/orma-app/orma/client/internal/errors"
)

// ValidationError reports input the controller refused to submit: blank
// text, an unusable position, or a failed geolocation.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %v", e.Reason, e.Err)
	}
	return "validation: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// QuotaExceededError reports a submission refused by the local quota check.
type QuotaExceededError struct {
	Remaining int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %d submissions remaining", e.Remaining)
}

// WriteError wraps a failed append.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return "write failed: " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }

// ReadError wraps a failed query. Readers keep their last good snapshot
// when they see one.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return "read failed: " + e.Err.Error() }
func (e *ReadError) Unwrap() error { return e.Err }

// GeolocationError wraps a failed position lookup.
type GeolocationError struct {
	Err error
}

func (e *GeolocationError) Error() string { return "geolocation failed: " + e.Err.Error() }
func (e *GeolocationError) Unwrap() error { return e.Err }

// IsIrrecoverable reports whether err carries an HTTP/network classification
// that retry logic should give up on.
func IsIrrecoverable(err error) bool { return clienterrors.IsIrrecoverable(err) }
