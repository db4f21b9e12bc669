package argerr

import (
	"errors"
	"fmt"
)

// The error kinds of Argus. Use errors.Is to test which kind an error is.
var (
	// ErrConfiguration means an endpoint or setting was rejected before
	// any network activity happened.
	ErrConfiguration = errors.New("configuration error")

	// ErrProbeFailure means a check ran and the target did not pass.
	ErrProbeFailure = errors.New("probe failure")

	// ErrNotification means delivering a notification failed. It never
	// affects monitoring state.
	ErrNotification = errors.New("notification failure")

	// ErrPersistence means reading or writing the snapshot failed.
	ErrPersistence = errors.New("persistence failure")
)

// Error carries one of the kinds above together with an optional cause.
// errors.Is matches the kind, errors.Unwrap returns the cause.
type Error struct {
	kind    error
	from    error
	message string
}

// New builds an Error of the given kind. The cause may be nil. When both a
// message and a cause are present they are joined with ": ".
func New(kind error, from error, format string, args ...interface{}) Error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case from == nil:
	case msg == "":
		msg = from.Error()
	default:
		msg = msg + ": " + from.Error()
	}

	return Error{kind: kind, from: from, message: msg}
}

func (e Error) Error() string {
	return e.message
}

// Unwrap returns the cause passed to New, or nil.
func (e Error) Unwrap() error {
	return e.from
}

// Is reports whether err is this error's kind.
func (e Error) Is(err error) bool {
	return e.kind == err
}
