package editerr

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable failure class carried to the client in the
// final result message.
type Kind string

const (
	KindValidation              Kind = "ValidationError"
	KindGenerationFailure       Kind = "GenerationFailure"
	KindTargetNotFound          Kind = "TargetNotFound"
	KindAmbiguousTarget         Kind = "AmbiguousTarget"
	KindInvalidActionParameters Kind = "InvalidActionParameters"
	KindTimeout                 Kind = "Timeout"
	KindUpstreamFailure         Kind = "UpstreamFailure"
)

// Error pairs a Kind with a human-readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err. Errors outside the taxonomy map to
// UpstreamFailure so every terminal path still yields a classified result.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstreamFailure
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
