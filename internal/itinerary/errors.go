package itinerary

import (
	"errors"
	"strings"
)

// Error kinds. Use errors.Is to classify an error returned by any component.
var (
	// ErrConfiguration indicates a required upstream credential or setting is missing.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound indicates a stop could not be geocoded or a leg could not be routed.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates the caller supplied unusable input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream indicates any other upstream failure.
	ErrUpstream = errors.New("upstream failure")
)

// Error is a classified error with an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NotFound returns an ErrNotFound error. The message should name what was not found.
func NotFound(message string, cause error) error {
	return &Error{Kind: ErrNotFound, Message: message, Err: cause}
}

// InvalidInput returns an ErrInvalidInput error.
func InvalidInput(message string) error {
	return &Error{Kind: ErrInvalidInput, Message: message}
}

// Upstream returns an ErrUpstream error.
func Upstream(message string, cause error) error {
	return &Error{Kind: ErrUpstream, Message: message, Err: cause}
}

// Configuration returns an ErrConfiguration error.
func Configuration(message string) error {
	return &Error{Kind: ErrConfiguration, Message: message}
}

// IsNotFound reports whether err is of the not-found kind, either by type or by
// carrying a "not found" / "failed to find" marker in its message.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "failed to find")
}
