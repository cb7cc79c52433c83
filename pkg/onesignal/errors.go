package onesignal

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned by New when credentials or settings are unusable.
	ErrConfiguration = errors.New("onesignal: configuration error")
	// ErrValidation is returned before any network call when caller input is rejected.
	ErrValidation = errors.New("onesignal: validation error")
	// ErrUnexpectedStatus is wrapped by a TransportError for HTTP statuses >= 400.
	ErrUnexpectedStatus = errors.New("unexpected http status")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// TransportError reports a failed exchange with the OneSignal API: the request could
// not be sent, the server answered with an error status, or the body was not JSON.
type TransportError struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("onesignal: %s: %s %s: http %d: %s", e.Op, e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("onesignal: %s: %s %s: %v", e.Op, e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
