package apiclient

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindTransport: no response was received.
	KindTransport Kind = iota + 1
	// KindStatus: the server answered with a non-success status.
	KindStatus
	// KindSessionExpired: the server rejected the stored token; the session
	// has already been torn down.
	KindSessionExpired
	// KindDecode: a success response did not carry valid JSON.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindSessionExpired:
		return "session_expired"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the failure value of every call.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("apiclient: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("apiclient: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so callers can write
// errors.Is(err, ErrSessionExpired).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Status == 0 || t.Status == e.Status)
}

// ErrSessionExpired is returned after a 401 on an authenticated call. The
// logout has already run; the caller should stop processing.
var ErrSessionExpired = &Error{Kind: KindSessionExpired, Status: 401, Message: "session expired"}

// KindOf reports the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// StatusOf reports the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
