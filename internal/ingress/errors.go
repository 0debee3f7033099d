package ingress

import (
	"errors"
	"fmt"
)

// Kind classifies an ingress error for logging and metering purposes.
type Kind string

const (
	KindConfig           Kind = "config"
	KindBind             Kind = "bind"
	KindHandshake        Kind = "handshake"
	KindProtocol         Kind = "protocol"
	KindAdmission        Kind = "admission"
	KindRouteNotFound    Kind = "route_not_found"
	KindMethodNotAllowed Kind = "method_not_allowed"
	KindHandler          Kind = "handler"
)

// Error is the structured error type returned by ingress components.
// Kind classifies it, Message is human-readable, Cause is the
// wrapped underlying error (if any).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Unwrap support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support by comparing Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// newError constructs an *Error of the given kind.
func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// ConfigError reports bad TLS material, invalid CIDR syntax, or
// contradictory configuration. Fatal at startup.
func ConfigError(message string, cause error) *Error {
	return newError(KindConfig, message, cause)
}

// BindError reports that the listener could not bind. Fatal at startup.
func BindError(message string, cause error) *Error {
	return newError(KindBind, message, cause)
}

// HandshakeError reports a per-connection TLS negotiation failure. The
// connection is dropped; the server keeps running.
func HandshakeError(message string, cause error) *Error {
	return newError(KindHandshake, message, cause)
}

// ProtocolError reports malformed HTTP framing.
func ProtocolError(message string, cause error) *Error {
	return newError(KindProtocol, message, cause)
}

// AdmissionRejected reports a limiter/filter/rate-limit rejection. This
// is not logged as an error path; callers meter it themselves.
func AdmissionRejected(message string) *Error {
	return newError(KindAdmission, message, nil)
}

// ErrAlreadyServing is returned by Server.ListenAndServe when called
// more than once.
var ErrAlreadyServing = errors.New("ingress: ListenAndServe already called")

// ErrNotServing is returned by operations that require the server to
// be in the Serving state.
var ErrNotServing = errors.New("ingress: server is not serving")

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
