// Package errors provides structured error handling for the websocket hub,
// classifying failures by how they are reported and contained.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType categorizes an error for metrics and client reporting.
type ErrorType string

const (
	// TypeProtocol indicates a malformed or unparseable inbound frame.
	// Reported to the offending connection; the connection stays open.
	TypeProtocol ErrorType = "protocol"
	// TypeAuth indicates a failed authentication attempt (unknown user or
	// tenant, tenant mismatch). The connection stays open for a retry.
	TypeAuth ErrorType = "auth"
	// TypeAuthorization indicates a non-auth frame on a connection that has
	// not authenticated yet.
	TypeAuthorization ErrorType = "authorization"
	// TypeTransport indicates a send or ping failure. The only fatal class:
	// the connection is unregistered and closed, nothing else is affected.
	TypeTransport ErrorType = "transport"
	// TypeDerivation indicates a broadcast call whose entity carried no
	// tenant information. Logged and swallowed, never propagated.
	TypeDerivation ErrorType = "derivation"
)

// Error is a structured error with type, client-facing message, and cause.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ClientMessage returns the message safe to send to the client in an error
// frame. Transport and derivation errors are never sent to clients.
func (e *Error) ClientMessage() string {
	return e.Message
}

// ProtocolError creates a protocol error.
func ProtocolError(message string) *Error {
	return &Error{Type: TypeProtocol, Message: message}
}

// AuthError creates an authentication error.
func AuthError(message string) *Error {
	return &Error{Type: TypeAuth, Message: message}
}

// AuthorizationError creates an authorization error.
func AuthorizationError(message string) *Error {
	return &Error{Type: TypeAuthorization, Message: message}
}

// TransportError wraps a transport-level failure.
func TransportError(message string, cause error) *Error {
	return &Error{Type: TypeTransport, Message: message, Cause: cause}
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error, returns it unchanged. Otherwise wraps it as a
// transport error, the catch-all fatal class.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return TransportError("internal error", err)
}
