package ragapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindTransport covers connection refused, DNS failures and other
	// errors where no HTTP response was received.
	KindTransport Kind = iota + 1
	// KindTimeout is a deadline expiry, either the configured per request
	// timeout or the transport's own.
	KindTimeout
	// KindUnauthorized is a rejected credential or bearer token.
	KindUnauthorized
	// KindValidation is a conflict or validation failure, reported by the
	// server or detected before sending.
	KindValidation
	// KindServer is a 5xx or otherwise unexpected status.
	KindServer
	// KindMalformed is a 2xx answer whose body could not be decoded.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method. Callers can use errors.As to
// extract it:
//
//	var apiErr *ragapi.Error
//	if errors.As(err, &apiErr) && apiErr.Kind == ragapi.KindValidation { ... }
type Error struct {
	// Op is the client operation, e.g. "upload" or "chat".
	Op string
	// Kind classifies the failure.
	Kind Kind
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Message is the human readable reason, taken from the server body
	// when it carries one.
	Message string
	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("ragapi: %s: %s (%d): %s", e.Op, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("ragapi: %s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// IsKind checks whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsUnauthorized(err error) bool {
	return IsKind(err, KindUnauthorized)
}

// retryable reports whether repeating an idempotent request may succeed.
func retryable(err error) bool {
	switch KindOf(err) {
	case KindTransport, KindTimeout, KindServer:
		return true
	}
	return false
}

func transportError(op string, err error) *Error {
	kind := KindTransport
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &Error{Op: op, Kind: kind, Message: err.Error(), Err: err}
}

func validationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindValidation, Message: err.Error(), Err: err}
}

func malformedError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindMalformed, Message: err.Error(), Err: err}
}

func statusError(op string, statusCode int, body []byte) *Error {
	kind := KindServer
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		kind = KindUnauthorized
	case statusCode >= 400 && statusCode < 500:
		kind = KindValidation
	}
	return &Error{Op: op, Kind: kind, StatusCode: statusCode, Message: serverMessage(statusCode, body)}
}

// serverMessage pulls a readable reason out of an error body. FastAPI puts
// it in "detail", other backends in "message" or "error".
func serverMessage(statusCode int, body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"detail", "message", "error", "error_description"} {
			raw, ok := fields[key]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err == nil && s != "" {
				return s
			}
			return string(raw)
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(statusCode)
	}
	const maxLen = 200
	if len(text) > maxLen {
		text = text[:maxLen] + "..."
	}
	return text
}
