package api

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies a failed call so callers can react without inspecting
// message text.
type Kind int

const (
	KindTransport Kind = iota
	KindUnauthenticated
	KindRateLimited
	KindNotEnrolled
	KindNoChatbot
	KindMalformed
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRateLimited:
		return "rate_limited"
	case KindNotEnrolled:
		return "not_enrolled"
	case KindNoChatbot:
		return "no_chatbot"
	case KindMalformed:
		return "malformed"
	case KindTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrNoToken is returned, wrapped in an Unauthenticated *Error, when an
// authenticated call is attempted without a session token. No request is
// sent in that case.
var ErrNoToken = errors.New("no auth token found")

// Error is the error type returned by every Client method.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" && e.Status != 0 {
		msg = fmt.Sprintf("HTTP error! Status: %d", e.Status)
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of err. Errors that did not come from this package
// are Transport, except context deadlines which are Timeout.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindTransport
}

// transportError wraps a failure of the HTTP round trip itself.
func transportError(op string, err error) *Error {
	kind := KindTransport
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = KindTimeout
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// statusError converts a non-2xx response into an *Error.
func statusError(op string, r *response) *Error {
	kind := KindTransport
	switch r.status {
	case 401:
		kind = KindUnauthenticated
	case 429:
		kind = KindRateLimited
	}
	return &Error{Op: op, Kind: kind, Status: r.status, Message: r.message()}
}

// FieldError describes a rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError is returned when a request fails local validation and was
// therefore never sent.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return ""
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	if len(parts) == 0 {
		return e.Err.Error()
	}
	return e.Err.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Unwrap() error { return e.Err }
