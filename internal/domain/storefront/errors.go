package storefront

import (
	"errors"
	"strings"
)

// Kind classifies a storefront failure
type Kind int

const (
	// KindUnknown is used for errors that did not originate from this context
	KindUnknown Kind = iota
	// KindConnection indicates a TLS handshake or socket establishment failure
	KindConnection
	// KindTransientNetwork indicates a reset, aborted handshake or expired deadline mid-exchange
	KindTransientNetwork
	// KindProtocol indicates a null/empty response line from the remote backend
	KindProtocol
	// KindMalformedResponse indicates a response line that is not a JSON object
	KindMalformedResponse
	// KindFetch indicates a failed pagination count request or page request
	KindFetch
	// KindNotFound indicates a single-record read/delete whose envelope is absent
	KindNotFound
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection error"
	case KindTransientNetwork:
		return "transient network error"
	case KindProtocol:
		return "protocol error"
	case KindMalformedResponse:
		return "malformed response"
	case KindFetch:
		return "fetch error"
	case KindNotFound:
		return "not found"
	default:
		return "unknown error"
	}
}

// Error is a structured storefront failure carrying its Kind and an optional
// upstream message.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// NewError creates a new storefront error
func NewError(kind Kind, op, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("storefront: ")
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is matching by kind
var (
	ErrConnection        = &Error{Kind: KindConnection}
	ErrTransient         = &Error{Kind: KindTransientNetwork}
	ErrProtocol          = &Error{Kind: KindProtocol}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrFetch             = &Error{Kind: KindFetch}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

// ErrNullResponse is the cause attached to protocol errors raised for a literal
// null or empty response line.
var ErrNullResponse = errors.New("null/empty response, likely malformed request")

// KindOf returns the Kind of the first storefront error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTransient reports whether err is eligible for the single-retry policy
func IsTransient(err error) bool {
	return KindOf(err) == KindTransientNetwork
}
