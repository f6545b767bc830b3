package catalog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind is a coarse-grained classification of catalog failures.
type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument"
	KindUnavailable     Kind = "unavailable"
	KindNotFound        Kind = "not_found"
	KindUpstream        Kind = "upstream_error"
	KindInternal        Kind = "internal"
)

// ErrInvalidPagination is wrapped by errors raised for out-of-range limit/offset values.
var ErrInvalidPagination = errors.New("limit must be positive and offset cannot be negative")

// Error is returned by every Client operation.
type Error struct {
	Op         string
	Kind       Kind
	Identifier string // requested id, type name or offending parameter
	StatusCode int    // upstream status, set for KindNotFound and KindUpstream
	Timeout    bool   // set for KindUnavailable when the call ran out of time
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("catalog.%s: %s", e.Op, e.Kind)
	if e.Identifier != "" {
		base += fmt.Sprintf(" (%s)", e.Identifier)
	}
	if e.StatusCode != 0 {
		base += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Retryable reports whether the same call may succeed later.
func (e *Error) Retryable() bool {
	return e != nil && e.Kind == KindUnavailable
}

// IsKind reports whether err is a catalog Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

// classifyTransport maps an error from sending a request or reading its body.
// Timeouts and connection failures are unavailable; everything else is internal.
func classifyTransport(op, identifier string, err error) *Error {
	e := &Error{Op: op, Identifier: identifier, Err: err}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		e.Kind = KindUnavailable
		e.Timeout = true
	case isConnectionFailure(err):
		e.Kind = KindUnavailable
	default:
		e.Kind = KindInternal
	}
	return e
}

func isConnectionFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

// classifyStatus maps a non-2xx upstream status. notFoundAware is false for
// endpoints where 404 carries no meaning of its own.
func classifyStatus(op, identifier string, status int, notFoundAware bool) *Error {
	e := &Error{Op: op, Identifier: identifier, StatusCode: status, Kind: KindUpstream}
	if notFoundAware && status == http.StatusNotFound {
		e.Kind = KindNotFound
	}
	return e
}
