// Package apperr is the error taxonomy shared by every transport.
// Errors carry a Kind that maps onto HTTP status codes, protocol error codes
// and a one-line user-facing message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/pkg/protocol"
)

// Kind classifies an error for the boundary layers.
type Kind string

const (
	KindUnknown                Kind = ""
	KindBadRequest             Kind = "bad_request"
	KindUpstreamUnavailable    Kind = "upstream_unavailable"
	KindUpstreamMalformed      Kind = "upstream_malformed"
	KindLocalCapabilityMissing Kind = "local_capability_missing"
)

// ErrEmptyContent is returned when an article yields no usable text.
// It is reported to callers as a bad request.
var ErrEmptyContent = errors.New("article has no readable content")

// Error is a classified error. Op names the failing operation
// ("article.parse", "explain.chunk").
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a kind and operation. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// BadRequest, Unavailable, Malformed and Missing are shorthands for E.
func BadRequest(op string, err error) error  { return E(KindBadRequest, op, err) }
func Unavailable(op string, err error) error { return E(KindUpstreamUnavailable, op, err) }
func Malformed(op string, err error) error   { return E(KindUpstreamMalformed, op, err) }
func Missing(op string, err error) error     { return E(KindLocalCapabilityMissing, op, err) }

// KindOf returns the outermost kind in err's chain. ErrEmptyContent counts
// as a bad request even when unclassified.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnknown {
		return e.Kind
	}
	if errors.Is(err, ErrEmptyContent) {
		return KindBadRequest
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case KindUpstreamMalformed:
		return http.StatusBadGateway
	case KindLocalCapabilityMissing:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// Code maps an error to a protocol error code.
func Code(err error) string {
	switch KindOf(err) {
	case KindBadRequest:
		return protocol.ErrBadRequest
	case KindUpstreamUnavailable:
		return protocol.ErrUpstreamUnavailable
	case KindUpstreamMalformed:
		return protocol.ErrUpstreamMalformed
	case KindLocalCapabilityMissing:
		return protocol.ErrLocalCapabilityMissing
	default:
		return protocol.ErrInternal
	}
}
