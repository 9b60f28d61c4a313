// Package apperr defines the error taxonomy shared by the HTTP surface and the
// batch runner. Every user-facing failure carries a Kind and a detail string.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the machine-readable error category.
type Kind string

const (
	KindAuthentication   Kind = "authentication_error"
	KindValidation       Kind = "validation_error"
	KindPrecondition     Kind = "precondition_error"
	KindProviderQuota    Kind = "provider_quota_error"
	KindProviderFormat   Kind = "provider_format_error"
	KindProviderTimeout  Kind = "provider_timeout"
	KindStorage          Kind = "storage_error"
	KindReportGeneration Kind = "report_generation_error"
	KindPersistence      Kind = "persistence_error"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindRateLimited      Kind = "rate_limited"
	KindInternal         Kind = "internal_error"
)

// Error is a classified application error.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Detail + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap classifies err under kind. The wrapped error is kept for logs only.
func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err, or KindInternal when it is unclassified.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// DetailOf returns the user-facing detail of err. Unclassified errors get a
// generic message so internals never leak.
func DetailOf(err error) string {
	if appErr, ok := As(err); ok && appErr.Detail != "" {
		return appErr.Detail
	}
	return "Unexpected server error"
}

// HTTPStatus maps a kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindValidation, KindPrecondition:
		return http.StatusBadRequest
	case KindProviderQuota, KindRateLimited:
		return http.StatusTooManyRequests
	case KindProviderFormat, KindStorage, KindReportGeneration:
		return http.StatusBadGateway
	case KindProviderTimeout:
		return http.StatusGatewayTimeout
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
