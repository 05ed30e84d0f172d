package wizzmo

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind mirrors the server's error taxonomy so callers can decide whether to
// alert, retry or ignore.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
	KindNetwork      Kind = "network"
)

// APIError is returned by every Client call that fails.
type APIError struct {
	Status  int
	Kind    Kind
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wizzmo: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("wizzmo: %s (%d): %s", e.Kind, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the same call may succeed later.
func (e *APIError) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindInternal
}

func kindFromStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}

// KindOf returns the kind of err, or "" when err is not an *APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
