// Package apperror is the error taxonomy shared by services and the HTTP layer.
package apperror

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("permission denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnsendExpired      = errors.New("message can no longer be unsent")
	ErrInvalidTransition  = errors.New("invalid session status transition")
	ErrAlreadyRated       = errors.New("session already rated")
)

// AppError carries a Kind for status mapping plus a user-facing message.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func NotFound(what string) *AppError {
	return New(KindNotFound, fmt.Sprintf("%s not found", what), ErrNotFound)
}

func Forbidden(message string) *AppError {
	return New(KindForbidden, message, ErrForbidden)
}

func Validation(message string) *AppError {
	return New(KindValidation, message, nil)
}

func Conflict(err error) *AppError {
	return New(KindConflict, err.Error(), err)
}

func Unauthorized(err error) *AppError {
	return New(KindUnauthorized, err.Error(), err)
}

func Internal(err error) *AppError {
	return New(KindInternal, "internal server error", err)
}

// KindOf resolves the Kind of any error; unknown errors are internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrTokenInvalid):
		return KindUnauthorized
	case IsDuplicateKey(err):
		return KindConflict
	}
	return KindInternal
}

// IsDuplicateKey reports a unique violation (23505), optionally on a named constraint.
func IsDuplicateKey(err error, constraint ...string) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) && len(constraint) == 0 {
		return true
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	for _, c := range constraint {
		if pgErr.ConstraintName == c {
			return true
		}
	}
	return false
}
