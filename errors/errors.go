package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated    = fmt.Errorf("unauthenticated")
	ErrValidation         = fmt.Errorf("validation error")
	ErrNotAMember         = fmt.Errorf("not a member")
	ErrPersistence        = fmt.Errorf("persistence failure")
	ErrNotAuthorized      = fmt.Errorf("not authorized")
	ErrNotFound           = fmt.Errorf("not found")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrRateLimited        = fmt.Errorf("rate limited")
	ErrConnectionClosed   = fmt.Errorf("connection closed")
	ErrQueueFull          = fmt.Errorf("outbound queue full")
	ErrInvalidPayload     = fmt.Errorf("invalid payload")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
)

// Code is the stable wire identifier sent to clients in rejection events.
type Code string

const (
	CodeUnauthenticated Code = "unauthenticated"
	CodeValidation      Code = "validation_error"
	CodeNotAMember      Code = "not_a_member"
	CodePersistence     Code = "persistence_failure"
	CodeNotAuthorized   Code = "not_authorized"
	CodeNotFound        Code = "not_found"
	CodeRateLimited     Code = "rate_limited"
	CodeInternal        Code = "internal"
)

// Is and As are re-exported so callers only import one errors package.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func New(text string) error { return stderrors.New(text) }

// ToCode maps an error chain onto its wire code.
func ToCode(err error) Code {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrUnauthenticated), Is(err, ErrInvalidCredentials):
		return CodeUnauthenticated
	case Is(err, ErrValidation), Is(err, ErrInvalidPayload), Is(err, ErrInvalidPassword):
		return CodeValidation
	case Is(err, ErrNotAMember):
		return CodeNotAMember
	case Is(err, ErrPersistence):
		return CodePersistence
	case Is(err, ErrNotAuthorized):
		return CodeNotAuthorized
	case Is(err, ErrNotFound):
		return CodeNotFound
	case Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return CodeInternal
	}
}

// HTTPStatus maps an error chain onto the status code returned by the HTTP API.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case Is(err, ErrValidation), Is(err, ErrInvalidPassword), Is(err, ErrInvalidPayload),
		Is(err, ErrUserAlreadyExists), Is(err, ErrInvalidCredentials):
		return http.StatusBadRequest
	case Is(err, ErrNotAMember), Is(err, ErrNotAuthorized):
		return http.StatusForbidden
	case Is(err, ErrNotFound):
		return http.StatusNotFound
	case Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
