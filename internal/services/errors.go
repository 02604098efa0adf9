package services

import (
	"errors"
	"fmt"
)

// Error codes surfaced to API clients alongside the HTTP status.
const (
	CodeValidation    = "VALIDATION"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeQuotaExceeded = "QUOTA_EXCEEDED"
	CodeSelfVote      = "SELF_VOTE"
	CodeConflict      = "CONFLICT"
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: 400, Code: CodeValidation, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: 401, Code: CodeUnauthorized, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: 403, Code: CodeForbidden, Message: msg}
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: 404, Code: CodeNotFound, Message: msg}
}

// ErrQuotaExceeded marks an upload or vote attempt past the monthly limit.
func ErrQuotaExceeded(msg string) error {
	return ServiceError{Status: 409, Code: CodeQuotaExceeded, Message: msg}
}

// ErrSelfVote marks a vote cast on the caller's own photo.
func ErrSelfVote(msg string) error {
	return ServiceError{Status: 409, Code: CodeSelfVote, Message: msg}
}

func ErrConflict(msg string) error {
	return ServiceError{Status: 409, Code: CodeConflict, Message: msg}
}

// ErrorCode extracts the service error code, or "" for plain errors.
func ErrorCode(err error) string {
	var serr ServiceError
	if errors.As(err, &serr) {
		return serr.Code
	}
	return ""
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
