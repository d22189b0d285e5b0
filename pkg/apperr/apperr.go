// Package apperr carries the engine-wide error taxonomy. Store and service
// operations return these instead of raw driver errors so the API layer can
// map a code to an HTTP status without string matching.
package apperr

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func Validation(msg string) error {
	return New(CodeValidation, msg)
}

func Unauthorized(msg string) error {
	return New(CodeUnauthorized, msg)
}

func InvalidState(msg string) error {
	return New(CodeInvalidState, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func Transient(msg string, cause error) error {
	return Wrap(CodeTransient, msg, cause)
}

// CodeOf extracts the taxonomy code from err, walking the wrap chain.
// Errors produced outside the taxonomy report CodeUnknown.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
