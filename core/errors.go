package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	parts := make([]string, len(err.Fields))
	for i, fld := range err.Fields {
		parts[i] = fld.Field + ": " + fld.Error
	}
	if len(parts) == 0 {
		return "invalid input"
	}
	return strings.Join(parts, "; ")
}

// DeliveryError wraps a notification delivery failure so callers can tell a
// dependency fault apart from a business-rule refusal.
type DeliveryError struct {
	Err error
}

func NewDeliveryError(err error) error { return &DeliveryError{Err: err} }

func (err DeliveryError) Error() string {
	if err.Err == nil {
		return "delivery failed"
	}
	return err.Err.Error()
}

func IsDeliveryError(err error) bool {
	_, ok := errors.Cause(err).(*DeliveryError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
