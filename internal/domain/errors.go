// Package domain holds the error taxonomy shared by the event and registration services.
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrUnauthenticated  = errors.New("authentication required")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

// Eligibility failure reasons carried by forbidden errors.
const (
	ReasonCollege = "college"
	ReasonGrade   = "grade"
)

// Error is a classified outcome. Kind is one of the sentinels above and is what
// errors.Is matches; Message is stable user-facing text.
type Error struct {
	Kind    error
	Field   string
	Reason  string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func Validation(field, message string) error {
	return &Error{Kind: ErrValidation, Field: field, Message: message}
}

func Unauthenticated(message string) error {
	return &Error{Kind: ErrUnauthenticated, Message: message}
}

func Forbidden(message string) error {
	return &Error{Kind: ErrForbidden, Message: message}
}

// Ineligible is a forbidden error carrying the failed whitelist axis.
func Ineligible(reason string) error {
	message := "not eligible to register for this event"
	switch reason {
	case ReasonCollege:
		message = "not eligible to register for this event (college restriction)"
	case ReasonGrade:
		message = "not eligible to register for this event (grade restriction)"
	}
	return &Error{Kind: ErrForbidden, Reason: reason, Message: message}
}

func NotFound(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func Conflict(message string) error {
	return &Error{Kind: ErrConflict, Message: message}
}

func CapacityExceeded(message string) error {
	return &Error{Kind: ErrCapacityExceeded, Message: message}
}

// ReasonOf returns the eligibility reason attached to err, if any.
func ReasonOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Reason
	}
	return ""
}

// FieldOf returns the offending field of a validation error, if any.
func FieldOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Field
	}
	return ""
}
