package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for broad classification.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ErrorKind is a coarse-grained categorization for domain errors.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindAlreadyExists     ErrorKind = "already_exists"
	KindInvalidArgument   ErrorKind = "invalid_argument"
	KindValidation        ErrorKind = "validation"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindUnknown           ErrorKind = "unknown"
)

// InvalidArgumentError reports a field-level validation failure.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func NewInvalidArgument(field, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Reason: reason}
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AlreadyExistsError reports a uniqueness violation, e.g. a duplicate email.
type AlreadyExistsError struct {
	Entity string
	Field  string
	Value  string
}

func NewAlreadyExists(entity, field, value string) *AlreadyExistsError {
	return &AlreadyExistsError{Entity: entity, Field: field, Value: value}
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// ValidationError is a generic business-rule violation that is not tied to
// a single argument.
type ValidationError struct {
	Msg string
}

func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// TransitionError reports a state change outside the allowed edges.
type TransitionError struct {
	Entity  string
	From    string
	To      string
	Allowed []string
	// Msg overrides the generated message when set.
	Msg string
}

func (e *TransitionError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	allowed := "none"
	if len(e.Allowed) > 0 {
		allowed = strings.Join(e.Allowed, ", ")
	}
	return fmt.Sprintf("cannot transition %s status from %s to %s (allowed: %s)", e.Entity, e.From, e.To, allowed)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// KindOf classifies err without depending on its concrete type.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	default:
		return KindUnknown
	}
}

// IsKind helps callers classify errors without depending on adapters.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
