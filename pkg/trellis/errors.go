package trellis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents the type of registration error that occurred
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	MetadataMissingCode
	KindMismatchCode
	ImplicitPathViolationCode
	CycleDetectedCode
	AnnotationSyntaxCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case MetadataMissingCode:
		return "MetadataMissing"
	case KindMismatchCode:
		return "KindMismatch"
	case ImplicitPathViolationCode:
		return "ImplicitPathViolation"
	case CycleDetectedCode:
		return "CycleDetected"
	case AnnotationSyntaxCode:
		return "AnnotationSyntax"
	default:
		return "UnknownError"
	}
}

// Sentinel errors matched by errors.Is against a *RegistrationError.
var (
	ErrMetadataMissing  = errors.New("metadata missing")
	ErrKindMismatch     = errors.New("kind mismatch")
	ErrImplicitPath     = errors.New("implicit path requires method prefix")
	ErrCycle            = errors.New("nested route cycle")
	ErrAnnotationSyntax = errors.New("annotation syntax")
)

func (e ErrorCode) sentinel() error {
	switch e {
	case MetadataMissingCode:
		return ErrMetadataMissing
	case KindMismatchCode:
		return ErrKindMismatch
	case ImplicitPathViolationCode:
		return ErrImplicitPath
	case CycleDetectedCode:
		return ErrCycle
	case AnnotationSyntaxCode:
		return ErrAnnotationSyntax
	default:
		return nil
	}
}

// RegistrationError is a startup-time failure raised while turning
// declarations into a routing tree.
type RegistrationError struct {
	Code    ErrorCode // type of error
	Entity  Entity    // entity being registered, zero when unknown
	Member  string    // member name for endpoint-level failures
	Message string    // error message
	Hints   []string  // helpful suggestions for fixing the error
	Cause   error     // underlying error cause
}

// Error implements the error interface
func (e *RegistrationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code.String())
	if !e.Entity.IsZero() {
		b.WriteString(" in ")
		b.WriteString(e.Entity.String())
		if e.Member != "" {
			b.WriteString(".")
			b.WriteString(e.Member)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error cause for error chain inspection
func (e *RegistrationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's code.
func (e *RegistrationError) Is(target error) bool {
	return target != nil && target == e.Code.sentinel()
}

// Suggestions returns helpful suggestions for fixing the error
func (e *RegistrationError) Suggestions() []string {
	return e.Hints
}

func newError(code ErrorCode, entity Entity, member, format string, args ...any) *RegistrationError {
	return &RegistrationError{
		Code:    code,
		Entity:  entity,
		Member:  member,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *RegistrationError) withHints(hints ...string) *RegistrationError {
	e.Hints = append(e.Hints, hints...)
	return e
}

func (e *RegistrationError) withCause(err error) *RegistrationError {
	e.Cause = err
	return e
}

// missing builds a MetadataMissing error for a required attribute.
func missing(entity Entity, member string, attr Attribute) *RegistrationError {
	return newError(MetadataMissingCode, entity, member, "required attribute %s is not set", attr)
}
