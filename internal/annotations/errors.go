package annotations

import "fmt"

// ErrorCode represents different types of annotation errors
type ErrorCode int

const (
	SyntaxErrorCode ErrorCode = iota
	ValidationErrorCode
	SchemaErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case SyntaxErrorCode:
		return "SyntaxError"
	case ValidationErrorCode:
		return "ValidationError"
	case SchemaErrorCode:
		return "SchemaError"
	default:
		return "UnknownError"
	}
}

// Error is returned for every annotation that fails to parse or validate
type Error struct {
	Code ErrorCode // Kind of failure
	Raw  string    // Annotation text
	Msg  string    // Error message
	Hint string    // Suggested fix, may be empty
	Err  error     // Underlying error, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s in %q: %s", e.Code, e.Raw, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func syntaxError(raw string, err error, hint string) *Error {
	return &Error{Code: SyntaxErrorCode, Raw: raw, Msg: "malformed annotation", Hint: hint, Err: err}
}

func validationError(raw, format string, args ...any) *Error {
	return &Error{Code: ValidationErrorCode, Raw: raw, Msg: fmt.Sprintf(format, args...)}
}
