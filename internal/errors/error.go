package errors

import "fmt"

// Category represents the type of error.
type Category string

const (
	CategoryCapability Category = "capability"
	CategoryDowncast   Category = "downcast"
	CategoryContext    Category = "context"
	CategoryAnimation  Category = "animation"
	CategoryEngine     Category = "engine"
)

// EngineError is a structured error with a code, detail, and suggestion.
type EngineError struct {
	// Code is a unique error identifier (e.g., "Z001").
	Code string

	// Category is the error type (capability, downcast, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *EngineError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error. It replaces any
// detail supplied by the code registry.
func (e *EngineError) WithDetail(format string, args ...any) *EngineError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *EngineError) WithSuggestion(s string) *EngineError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *EngineError) Wrap(err error) *EngineError {
	e.Wrapped = err
	return e
}

// New creates an EngineError from a registered code. Unknown codes produce a
// generic engine-category error so callers never have to nil-check.
func New(code string) *EngineError {
	tmpl, ok := registry[code]
	if !ok {
		return &EngineError{
			Code:     code,
			Category: CategoryEngine,
			Message:  "unknown error",
		}
	}
	return &EngineError{
		Code:       code,
		Category:   tmpl.Category,
		Message:    tmpl.Message,
		Detail:     tmpl.Detail,
		Suggestion: tmpl.Suggestion,
	}
}

// Newf creates an unregistered EngineError with a formatted message.
func Newf(category Category, format string, args ...any) *EngineError {
	return &EngineError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Format returns the full human-readable rendering of the error: code,
// message, detail and suggestion on separate lines. Used as panic text for
// programmer errors.
func (e *EngineError) Format() string {
	out := fmt.Sprintf("[ZVAR %s] %s", e.Code, e.Message)
	if e.Detail != "" {
		out += "\n  " + e.Detail
	}
	if e.Suggestion != "" {
		out += "\n  hint: " + e.Suggestion
	}
	if e.Wrapped != nil {
		out += "\n  cause: " + e.Wrapped.Error()
	}
	return out
}
