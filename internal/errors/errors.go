// Package errors provides the typed error taxonomy shared by the engine,
// the catalog loader and the CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInput indicates a rejected caller input (non-numeric value, unknown result)
	TypeInput Type = "INPUT_ERROR"

	// TypeAutoCalculated indicates a direct write to a derived result
	TypeAutoCalculated Type = "AUTO_CALCULATED"

	// TypeUnsupportedUnit indicates a unit or unit pair the conversion table cannot serve
	TypeUnsupportedUnit Type = "UNSUPPORTED_UNIT"

	// TypeUnresolved indicates a definition without a default variant
	TypeUnresolved Type = "UNRESOLVED_EXCEPTION"

	// TypeAmbiguous indicates two equally ranked variants matched (strict mode only)
	TypeAmbiguous Type = "AMBIGUOUS_EXCEPTION"

	// TypeCatalog indicates an integrity problem in the test catalog or recommendation store
	TypeCatalog Type = "CATALOG_ERROR"

	// TypeParsing indicates a catalog or job file that could not be parsed
	TypeParsing Type = "PARSING_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeNotFound indicates a missing test, result, group or product
	TypeNotFound Type = "NOT_FOUND"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType reports whether err, or any error in its tree (including
// errors.Join branches), is an *Error of type t.
func IsType(err error, t Type) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok && e.Type == t {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if IsType(inner, t) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return IsType(u.Unwrap(), t)
	}
	return false
}

// TypeOf returns the type of the outermost *Error in err's chain, or "" when there is none.
func TypeOf(err error) Type {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}

// Input creates an input error
func Input(message string) *Error {
	return New(TypeInput, message)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// Catalog creates a catalog integrity error
func Catalog(message string) *Error {
	return New(TypeCatalog, message)
}

// NotFound creates a not found error
func NotFound(kind string, identifier interface{}) *Error {
	return Newf(TypeNotFound, "%s not found: %v", kind, identifier)
}

// UnsupportedUnit creates an unsupported unit error
func UnsupportedUnit(from, to string) *Error {
	if to == "" {
		return Newf(TypeUnsupportedUnit, "unsupported unit %q", from)
	}
	return Newf(TypeUnsupportedUnit, "cannot convert %q to %q", from, to)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
