// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInputNotFound    = errors.New("input not found")
	ErrInputUnreadable  = errors.New("input unreadable")
	ErrParse            = errors.New("parse error")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDatabaseError    = errors.New("database error")
	ErrOutputUnwritable = errors.New("output unwritable")
	ErrUnsupportedInput = errors.New("unsupported input format")
)

// ParseError represents a record that could not be parsed.
type ParseError struct {
	Line    int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	loc := ""
	if e.Line > 0 {
		loc = fmt.Sprintf(" line %d", e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("parse error%s [%s=%q]: %s: %v", loc, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error%s [%s=%q]: %s", loc, e.Field, e.Value, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes every ParseError match ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewParseError creates a new ParseError.
func NewParseError(line int, field, value, message string, err error) *ParseError {
	return &ParseError{
		Line:    line,
		Field:   field,
		Value:   value,
		Message: message,
		Err:     err,
	}
}

// AtLine returns a copy of the error located at the given input line.
func (e *ParseError) AtLine(line int) *ParseError {
	cp := *e
	cp.Line = line
	return &cp
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a failure reading or storing trade data.
type DataError struct {
	DataType string
	Source   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Source, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, source, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Source:   source,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join combines errors, dropping nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
