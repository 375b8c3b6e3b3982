package vm

import (
	"fmt"

	"github.com/zurustar/tally/pkg/compiler/token"
)

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	ErrorUndefinedVar    ErrorType = "UNDEFINED_VARIABLE"
	ErrorUndefinedFunc   ErrorType = "UNDEFINED_FUNCTION"
	ErrorTypeMismatch    ErrorType = "TYPE_ERROR"
	ErrorIndexOutOfRange ErrorType = "INDEX_OUT_OF_RANGE"
	ErrorDivisionByZero  ErrorType = "DIVISION_BY_ZERO"
	ErrorUnknownOperator ErrorType = "UNKNOWN_OPERATOR"
	ErrorUnknownMethod   ErrorType = "UNKNOWN_METHOD"
	ErrorUnknownProperty ErrorType = "UNKNOWN_PROPERTY"
	ErrorArityMismatch   ErrorType = "ARITY_MISMATCH"
	ErrorStackOverflow   ErrorType = "STACK_OVERFLOW"
	ErrorCancelled       ErrorType = "CANCELLED"
)

// Sentinels for errors.Is. Matching compares the Type only.
var (
	ErrUndefinedVariable = &RuntimeError{Type: ErrorUndefinedVar}
	ErrUndefinedFunction = &RuntimeError{Type: ErrorUndefinedFunc}
	ErrTypeMismatch      = &RuntimeError{Type: ErrorTypeMismatch}
	ErrIndexOutOfRange   = &RuntimeError{Type: ErrorIndexOutOfRange}
	ErrDivisionByZero    = &RuntimeError{Type: ErrorDivisionByZero}
	ErrUnknownOperator   = &RuntimeError{Type: ErrorUnknownOperator}
	ErrUnknownMethod     = &RuntimeError{Type: ErrorUnknownMethod}
	ErrUnknownProperty   = &RuntimeError{Type: ErrorUnknownProperty}
	ErrArityMismatch     = &RuntimeError{Type: ErrorArityMismatch}
	ErrStackOverflow     = &RuntimeError{Type: ErrorStackOverflow}
	ErrCancelled         = &RuntimeError{Type: ErrorCancelled}
)

// RuntimeError represents a runtime error in the interpreter. Every runtime
// error aborts the run.
type RuntimeError struct {
	Type    ErrorType
	Message string
	Line    int // 0 when unknown
	Column  int
	Err     error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] %s at line %d, column %d", e.Type, e.Message, e.Line, e.Column)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Is matches any *RuntimeError with the same Type.
func (e *RuntimeError) Is(target error) bool {
	t, ok := target.(*RuntimeError)
	return ok && t.Type == e.Type
}

// Unwrap returns the underlying cause, such as a context error.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError without position information.
func NewRuntimeError(errType ErrorType, message string) *RuntimeError {
	return &RuntimeError{Type: errType, Message: message}
}

// errorAt creates a RuntimeError positioned at tok.
func errorAt(errType ErrorType, tok token.Token, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
	}
}

// NewDivisionByZeroError creates a division by zero error.
func NewDivisionByZeroError(tok token.Token) *RuntimeError {
	return errorAt(ErrorDivisionByZero, tok, "division by zero")
}

// NewIndexOutOfRangeError creates an index out of range error.
func NewIndexOutOfRangeError(tok token.Token, name string, index, length int) *RuntimeError {
	return errorAt(ErrorIndexOutOfRange, tok, "index %d out of range for %s (length %d)", index, name, length)
}

// NewUndefinedVariableError creates an undefined variable error.
func NewUndefinedVariableError(tok token.Token, name string) *RuntimeError {
	return errorAt(ErrorUndefinedVar, tok, "undefined variable: %s", name)
}

// NewUndefinedFunctionError creates an undefined function error.
func NewUndefinedFunctionError(tok token.Token, name string) *RuntimeError {
	return errorAt(ErrorUndefinedFunc, tok, "undefined function: %s", name)
}

// NewStackOverflowError creates a stack overflow error.
func NewStackOverflowError(tok token.Token, depth, max int) *RuntimeError {
	return errorAt(ErrorStackOverflow, tok, "stack overflow: depth %d exceeds maximum %d", depth, max)
}
