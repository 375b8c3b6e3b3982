// Package compiler provides the front-end pipeline for Tally scripts.
// This file defines the CompileError type for structured error reporting.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zurustar/tally/pkg/compiler/lexer"
	"github.com/zurustar/tally/pkg/compiler/parser"
)

// Phase names used in CompileError.
const (
	PhaseLexer  = "lexer"
	PhaseParser = "parser"
)

// CompileError represents a lexer or parser failure with its location and
// an excerpt of the surrounding source.
type CompileError struct {
	// Phase is PhaseLexer or PhaseParser.
	Phase string

	// Message is the human-readable error description.
	Message string

	// Line and Column are 1-indexed.
	Line   int
	Column int

	// Context contains the source code around the error location, with a
	// pointer (^) under the error column.
	Context string

	// Err is the underlying *lexer.LexError or *parser.ParseError.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s error at line %d, column %d: %s\n%s",
			e.Phase, e.Line, e.Column, e.Message, e.Context)
	}
	return fmt.Sprintf("%s error at line %d, column %d: %s",
		e.Phase, e.Line, e.Column, e.Message)
}

// Unwrap returns the lexer or parser error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// Incomplete reports whether the error was caused by input ending early.
func (e *CompileError) Incomplete() bool {
	return IsIncomplete(e.Err)
}

// IsIncomplete reports whether err, or any error it wraps, says that more
// input could still complete the program. The REPL uses it to decide
// between a continuation prompt and an error.
func IsIncomplete(err error) bool {
	var lexErr *lexer.LexError
	if errors.As(err, &lexErr) {
		return lexErr.Incomplete()
	}
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Incomplete()
	}
	return false
}

// newLexerError decorates a lexer error with source context.
func newLexerError(err *lexer.LexError, source string) *CompileError {
	return &CompileError{
		Phase:   PhaseLexer,
		Message: err.Message,
		Line:    err.Line,
		Column:  err.Column,
		Context: GenerateErrorContext(source, err.Line, err.Column),
		Err:     err,
	}
}

// newParserError decorates a parser error with source context. The message
// names both the expectation and the token that was found.
func newParserError(err *parser.ParseError, source string) *CompileError {
	return &CompileError{
		Phase:   PhaseParser,
		Message: fmt.Sprintf("%s, got %s", err.Message, err.Found),
		Line:    err.Found.Line,
		Column:  err.Found.Column,
		Context: GenerateErrorContext(source, err.Found.Line, err.Found.Column),
		Err:     err,
	}
}

// GenerateErrorContext generates source code context around an error location.
// It includes 2 lines before and 2 lines after the error line, with line numbers
// and a pointer (^) indicating the error column.
//
// Example output:
//
//	  2 | x = 5
//	  3 | y = 10
//	> 4 | z = )
//	    |     ^
//	  5 | print(x)
func GenerateErrorContext(source string, line, column int) string {
	if source == "" || line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}

	start := max(line-3, 0)
	end := min(line+2, len(lines))

	lineNumWidth := len(fmt.Sprintf("%d", end))

	var buf strings.Builder
	for i := start; i < end; i++ {
		lineNum := i + 1
		content := strings.TrimRight(lines[i], "\r")

		if lineNum != line {
			fmt.Fprintf(&buf, "  %*d | %s\n", lineNumWidth, lineNum, content)
			continue
		}

		fmt.Fprintf(&buf, "> %*d | %s\n", lineNumWidth, lineNum, content)
		pad := 0
		if column > 0 {
			pad = column - 1
		}
		fmt.Fprintf(&buf, "  %*s | %s^\n", lineNumWidth, "", strings.Repeat(" ", pad))
	}

	return buf.String()
}
