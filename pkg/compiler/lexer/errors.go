package lexer

import "fmt"

// LexError reports a malformed token such as an unterminated string literal.
type LexError struct {
	Message string
	Line    int
	Column  int
}

// Error implements the error interface.
func (e *LexError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Line, e.Column)
}

// Incomplete reports whether more input could fix the error. The only
// lexical error is an unterminated string, which a later quote closes.
func (e *LexError) Incomplete() bool {
	return true
}
