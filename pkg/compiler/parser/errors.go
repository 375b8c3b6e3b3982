package parser

import (
	"fmt"

	"github.com/zurustar/tally/pkg/compiler/token"
)

// ParseError reports the first token that did not fit the grammar.
type ParseError struct {
	Message  string      // what the parser expected
	Expected string      // kind name of the required token, "" for a broader category
	Found    token.Token // the offending token
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s, got %s at line %d, column %d",
		e.Message, e.Found, e.Found.Line, e.Found.Column)
}

// Incomplete reports whether parsing failed only because input ran out,
// i.e. more source could still make the program valid.
func (e *ParseError) Incomplete() bool {
	return e.Found.Kind == token.END
}
