// Package token defines the lexical tokens of Tally source code.
package token

import "fmt"

// Kind represents the kind of a token.
type Kind int

// Token kinds
const (
	END Kind = iota

	// Literals
	NUMBER     // 10, 3.5
	STRING     // "abc"
	IDENTIFIER // x, total_2

	// Words
	KEYWORD // print, if, else, ...
	RETURN  // return

	// Operators
	OPERATOR // + - * / < >
	EQUALS   // == != <= >=
	ASSIGN   // =
	POWER    // ^

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	SEMICOLON // ;
	DOT       // .
)

// Token represents a lexical token.
// Line and Column are 1-indexed and only used for diagnostics.
type Token struct {
	Kind    Kind
	Literal string
	Line    int
	Column  int
}

// kindNames maps Kind to its string representation.
var kindNames = map[Kind]string{
	END: "END",

	NUMBER:     "NUMBER",
	STRING:     "STRING",
	IDENTIFIER: "IDENTIFIER",

	KEYWORD: "KEYWORD",
	RETURN:  "RETURN",

	OPERATOR: "OPERATOR",
	EQUALS:   "EQUALS",
	ASSIGN:   "ASSIGN",
	POWER:    "POWER",

	LPAREN:    "LPAREN",
	RPAREN:    "RPAREN",
	LBRACE:    "LBRACE",
	RBRACE:    "RBRACE",
	LBRACKET:  "LBRACKET",
	RBRACKET:  "RBRACKET",
	COMMA:     "COMMA",
	SEMICOLON: "SEMICOLON",
	DOT:       "DOT",
}

// String returns a string representation of the token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsLiteral returns true if the kind carries a literal value.
func (k Kind) IsLiteral() bool {
	return k >= NUMBER && k <= IDENTIFIER
}

// String renders a token for error messages, e.g. IDENTIFIER("x").
func (t Token) String() string {
	if t.Kind == END {
		return "end of input"
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Literal)
}

// Is reports whether the token has the given kind and literal.
func (t Token) Is(kind Kind, literal string) bool {
	return t.Kind == kind && t.Literal == literal
}

// keywords lists the reserved words. "return" gets its own kind.
var keywords = map[string]bool{
	"print":    true,
	"if":       true,
	"else":     true,
	"true":     true,
	"false":    true,
	"while":    true,
	"function": true,
	"push":     true,
	"pop":      true,
	"length":   true,
	"join":     true,
}

// LookupIdent classifies a word as RETURN, KEYWORD or IDENTIFIER.
// The lookup is case-sensitive.
func LookupIdent(ident string) Kind {
	if ident == "return" {
		return RETURN
	}
	if keywords[ident] {
		return KEYWORD
	}
	return IDENTIFIER
}
