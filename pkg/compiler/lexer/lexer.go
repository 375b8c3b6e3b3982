// Package lexer provides lexical analysis for Tally source code.
package lexer

import (
	"log/slog"

	"github.com/zurustar/tally/pkg/compiler/token"
	"github.com/zurustar/tally/pkg/logger"
)

// Lexer tokenizes Tally source code.
type Lexer struct {
	input        string
	position     int  // current position in input
	readPosition int  // current reading position (after current char)
	ch           byte // current char
	line         int  // line of the current char
	column       int  // column of the current char
	log          *slog.Logger
}

// New creates a new Lexer.
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
		log:    logger.GetLogger(),
	}
	l.readChar()
	return l
}

// Tokenize scans source and returns its tokens, always terminated by a
// single END token.
func Tokenize(source string) ([]token.Token, error) {
	return New(source).Tokenize()
}

// Tokenize consumes the rest of the input.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.END {
			return tokens, nil
		}
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() (token.Token, error) {
	for {
		l.skipWhitespace()
		if l.ch == '/' && l.peekChar() == '/' {
			l.skipComment()
			continue
		}

		line, column := l.line, l.column
		var tok token.Token

		switch l.ch {
		case 0:
			if l.position >= len(l.input) {
				return token.Token{Kind: token.END, Line: line, Column: column}, nil
			}
			l.skipUnknown()
			continue
		case '=', '!', '<', '>':
			if l.peekChar() == '=' {
				ch := l.ch
				l.readChar()
				tok = token.Token{Kind: token.EQUALS, Literal: string(ch) + string(l.ch), Line: line, Column: column}
			} else if l.ch == '=' {
				tok = l.newToken(token.ASSIGN, l.ch)
			} else if l.ch == '!' {
				l.skipUnknown()
				continue
			} else {
				tok = l.newToken(token.OPERATOR, l.ch)
			}
		case '+', '-', '*', '/':
			tok = l.newToken(token.OPERATOR, l.ch)
		case '^':
			tok = l.newToken(token.POWER, l.ch)
		case '(':
			tok = l.newToken(token.LPAREN, l.ch)
		case ')':
			tok = l.newToken(token.RPAREN, l.ch)
		case '{':
			tok = l.newToken(token.LBRACE, l.ch)
		case '}':
			tok = l.newToken(token.RBRACE, l.ch)
		case '[':
			tok = l.newToken(token.LBRACKET, l.ch)
		case ']':
			tok = l.newToken(token.RBRACKET, l.ch)
		case ',':
			tok = l.newToken(token.COMMA, l.ch)
		case ';':
			tok = l.newToken(token.SEMICOLON, l.ch)
		case '.':
			tok = l.newToken(token.DOT, l.ch)
		case '"':
			literal, err := l.readString()
			if err != nil {
				return token.Token{}, err
			}
			tok = token.Token{Kind: token.STRING, Literal: literal, Line: line, Column: column}
		default:
			if isLetter(l.ch) {
				literal := l.readIdentifier()
				return token.Token{Kind: token.LookupIdent(literal), Literal: literal, Line: line, Column: column}, nil
			}
			if isDigit(l.ch) {
				return token.Token{Kind: token.NUMBER, Literal: l.readNumber(), Line: line, Column: column}, nil
			}
			l.skipUnknown()
			continue
		}

		l.readChar()
		return tok, nil
	}
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads digits with an optional fractional part.
func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[position:l.position]
}

// readString reads a string literal. There are no escape sequences: the
// first closing quote ends the literal.
func (l *Lexer) readString() (string, error) {
	line, column := l.line, l.column
	position := l.position + 1
	for {
		l.readChar()
		if l.ch == '"' {
			return l.input[position:l.position], nil
		}
		if l.position >= len(l.input) {
			return "", &LexError{Message: "unterminated string literal", Line: line, Column: column}
		}
	}
}

// skipComment skips a // comment up to the end of the line.
func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.position < len(l.input) {
		l.readChar()
	}
}

// skipWhitespace skips whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// skipUnknown drops a character that starts no token.
func (l *Lexer) skipUnknown() {
	l.log.Debug("Skipping unrecognized character", "char", string(l.ch), "line", l.line, "column", l.column)
	l.readChar()
}

// newToken creates a single-character token at the current position.
func (l *Lexer) newToken(kind token.Kind, ch byte) token.Token {
	return token.Token{Kind: kind, Literal: string(ch), Line: l.line, Column: l.column}
}

// isLetter checks if a character can start an identifier.
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

// isDigit checks if a character is a digit.
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
