// Package compiler provides the front-end pipeline for Tally scripts (.tly files).
// It transforms source code into an AST through two phases:
// 1. Lexer: Tokenization
// 2. Parser: AST generation
//
// and offers Run, which hands the AST to the interpreter in pkg/vm.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/zurustar/tally/pkg/compiler/ast"
	"github.com/zurustar/tally/pkg/compiler/lexer"
	"github.com/zurustar/tally/pkg/compiler/parser"
	"github.com/zurustar/tally/pkg/logger"
	"github.com/zurustar/tally/pkg/script"
	"github.com/zurustar/tally/pkg/vm"
)

// Compile tokenizes and parses UTF-8 source. Lexer and parser failures are
// returned as *CompileError carrying a source excerpt.
func Compile(source string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		var lexErr *lexer.LexError
		if errors.As(err, &lexErr) {
			return nil, newLexerError(lexErr, source)
		}
		return nil, err
	}

	program, err := parser.Parse(tokens)
	if err != nil {
		var parseErr *parser.ParseError
		if errors.As(err, &parseErr) {
			return nil, newParserError(parseErr, source)
		}
		return nil, err
	}

	logger.GetLogger().Debug("Compiled source", "tokens", len(tokens), "statements", len(program.Statements))
	return program, nil
}

// CompileFile reads path, decodes it with the named encoding ("" or "auto"
// to detect) and compiles the result.
func CompileFile(path, encoding string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	content, _, err := script.Decode(data, encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding for %s: %w", path, err)
	}

	program, err := Compile(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return program, nil
}

// Run compiles source and interprets it on a fresh Interpreter configured
// with opts. It returns the value of the program's last statement.
func Run(ctx context.Context, source string, opts ...vm.Option) (vm.Value, error) {
	program, err := Compile(source)
	if err != nil {
		return nil, err
	}
	return vm.New(opts...).InterpretContext(ctx, program)
}
