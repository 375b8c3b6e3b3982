// Package parser builds an AST from a Tally token stream.
//
// The grammar, from statements down to the tightest-binding expressions:
//
//	statement  := "return" [expr] | ["function"] NAME "(" params ")" block
//	            | NAME "=" expr | NAME "[" expr "]" "=" expr | NAME "." NAME "(" args ")"
//	            | "print" "(" expr ")" | "if" "(" expr ")" block ["else" (block | if)]
//	            | "while" "(" expr ")" block | expr
//	comparison := additive (("==" | "!=" | "<" | ">" | "<=" | ">=") additive)*
//	additive   := multiplicative (("+" | "-") multiplicative)*
//	multiplicative := exponent (("*" | "/") exponent)*
//	exponent   := primary ("^" primary)*
//	primary    := "(" expr ")" | NUMBER | STRING | "true" | "false" | "[" [expr ("," expr)*] "]"
//	            | NAME "[" expr "]" | NAME "." NAME ["(" args ")"] | NAME "(" args ")" | NAME
package parser

import (
	"fmt"
	"strconv"

	"github.com/zurustar/tally/pkg/compiler/ast"
	"github.com/zurustar/tally/pkg/compiler/token"
)

// MaxNestingDepth bounds how deeply blocks, parentheses and array literals
// may nest before parsing fails.
const MaxNestingDepth = 500

// Parser parses a token slice into an AST.
type Parser struct {
	tokens []token.Token
	pos    int // index of the current token
	depth  int // current nesting depth
}

// New creates a new Parser. A missing END terminator is supplied.
func New(tokens []token.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.END {
		end := token.Token{Kind: token.END}
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			end.Line, end.Column = last.Line, last.Column+len(last.Literal)
		}
		tokens = append(tokens[:len(tokens):len(tokens)], end)
	}
	return &Parser{tokens: tokens}
}

// Parse parses tokens into a program.
func Parse(tokens []token.Token) (*ast.Program, error) {
	return New(tokens).ParseProgram()
}

// ParseProgram parses the entire program. The first syntax error aborts parsing.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{}
	program.Statements = []ast.Statement{}

	for !p.curTokenIs(token.END) {
		// Skip semicolons (statement terminators)
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
	}

	return program, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Kind {
	case token.RETURN:
		return p.parseReturnStatement()
	case token.KEYWORD:
		switch p.cur().Literal {
		case "function":
			return p.parseFunctionDeclaration()
		case "print":
			return p.parsePrintStatement()
		case "if":
			return p.parseIfStatement()
		case "while":
			return p.parseWhileStatement()
		}
		return p.parseExpressionStatement()
	case token.IDENTIFIER:
		return p.parseIdentifierStatement()
	default:
		return p.parseExpressionStatement()
	}
}

// parseIdentifierStatement disambiguates statements that start with a name:
// declaration, assignment, element assignment, method call, or a plain
// expression. On mismatch the cursor is rewound to the name.
func (p *Parser) parseIdentifierStatement() (ast.Statement, error) {
	name := p.cur()

	if p.peekTokenIs(token.LPAREN) && p.looksLikeDeclaration() {
		return p.parseFunctionSignature(name)
	}

	start := p.pos
	p.nextToken()

	switch p.cur().Kind {
	case token.ASSIGN:
		p.nextToken()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Token: name, Name: name.Literal, Value: value}, nil

	case token.LBRACKET:
		index, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		if p.curTokenIs(token.ASSIGN) {
			p.nextToken()
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return &ast.ArrayElementAssignment{Token: name, Array: name.Literal, Index: index, Value: value}, nil
		}

	case token.DOT:
		p.nextToken()
		if isMemberName(p.cur()) && p.peekTokenIs(token.LPAREN) {
			method := p.cur().Literal
			p.nextToken()
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			return &ast.ArrayMethodCall{Token: name, Array: name.Literal, Method: method, Args: args}, nil
		}

	default:
		p.backToken()
		return p.parseExpressionStatement()
	}

	p.pos = start
	return p.parseExpressionStatement()
}

// looksLikeDeclaration scans NAME "(" [NAME ("," NAME)*] ")" "{" without
// consuming anything.
func (p *Parser) looksLikeDeclaration() bool {
	i := p.pos + 2 // past NAME and "("
	if p.at(i).Kind != token.RPAREN {
		for {
			if p.at(i).Kind != token.IDENTIFIER {
				return false
			}
			i++
			if p.at(i).Kind != token.COMMA {
				break
			}
			i++
		}
		if p.at(i).Kind != token.RPAREN {
			return false
		}
	}
	return p.at(i+1).Kind == token.LBRACE
}

func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	tok := p.cur()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Token: tok, Expression: expr}, nil
}

func (p *Parser) parseReturnStatement() (ast.Statement, error) {
	stmt := &ast.ReturnStatement{Token: p.cur()}
	p.nextToken()

	if p.curTokenIs(token.RBRACE) || p.curTokenIs(token.SEMICOLON) || p.curTokenIs(token.END) {
		return stmt, nil
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt.Value = value
	return stmt, nil
}

// parseFunctionDeclaration parses a declaration starting with 'function'.
func (p *Parser) parseFunctionDeclaration() (ast.Statement, error) {
	p.nextToken()
	name, err := p.expect(token.IDENTIFIER, "expected function name after 'function'")
	if err != nil {
		return nil, err
	}
	p.backToken()
	return p.parseFunctionSignature(name)
}

// parseFunctionSignature parses NAME(params) { body } with the cursor on NAME.
func (p *Parser) parseFunctionSignature(name token.Token) (ast.Statement, error) {
	p.nextToken()
	if _, err := p.expect(token.LPAREN, "expected '(' after function name"); err != nil {
		return nil, err
	}

	params := []string{}
	if !p.curTokenIs(token.RPAREN) {
		for {
			param, err := p.expect(token.IDENTIFIER, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, param.Literal)
			if !p.curTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
	}
	if _, err := p.expect(token.RPAREN, "expected ')' after parameters"); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ast.FunctionDeclaration{Token: name, Name: name.Literal, Parameters: params, Body: body}, nil
}

func (p *Parser) parsePrintStatement() (ast.Statement, error) {
	stmt := &ast.Print{Token: p.cur()}
	p.nextToken()

	if _, err := p.expect(token.LPAREN, "expected '(' after 'print'"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "expected ')' after printed value"); err != nil {
		return nil, err
	}

	stmt.Value = value
	return stmt, nil
}

func (p *Parser) parseIfStatement() (ast.Statement, error) {
	stmt := &ast.IfStatement{Token: p.cur()}
	p.nextToken()

	condition, err := p.parseCondition("if")
	if err != nil {
		return nil, err
	}
	stmt.Condition = condition

	if stmt.IfBlock, err = p.parseBlock(); err != nil {
		return nil, err
	}

	if !p.cur().Is(token.KEYWORD, "else") {
		return stmt, nil
	}
	p.nextToken()

	// "else if" is an else block holding a single nested if statement.
	if p.cur().Is(token.KEYWORD, "if") {
		elseTok := p.cur()
		if err := p.enter(); err != nil {
			return nil, err
		}
		nested, err := p.parseIfStatement()
		p.leave()
		if err != nil {
			return nil, err
		}
		stmt.ElseBlock = &ast.Block{Token: elseTok, Statements: []ast.Statement{nested}}
		return stmt, nil
	}

	if stmt.ElseBlock, err = p.parseBlock(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseWhileStatement() (ast.Statement, error) {
	stmt := &ast.WhileStatement{Token: p.cur()}
	p.nextToken()

	condition, err := p.parseCondition("while")
	if err != nil {
		return nil, err
	}
	stmt.Condition = condition

	if stmt.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseCondition parses "(" expr ")" after if/while.
func (p *Parser) parseCondition(keyword string) (ast.Expression, error) {
	if _, err := p.expect(token.LPAREN, fmt.Sprintf("expected '(' after '%s'", keyword)); err != nil {
		return nil, err
	}
	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "expected ')' after condition"); err != nil {
		return nil, err
	}
	return condition, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	open, err := p.expect(token.LBRACE, "expected '{' to start a block")
	if err != nil {
		return nil, err
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	block := &ast.Block{Token: open}
	block.Statements = []ast.Statement{}

	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.END) {
			return nil, p.errorf("expected '}' to close block")
		}
		// Skip optional semicolons
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.nextToken()

	return block, nil
}

// ============================================================================
// Expressions
// ============================================================================

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseComparison()
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for p.curTokenIs(token.EQUALS) || p.curIsOperator("<", ">") {
		op := p.cur()
		p.nextToken()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.ComparisonExpression{Token: op, Left: left, Operator: op.Literal, Right: right}
	}

	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for p.curIsOperator("+", "-") {
		op := p.cur()
		p.nextToken()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Token: op, Left: left, Operator: op.Literal, Right: right}
	}

	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseExponent()
	if err != nil {
		return nil, err
	}

	for p.curIsOperator("*", "/") {
		op := p.cur()
		p.nextToken()
		right, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Token: op, Left: left, Operator: op.Literal, Right: right}
	}

	return left, nil
}

func (p *Parser) parseExponent() (ast.Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.curTokenIs(token.POWER) {
		op := p.cur()
		p.nextToken()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Token: op, Left: left, Operator: op.Literal, Right: right}
	}

	return left, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.cur()

	switch tok.Kind {
	case token.LPAREN:
		return p.parseGroupedExpression()

	case token.NUMBER:
		value, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.errorf("could not parse %q as number", tok.Literal)
		}
		p.nextToken()
		return &ast.NumberLiteral{Token: tok, Value: value}, nil

	case token.STRING:
		p.nextToken()
		return &ast.StringLiteral{Token: tok, Value: tok.Literal}, nil

	case token.KEYWORD:
		if tok.Literal == "true" || tok.Literal == "false" {
			p.nextToken()
			return &ast.BooleanLiteral{Token: tok, Value: tok.Literal == "true"}, nil
		}

	case token.LBRACKET:
		return p.parseArrayLiteral()

	case token.IDENTIFIER:
		return p.parseIdentifierExpression()
	}

	return nil, p.errorf("expected expression")
}

func (p *Parser) parseGroupedExpression() (ast.Expression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.nextToken()
	exp, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "expected ')' to close expression"); err != nil {
		return nil, err
	}
	return exp, nil
}

func (p *Parser) parseArrayLiteral() (ast.Expression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	array := &ast.ArrayLiteral{Token: p.cur()}
	array.Elements = []ast.Expression{}
	p.nextToken()

	if p.curTokenIs(token.RBRACKET) {
		p.nextToken()
		return array, nil
	}

	for {
		elem, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		array.Elements = append(array.Elements, elem)
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if _, err := p.expect(token.RBRACKET, "expected ']' to close array literal"); err != nil {
		return nil, err
	}
	return array, nil
}

// parseIdentifierExpression handles the forms led by a name, decided by the
// token that follows it.
func (p *Parser) parseIdentifierExpression() (ast.Expression, error) {
	name := p.cur()
	p.nextToken()

	switch p.cur().Kind {
	case token.LBRACKET:
		index, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		return &ast.ArrayElementAccess{Token: name, Array: name.Literal, Index: index}, nil

	case token.DOT:
		p.nextToken()
		member := p.cur()
		if !isMemberName(member) {
			return nil, p.errorf("expected method or property name after '.'")
		}
		p.nextToken()
		if p.curTokenIs(token.LPAREN) {
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			return &ast.ArrayMethodExpression{Token: name, Array: name.Literal, Method: member.Literal, Args: args}, nil
		}
		if member.Literal == "length" {
			return &ast.ArrayProperty{Token: name, Array: name.Literal, Property: member.Literal}, nil
		}
		return nil, &ParseError{Message: fmt.Sprintf("expected '(' after method %q", member.Literal), Found: member}

	case token.LPAREN:
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		return &ast.FunctionCall{Token: name, Name: name.Literal, Arguments: args}, nil
	}

	return &ast.Variable{Token: name, Name: name.Literal}, nil
}

// parseIndex parses "[" expr "]". An index counts as one nesting level,
// so a[a[a[...]]] is bounded like parentheses are.
func (p *Parser) parseIndex() (ast.Expression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.nextToken()
	index, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACKET, "expected ']' after array index"); err != nil {
		return nil, err
	}
	return index, nil
}

// parseArguments parses "(" [expr ("," expr)*] ")".
func (p *Parser) parseArguments() ([]ast.Expression, error) {
	if _, err := p.expect(token.LPAREN, "expected '(' before arguments"); err != nil {
		return nil, err
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	args := []ast.Expression{}
	if p.curTokenIs(token.RPAREN) {
		p.nextToken()
		return args, nil
	}

	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if _, err := p.expect(token.RPAREN, "expected ')' after arguments"); err != nil {
		return nil, err
	}
	return args, nil
}

// Helper functions
func (p *Parser) cur() token.Token {
	return p.at(p.pos)
}

// at returns the token at index i, clamped to the END token.
func (p *Parser) at(i int) token.Token {
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) curTokenIs(k token.Kind) bool {
	return p.cur().Kind == k
}

func (p *Parser) peekTokenIs(k token.Kind) bool {
	return p.at(p.pos+1).Kind == k
}

func (p *Parser) curIsOperator(ops ...string) bool {
	tok := p.cur()
	if tok.Kind != token.OPERATOR {
		return false
	}
	for _, op := range ops {
		if tok.Literal == op {
			return true
		}
	}
	return false
}

func (p *Parser) nextToken() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

// backToken undoes the last nextToken.
func (p *Parser) backToken() {
	if p.pos > 0 {
		p.pos--
	}
}

// expect consumes the current token if it has kind k.
func (p *Parser) expect(k token.Kind, msg string) (token.Token, error) {
	tok := p.cur()
	if tok.Kind != k {
		err := p.errorf("%s", msg)
		err.Expected = k.String()
		return tok, err
	}
	p.nextToken()
	return tok, nil
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > MaxNestingDepth {
		return p.errorf("nesting exceeds maximum depth %d", MaxNestingDepth)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Found: p.cur()}
}

// isMemberName accepts identifiers and keywords after '.', since the array
// methods push, pop, join and length are reserved words.
func isMemberName(tok token.Token) bool {
	return tok.Kind == token.IDENTIFIER || tok.Kind == token.KEYWORD
}
