package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/zurustar/tally/pkg/compiler/ast"
	"github.com/zurustar/tally/pkg/compiler/lexer"
)

func parseSource(t *testing.T, input string) *ast.Program {
	t.Helper()
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	program, err := Parse(tokens)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return program
}

func parseError(t *testing.T, input string) *ParseError {
	t.Helper()
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	_, err = Parse(tokens)
	if err == nil {
		t.Fatalf("expected parse error for %q", input)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	return pe
}

func TestIfStatement(t *testing.T) {
	input := `
	if (x == 5) {
		y = 10;
	}
	`

	program := parseSource(t, input)

	if len(program.Statements) != 1 {
		t.Fatalf("program.Statements does not contain 1 statement. got=%d", len(program.Statements))
	}

	stmt, ok := program.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("program.Statements[0] is not ast.IfStatement. got=%T", program.Statements[0])
	}

	if stmt.IfBlock == nil {
		t.Fatal("stmt.IfBlock is nil")
	}
	if len(stmt.IfBlock.Statements) != 1 {
		t.Errorf("if block is not 1 statement. got=%d", len(stmt.IfBlock.Statements))
	}
	if stmt.ElseBlock != nil {
		t.Errorf("expected no else block, got %s", stmt.ElseBlock)
	}
	if _, ok := stmt.Condition.(*ast.ComparisonExpression); !ok {
		t.Errorf("condition is not ComparisonExpression. got=%T", stmt.Condition)
	}
}

func TestIfElseStatement(t *testing.T) {
	input := `
	if (x > 5) {
		y = 10;
	} else {
		y = 20;
		z = 1
	}
	`

	program := parseSource(t, input)

	stmt, ok := program.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("program.Statements[0] is not ast.IfStatement. got=%T", program.Statements[0])
	}
	if stmt.ElseBlock == nil {
		t.Fatal("stmt.ElseBlock is nil")
	}
	if len(stmt.ElseBlock.Statements) != 2 {
		t.Errorf("else block is not 2 statements. got=%d", len(stmt.ElseBlock.Statements))
	}
}

func TestElseIfChain(t *testing.T) {
	program := parseSource(t, `if (x < 1) { a = 1 } else if (x < 2) { a = 2 } else { a = 3 }`)

	stmt := program.Statements[0].(*ast.IfStatement)
	if stmt.ElseBlock == nil || len(stmt.ElseBlock.Statements) != 1 {
		t.Fatalf("expected else block with one nested if, got %v", stmt.ElseBlock)
	}
	nested, ok := stmt.ElseBlock.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected nested IfStatement, got %T", stmt.ElseBlock.Statements[0])
	}
	if nested.ElseBlock == nil {
		t.Error("expected nested else block")
	}
}

func TestWhileStatement(t *testing.T) {
	program := parseSource(t, `while (x < 3) { x = x + 1 }`)

	stmt, ok := program.Statements[0].(*ast.WhileStatement)
	if !ok {
		t.Fatalf("expected WhileStatement, got %T", program.Statements[0])
	}
	if got := stmt.String(); got != "while ((x < 3)) { x = (x + 1) }" {
		t.Errorf("unexpected rendering: %s", got)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 * 2 + 3", "((1 * 2) + 3)"},
		{"10 * (3 ^ 4)", "(10 * (3 ^ 4))"},
		{"2 * 3 ^ 2", "(2 * (3 ^ 2))"},
		{"2 ^ 3 ^ 2", "((2 ^ 3) ^ 2)"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"8 / 4 / 2", "((8 / 4) / 2)"},
		{"a + 1 < b * 2", "((a + 1) < (b * 2))"},
		{"a == b != c", "((a == b) != c)"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"x <= 1 + 1", "(x <= (1 + 1))"},
		{"arr[i + 1] * f(2, 3)", "(arr[(i + 1)] * f(2, 3))"},
		{"arr.length - 1", "(arr.length - 1)"},
		{"arr.join(\"-\") + \"!\"", "(arr.join(\"-\") + \"!\")"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parseSource(t, tt.input)
			if len(program.Statements) != 1 {
				t.Fatalf("expected 1 statement, got %d", len(program.Statements))
			}
			stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
			if !ok {
				t.Fatalf("expected ExpressionStatement, got %T", program.Statements[0])
			}
			if got := stmt.Expression.String(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestIdentifierLedStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected any
	}{
		{"x = 1", &ast.Assignment{}},
		{"arr[0] = 1", &ast.ArrayElementAssignment{}},
		{"arr.push(1, 2)", &ast.ArrayMethodCall{}},
		{"arr.pop()", &ast.ArrayMethodCall{}},
		{"add(1, 2)", &ast.ExpressionStatement{}},
		{"add(a, b)", &ast.ExpressionStatement{}},
		{"add(a, b) { return a + b }", &ast.FunctionDeclaration{}},
		{"noop() { }", &ast.FunctionDeclaration{}},
		{"function add(a, b) { return a + b }", &ast.FunctionDeclaration{}},
		{"x", &ast.ExpressionStatement{}},
		{"arr[0]", &ast.ExpressionStatement{}},
		{"arr[0] + 1", &ast.ExpressionStatement{}},
		{"arr.length", &ast.ExpressionStatement{}},
		{"x + 1", &ast.ExpressionStatement{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parseSource(t, tt.input)
			if len(program.Statements) != 1 {
				t.Fatalf("expected 1 statement, got %d: %s", len(program.Statements), program)
			}
			got := program.Statements[0]
			switch tt.expected.(type) {
			case *ast.Assignment:
				_, ok := got.(*ast.Assignment)
				assertKind(t, ok, got)
			case *ast.ArrayElementAssignment:
				_, ok := got.(*ast.ArrayElementAssignment)
				assertKind(t, ok, got)
			case *ast.ArrayMethodCall:
				_, ok := got.(*ast.ArrayMethodCall)
				assertKind(t, ok, got)
			case *ast.FunctionDeclaration:
				_, ok := got.(*ast.FunctionDeclaration)
				assertKind(t, ok, got)
			case *ast.ExpressionStatement:
				_, ok := got.(*ast.ExpressionStatement)
				assertKind(t, ok, got)
			}
		})
	}
}

func assertKind(t *testing.T, ok bool, got ast.Statement) {
	t.Helper()
	if !ok {
		t.Errorf("unexpected statement type %T (%s)", got, got)
	}
}

func TestFunctionDeclaration(t *testing.T) {
	program := parseSource(t, `function add(x, y) { return x + y }`)

	fn, ok := program.Statements[0].(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("expected FunctionDeclaration, got %T", program.Statements[0])
	}
	if fn.Name != "add" {
		t.Errorf("expected name add, got %s", fn.Name)
	}
	if strings.Join(fn.Parameters, ",") != "x,y" {
		t.Errorf("expected parameters x,y, got %v", fn.Parameters)
	}
	if len(fn.Body.Statements) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(fn.Body.Statements))
	}
	ret, ok := fn.Body.Statements[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("expected ReturnStatement, got %T", fn.Body.Statements[0])
	}
	if ret.Value == nil || ret.Value.String() != "(x + y)" {
		t.Errorf("unexpected return value %v", ret.Value)
	}
}

func TestReturnWithoutValue(t *testing.T) {
	tests := []string{
		"f() { return }",
		"f() { return; x = 1 }",
		"return",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			program := parseSource(t, input)
			var ret *ast.ReturnStatement
			switch s := program.Statements[0].(type) {
			case *ast.ReturnStatement:
				ret = s
			case *ast.FunctionDeclaration:
				ret = s.Body.Statements[0].(*ast.ReturnStatement)
			default:
				t.Fatalf("unexpected statement %T", s)
			}
			if ret.Value != nil {
				t.Errorf("expected no return value, got %s", ret.Value)
			}
		})
	}
}

func TestArrayLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a = []", "a = []"},
		{"a = [1]", "a = [1]"},
		{`a = [1, "two", [3, 4]]`, `a = [1, "two", [3, 4]]`},
		{"a = [x + 1, f(y)]", "a = [(x + 1), f(y)]"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parseSource(t, tt.input)
			if got := program.Statements[0].String(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestMultipleStatements(t *testing.T) {
	program := parseSource(t, `x = 10 print(x) ; y = "a"; arr = [1] arr.push(2) print(arr)`)

	expected := []string{
		"x = 10",
		"print(x)",
		`y = "a"`,
		"arr = [1]",
		"arr.push(2)",
		"print(arr)",
	}
	if len(program.Statements) != len(expected) {
		t.Fatalf("expected %d statements, got %d: %s", len(expected), len(program.Statements), program)
	}
	for i, want := range expected {
		if got := program.Statements[i].String(); got != want {
			t.Errorf("statement %d: expected %s, got %s", i, want, got)
		}
	}
}

func TestBooleanLiterals(t *testing.T) {
	program := parseSource(t, "flag = true == false")
	assign := program.Statements[0].(*ast.Assignment)
	cmp, ok := assign.Value.(*ast.ComparisonExpression)
	if !ok {
		t.Fatalf("expected ComparisonExpression, got %T", assign.Value)
	}
	if b, ok := cmp.Left.(*ast.BooleanLiteral); !ok || !b.Value {
		t.Errorf("expected true literal, got %v", cmp.Left)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input      string
		message    string
		incomplete bool
	}{
		{"print 1", "expected '(' after 'print'", false},
		{"print(1", "expected ')' after printed value", true},
		{"if x > 1 { }", "expected '(' after 'if'", false},
		{"if (x > 1) y = 2", "expected '{' to start a block", false},
		{"while (x < 3) { x = x + 1", "expected '}' to close block", true},
		{"a = [1, 2,]", "expected expression", false},
		{"a = [1, 2", "expected ']' to close array literal", true},
		{"arr.foo", "expected '(' after method \"foo\"", false},
		{"x = ", "expected expression", true},
		{"function (a) { }", "expected function name after 'function'", false},
		{"function f(a, 1) { }", "expected parameter name", false},
		{"x = (1 + 2", "expected ')' to close expression", true},
		{"f(1, 2", "expected ')' after arguments", true},
		{"arr[1 = 2", "expected ']' after array index", false},
		{"= 3", "expected expression", false},
		{"else { }", "expected expression", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			pe := parseError(t, tt.input)
			if pe.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, pe.Message)
			}
			if pe.Incomplete() != tt.incomplete {
				t.Errorf("expected Incomplete()=%v, got %v (%v)", tt.incomplete, pe.Incomplete(), pe)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	pe := parseError(t, "x = 1\ny = )")
	if pe.Found.Line != 2 || pe.Found.Column != 5 {
		t.Errorf("expected error at 2:5, got %d:%d", pe.Found.Line, pe.Found.Column)
	}
	if !strings.Contains(pe.Error(), "line 2, column 5") {
		t.Errorf("error message lacks position: %s", pe.Error())
	}
}

func TestNestingLimit(t *testing.T) {
	input := "x = " + strings.Repeat("(", MaxNestingDepth+1) + "1" + strings.Repeat(")", MaxNestingDepth+1)
	pe := parseError(t, input)
	if !strings.Contains(pe.Message, "nesting exceeds maximum depth") {
		t.Errorf("unexpected message: %s", pe.Message)
	}

	ok := "x = " + strings.Repeat("(", 50) + "1" + strings.Repeat(")", 50)
	parseSource(t, ok)
}

func TestNestingLimitArrayIndex(t *testing.T) {
	deep := strings.Repeat("a[", MaxNestingDepth+1) + "0" + strings.Repeat("]", MaxNestingDepth+1)

	tests := []struct {
		name  string
		input string
	}{
		{"expression", "print(" + deep + ")"},
		{"element assignment", deep + " = 1"},
		{"far beyond the limit", "x = " + strings.Repeat("a[", 100000) + "0" + strings.Repeat("]", 100000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := parseError(t, tt.input)
			if !strings.Contains(pe.Message, "nesting exceeds maximum depth") {
				t.Errorf("unexpected message: %s", pe.Message)
			}
		})
	}

	shallow := strings.Repeat("a[", 50) + "0" + strings.Repeat("]", 50)
	parseSource(t, "print("+shallow+")")
	parseSource(t, shallow+" = 1")
}

func TestParseErrorExpected(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x = (1 + 2", "RPAREN"},
		{"arr[1 = 2", "RBRACKET"},
		{"if (1) { print(1)", ""},
		{"= 3", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			pe := parseError(t, tt.input)
			if pe.Expected != tt.expected {
				t.Errorf("Expected = %q, want %q", pe.Expected, tt.expected)
			}
		})
	}
}

func TestParseIsIdempotent(t *testing.T) {
	input := `
	function fib(n) { if (n < 2) { return n } return fib(n - 1) + fib(n - 2) }
	arr = [1, 2, 3]
	arr[0] = fib(10)
	while (arr.length > 0) { print(arr.pop()) }
	`

	first := parseSource(t, input).String()
	second := parseSource(t, input).String()
	if first != second {
		t.Errorf("parsing is not idempotent:\n%s\n---\n%s", first, second)
	}

	// The canonical rendering parses back to itself.
	third := parseSource(t, first).String()
	if first != third {
		t.Errorf("canonical form does not round-trip:\n%s\n---\n%s", first, third)
	}
}

func TestParseWithoutEndToken(t *testing.T) {
	tokens, err := lexer.Tokenize("x = 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	program, err := Parse(tokens[:len(tokens)-1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(program.Statements) != 1 {
		t.Errorf("expected 1 statement, got %d", len(program.Statements))
	}

	program, err = Parse(nil)
	if err != nil || len(program.Statements) != 0 {
		t.Errorf("expected empty program, got %v, %v", program, err)
	}
}
