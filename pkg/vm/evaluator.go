package vm

import (
	"fmt"
	"math"

	"github.com/zurustar/tally/pkg/compiler/ast"
	"github.com/zurustar/tally/pkg/compiler/token"
)

func (in *Interpreter) eval(expr ast.Expression) (Value, error) {
	if err := in.enter(tokenOf(expr)); err != nil {
		return nil, err
	}
	defer in.leave()
	return in.evalNode(expr)
}

// enter counts one more frame of nested evaluation and fails with
// STACK_OVERFLOW past MaxNestingDepth.
func (in *Interpreter) enter(tok token.Token) error {
	if in.nesting >= MaxNestingDepth {
		return errorAt(ErrorStackOverflow, tok, "stack overflow: nesting exceeds maximum depth %d", MaxNestingDepth)
	}
	in.nesting++
	return nil
}

func (in *Interpreter) leave() {
	in.nesting--
}

func (in *Interpreter) evalNode(expr ast.Expression) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return Number(e.Value), nil

	case *ast.StringLiteral:
		return String(e.Value), nil

	case *ast.BooleanLiteral:
		return Boolean(e.Value), nil

	case *ast.Variable:
		v, ok := in.env.Get(e.Name)
		if !ok {
			return nil, NewUndefinedVariableError(e.Token, e.Name)
		}
		return v, nil

	case *ast.BinaryExpression:
		left, err := in.eval(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := in.eval(e.Right)
		if err != nil {
			return nil, err
		}
		return binaryOp(e.Token, e.Operator, left, right)

	case *ast.ComparisonExpression:
		left, err := in.eval(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := in.eval(e.Right)
		if err != nil {
			return nil, err
		}
		return compareOp(e.Token, e.Operator, left, right)

	case *ast.ArrayLiteral:
		elements, err := in.evalAll(e.Elements)
		if err != nil {
			return nil, err
		}
		return NewArray(elements...), nil

	case *ast.ArrayElementAccess:
		arr, err := in.lookupArray(e.Array, e.Token)
		if err != nil {
			return nil, err
		}
		index, err := in.evalIndex(e.Index)
		if err != nil {
			return nil, err
		}
		v, ok := arr.Get(index)
		if !ok {
			return nil, NewIndexOutOfRangeError(e.Token, e.Array, index, arr.Len())
		}
		return v, nil

	case *ast.ArrayMethodExpression:
		return in.callArrayMethod(e.Array, e.Method, e.Args, e.Token)

	case *ast.ArrayProperty:
		arr, err := in.lookupArray(e.Array, e.Token)
		if err != nil {
			return nil, err
		}
		if e.Property != "length" {
			return nil, errorAt(ErrorUnknownProperty, e.Token, "unknown array property: %s", e.Property)
		}
		return Number(arr.Len()), nil

	case *ast.FunctionCall:
		return in.callFunction(e)

	default:
		return nil, NewRuntimeError(ErrorTypeMismatch, fmt.Sprintf("unsupported expression %T", expr))
	}
}

func (in *Interpreter) evalAll(exprs []ast.Expression) ([]Value, error) {
	values := make([]Value, 0, len(exprs))
	for _, expr := range exprs {
		v, err := in.eval(expr)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// evalIndex evaluates an index expression, which must be an integral
// Number. Range checks are left to the caller.
func (in *Interpreter) evalIndex(expr ast.Expression) (int, error) {
	v, err := in.eval(expr)
	if err != nil {
		return 0, err
	}
	n, ok := v.(Number)
	if !ok {
		return 0, errorAt(ErrorTypeMismatch, tokenOf(expr), "array index must be a number, got %s", TypeName(v))
	}
	f := float64(n)
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, errorAt(ErrorTypeMismatch, tokenOf(expr), "array index must be an integer, got %s", Display(v))
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		// Far outside any array; keep the conversion well defined.
		if f > 0 {
			return math.MaxInt32, nil
		}
		return math.MinInt32, nil
	}
	return int(f), nil
}

// lookupArray resolves name to an Array binding.
func (in *Interpreter) lookupArray(name string, tok token.Token) (*Array, error) {
	v, ok := in.env.Get(name)
	if !ok {
		return nil, NewUndefinedVariableError(tok, name)
	}
	arr, ok := v.(*Array)
	if !ok {
		return nil, errorAt(ErrorTypeMismatch, tok, "%s is not an array, got %s", name, TypeName(v))
	}
	return arr, nil
}

func binaryOp(tok token.Token, op string, left, right Value) (Value, error) {
	if op == "+" {
		_, ls := left.(String)
		_, rs := right.(String)
		if ls || rs {
			return String(Display(left) + Display(right)), nil
		}
	}

	l, lok := left.(Number)
	r, rok := right.(Number)
	if !lok || !rok {
		return nil, errorAt(ErrorTypeMismatch, tok, "unsupported operand types for %s: %s and %s", op, TypeName(left), TypeName(right))
	}

	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return nil, NewDivisionByZeroError(tok)
		}
		return l / r, nil
	case "^":
		return Number(math.Pow(float64(l), float64(r))), nil
	default:
		return nil, errorAt(ErrorUnknownOperator, tok, "unknown operator: %s", op)
	}
}

func compareOp(tok token.Token, op string, left, right Value) (Value, error) {
	switch op {
	case "==":
		return Boolean(Equal(left, right)), nil
	case "!=":
		return Boolean(!Equal(left, right)), nil
	case "<", ">", "<=", ">=":
	default:
		return nil, errorAt(ErrorUnknownOperator, tok, "unknown operator: %s", op)
	}

	var cmp int
	switch l := left.(type) {
	case Number:
		r, ok := right.(Number)
		if !ok {
			return nil, orderingError(tok, op, left, right)
		}
		if math.IsNaN(float64(l)) || math.IsNaN(float64(r)) {
			return Boolean(false), nil
		}
		cmp = compareOrdered(l, r)
	case String:
		r, ok := right.(String)
		if !ok {
			return nil, orderingError(tok, op, left, right)
		}
		cmp = compareOrdered(l, r)
	default:
		return nil, orderingError(tok, op, left, right)
	}

	switch op {
	case "<":
		return Boolean(cmp < 0), nil
	case ">":
		return Boolean(cmp > 0), nil
	case "<=":
		return Boolean(cmp <= 0), nil
	default:
		return Boolean(cmp >= 0), nil
	}
}

func compareOrdered[T Number | String](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func orderingError(tok token.Token, op string, left, right Value) error {
	return errorAt(ErrorTypeMismatch, tok, "cannot compare %s %s %s", TypeName(left), op, TypeName(right))
}

// tokenOf returns the token an expression node was built from, for error
// positions.
func tokenOf(expr ast.Expression) token.Token {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return e.Token
	case *ast.StringLiteral:
		return e.Token
	case *ast.BooleanLiteral:
		return e.Token
	case *ast.Variable:
		return e.Token
	case *ast.BinaryExpression:
		return e.Token
	case *ast.ComparisonExpression:
		return e.Token
	case *ast.ArrayLiteral:
		return e.Token
	case *ast.ArrayElementAccess:
		return e.Token
	case *ast.ArrayMethodExpression:
		return e.Token
	case *ast.ArrayProperty:
		return e.Token
	case *ast.FunctionCall:
		return e.Token
	default:
		return token.Token{}
	}
}
