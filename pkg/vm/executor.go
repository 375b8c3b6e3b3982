package vm

import (
	"fmt"
	"io"

	"github.com/zurustar/tally/pkg/compiler/ast"
	"github.com/zurustar/tally/pkg/compiler/token"
)

// completion is the outcome of executing a statement. returning is set by
// a return statement and propagates through blocks, if and while until a
// function call or the top level absorbs it.
type completion struct {
	value     Value
	returning bool
}

func normal(v Value) completion {
	return completion{value: v}
}

// execBlock executes statements in order and yields the last value, or
// None for an empty block.
func (in *Interpreter) execBlock(block *ast.Block) (completion, error) {
	result := normal(None)
	if block == nil {
		return result, nil
	}
	for _, stmt := range block.Statements {
		c, err := in.execStatement(stmt)
		if err != nil {
			return completion{}, err
		}
		if c.returning {
			return c, nil
		}
		result = c
	}
	return result, nil
}

func (in *Interpreter) execStatement(stmt ast.Statement) (completion, error) {
	if err := in.enter(statementToken(stmt)); err != nil {
		return completion{}, err
	}
	defer in.leave()
	return in.execNode(stmt)
}

func (in *Interpreter) execNode(stmt ast.Statement) (completion, error) {
	switch s := stmt.(type) {
	case *ast.Assignment:
		v, err := in.eval(s.Value)
		if err != nil {
			return completion{}, err
		}
		in.env.Set(s.Name, v)
		return normal(v), nil

	case *ast.Print:
		v, err := in.eval(s.Value)
		if err != nil {
			return completion{}, err
		}
		if _, err := io.WriteString(in.out, Display(v)+"\n"); err != nil {
			return completion{}, fmt.Errorf("print: %w", err)
		}
		return normal(v), nil

	case *ast.ExpressionStatement:
		v, err := in.eval(s.Expression)
		if err != nil {
			return completion{}, err
		}
		return normal(v), nil

	case *ast.IfStatement:
		cond, err := in.eval(s.Condition)
		if err != nil {
			return completion{}, err
		}
		if Truthy(cond) {
			return in.execBlock(s.IfBlock)
		}
		if s.ElseBlock != nil {
			return in.execBlock(s.ElseBlock)
		}
		return normal(None), nil

	case *ast.WhileStatement:
		return in.execWhile(s)

	case *ast.ArrayElementAssignment:
		arr, err := in.lookupArray(s.Array, s.Token)
		if err != nil {
			return completion{}, err
		}
		index, err := in.evalIndex(s.Index)
		if err != nil {
			return completion{}, err
		}
		v, err := in.eval(s.Value)
		if err != nil {
			return completion{}, err
		}
		if !arr.Set(index, v) {
			return completion{}, NewIndexOutOfRangeError(s.Token, s.Array, index, arr.Len())
		}
		return normal(v), nil

	case *ast.ArrayMethodCall:
		v, err := in.callArrayMethod(s.Array, s.Method, s.Args, s.Token)
		if err != nil {
			return completion{}, err
		}
		return normal(v), nil

	case *ast.FunctionDeclaration:
		in.functions[s.Name] = &Function{
			Name:       s.Name,
			Parameters: s.Parameters,
			Body:       s.Body,
		}
		in.log.Debug("Function declared", "name", s.Name, "params", len(s.Parameters))
		return normal(None), nil

	case *ast.ReturnStatement:
		v := None
		if s.Value != nil {
			var err error
			if v, err = in.eval(s.Value); err != nil {
				return completion{}, err
			}
		}
		return completion{value: v, returning: true}, nil

	default:
		return completion{}, NewRuntimeError(ErrorTypeMismatch, fmt.Sprintf("unsupported statement %T", stmt))
	}
}

func (in *Interpreter) execWhile(s *ast.WhileStatement) (completion, error) {
	result := normal(None)
	for {
		if err := in.checkContext(); err != nil {
			return completion{}, err
		}
		cond, err := in.eval(s.Condition)
		if err != nil {
			return completion{}, err
		}
		if !Truthy(cond) {
			return result, nil
		}
		c, err := in.execBlock(s.Body)
		if err != nil {
			return completion{}, err
		}
		if c.returning {
			return c, nil
		}
		result = c
	}
}

// checkContext converts a cancelled or expired context into a CANCELLED
// RuntimeError that still unwraps to the context error.
func (in *Interpreter) checkContext() error {
	if err := in.ctx.Err(); err != nil {
		return &RuntimeError{
			Type:    ErrorCancelled,
			Message: "execution cancelled: " + err.Error(),
			Err:     err,
		}
	}
	return nil
}

// statementToken returns the token a statement starts with, for error
// positions.
func statementToken(stmt ast.Statement) token.Token {
	switch s := stmt.(type) {
	case *ast.Assignment:
		return s.Token
	case *ast.Print:
		return s.Token
	case *ast.ExpressionStatement:
		return s.Token
	case *ast.IfStatement:
		return s.Token
	case *ast.WhileStatement:
		return s.Token
	case *ast.ArrayElementAssignment:
		return s.Token
	case *ast.ArrayMethodCall:
		return s.Token
	case *ast.FunctionDeclaration:
		return s.Token
	case *ast.ReturnStatement:
		return s.Token
	default:
		return token.Token{}
	}
}
