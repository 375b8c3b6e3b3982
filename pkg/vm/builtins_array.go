package vm

import (
	"github.com/zurustar/tally/pkg/compiler/ast"
	"github.com/zurustar/tally/pkg/compiler/token"
)

// arrayMethod is the signature of push, pop and join. args are already
// evaluated in the caller's environment.
type arrayMethod func(in *Interpreter, arr *Array, args []Value) Value

var arrayMethods = map[string]arrayMethod{
	// push appends every argument and yields the new length.
	"push": func(in *Interpreter, arr *Array, args []Value) Value {
		n := arr.Push(args...)
		in.log.Debug("push called", "added", len(args), "length", n)
		return Number(n)
	},

	// pop removes the last element; an empty array yields None.
	"pop": func(in *Interpreter, arr *Array, args []Value) Value {
		v := arr.Pop()
		in.log.Debug("pop called", "length", arr.Len())
		return v
	},

	// join uses the display form of its first argument as the separator,
	// "," when no argument is given.
	"join": func(in *Interpreter, arr *Array, args []Value) Value {
		sep := ","
		if len(args) > 0 {
			sep = Display(args[0])
		}
		return String(arr.Join(sep))
	},
}

// callArrayMethod backs both the statement form arr.push(1) and the
// expression form x = arr.pop().
func (in *Interpreter) callArrayMethod(name, method string, argExprs []ast.Expression, tok token.Token) (Value, error) {
	arr, err := in.lookupArray(name, tok)
	if err != nil {
		return nil, err
	}
	fn, ok := arrayMethods[method]
	if !ok {
		return nil, errorAt(ErrorUnknownMethod, tok, "unknown array method: %s", method)
	}
	args, err := in.evalAll(argExprs)
	if err != nil {
		return nil, err
	}
	return fn(in, arr, args), nil
}
