package vm

import (
	"github.com/zurustar/tally/pkg/compiler/ast"
)

// callFunction runs a user-defined function with copy-in/copy-out scoping.
// Arguments are evaluated in the caller's bindings, the environment is
// snapshotted, parameters are bound in the live environment, and the
// snapshot is restored once the body finishes, whether it returned
// explicitly, fell through or failed. Scalars therefore revert while arrays
// mutated through a shared handle keep their changes. Restoring on failure
// keeps a REPL session's bindings intact after an error inside a call.
func (in *Interpreter) callFunction(call *ast.FunctionCall) (Value, error) {
	fn, ok := in.functions[call.Name]
	if !ok {
		return nil, NewUndefinedFunctionError(call.Token, call.Name)
	}
	if err := in.checkContext(); err != nil {
		return nil, err
	}

	args, err := in.evalAll(call.Arguments)
	if err != nil {
		return nil, err
	}
	if len(args) < len(fn.Parameters) {
		return nil, errorAt(ErrorArityMismatch, call.Token,
			"%s expects %d arguments, got %d", fn.Name, len(fn.Parameters), len(args))
	}

	if in.depth >= in.maxDepth {
		return nil, NewStackOverflowError(call.Token, in.depth+1, in.maxDepth)
	}
	in.depth++
	defer func() { in.depth-- }()

	snapshot := in.env.Snapshot()
	for i, param := range fn.Parameters {
		in.env.Set(param, args[i])
	}

	in.log.Debug("Calling function", "name", fn.Name, "args", len(args), "depth", in.depth)

	c, err := in.execBlock(fn.Body)
	in.env.Restore(snapshot)
	if err != nil {
		return nil, err
	}

	in.log.Debug("Function returned", "name", fn.Name, "explicit", c.returning, "value", Display(c.value))

	return c.value, nil
}
