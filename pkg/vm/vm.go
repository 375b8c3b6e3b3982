// Package vm provides the tree-walking interpreter for Tally programs.
// It implements:
// - Statement execution with an explicit return signal
// - Expression evaluation over Number, String, Boolean and Array values
// - User-defined functions with snapshot/restore of the caller's bindings
// - Array built-ins (push, pop, join, length)
// - Call depth limiting and context cancellation
package vm

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/zurustar/tally/pkg/compiler/ast"
	"github.com/zurustar/tally/pkg/logger"
)

// DefaultMaxDepth is the call depth used when WithMaxDepth is not given.
const DefaultMaxDepth = 1000

// MaxNestingDepth bounds how many expressions and statements may be under
// evaluation at once, calls included. Long operator chains such as
// 1 + 1 + ... + 1 parse iteratively but evaluate recursively, so this is
// what keeps them from exhausting the goroutine stack.
const MaxNestingDepth = 20000

// Function is a user-defined function as stored in the function table.
type Function struct {
	Name       string
	Parameters []string
	Body       *ast.Block
}

// Interpreter executes programs against its own environment and function
// table. Both persist across calls to Interpret, which lets a REPL feed one
// program at a time. An Interpreter is not safe for concurrent use.
type Interpreter struct {
	env       *Environment
	functions map[string]*Function

	out      io.Writer
	log      *slog.Logger
	maxDepth int

	depth   int // active function calls
	nesting int // active eval and execStatement frames
	ctx     context.Context
}

// Option is a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithOutput sets the writer print sends its output to. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) {
		in.out = w
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(in *Interpreter) {
		in.log = log
	}
}

// WithMaxDepth sets the maximum function call depth. Values below 1 keep
// the default.
func WithMaxDepth(depth int) Option {
	return func(in *Interpreter) {
		if depth > 0 {
			in.maxDepth = depth
		}
	}
}

// New creates an Interpreter with an empty environment.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		env:       NewEnvironment(),
		functions: make(map[string]*Function),
		out:       os.Stdout,
		log:       logger.GetLogger(),
		maxDepth:  DefaultMaxDepth,
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Environment returns the interpreter's variable store.
func (in *Interpreter) Environment() *Environment {
	return in.env
}

// Function returns the user-defined function registered under name.
func (in *Interpreter) Function(name string) (*Function, bool) {
	fn, ok := in.functions[name]
	return fn, ok
}

// MaxDepth returns the configured call depth limit.
func (in *Interpreter) MaxDepth() int {
	return in.maxDepth
}

// Interpret runs program and returns the value of its last statement.
// The first runtime error aborts the run.
func (in *Interpreter) Interpret(program *ast.Program) (Value, error) {
	return in.InterpretContext(context.Background(), program)
}

// InterpretContext is Interpret with cancellation. ctx is checked before
// every loop iteration and function call.
func (in *Interpreter) InterpretContext(ctx context.Context, program *ast.Program) (Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	in.ctx = ctx
	in.depth = 0
	in.nesting = 0
	defer func() { in.ctx = context.Background() }()

	if program == nil {
		return None, nil
	}

	in.log.Debug("Interpreting program", "statements", len(program.Statements))

	result := None
	for _, stmt := range program.Statements {
		c, err := in.execStatement(stmt)
		if err != nil {
			return nil, err
		}
		// A top-level return yields its value without stopping the program.
		result = c.value
	}
	return result, nil
}
