// Package repl implements the interactive shell. One Interpreter lives for
// the whole session, so variables, arrays and functions defined by earlier
// inputs stay visible to later ones.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/zurustar/tally/pkg/compiler"
	"github.com/zurustar/tally/pkg/compiler/ast"
	"github.com/zurustar/tally/pkg/logger"
	"github.com/zurustar/tally/pkg/vm"
)

const (
	// DefaultHistoryFile is created in the user's home directory.
	DefaultHistoryFile = ".tally_history"

	PromptMain = "tally> "
	PromptCont = "...> "

	banner = "tally interactive shell. Type :quit to exit, :env to list variables."
)

// lineReader is the part of *liner.State the read loop needs. Prompt
// returns io.EOF once input is exhausted.
type lineReader interface {
	Prompt(prompt string) (string, error)
}

// REPL holds the session state.
type REPL struct {
	interp      *vm.Interpreter
	out         io.Writer
	errOut      io.Writer
	log         *slog.Logger
	historyPath string
	vmOpts      []vm.Option
}

// Option is a functional option for configuring the REPL.
type Option func(*REPL)

// WithOutput sets where print output and echoed values go.
func WithOutput(w io.Writer) Option {
	return func(r *REPL) {
		r.out = w
	}
}

// WithErrorOutput sets where errors are reported. Defaults to os.Stderr.
func WithErrorOutput(w io.Writer) Option {
	return func(r *REPL) {
		r.errOut = w
	}
}

// WithHistoryFile overrides ~/.tally_history.
func WithHistoryFile(path string) Option {
	return func(r *REPL) {
		r.historyPath = path
	}
}

// WithInterpreterOptions passes options through to vm.New.
func WithInterpreterOptions(opts ...vm.Option) Option {
	return func(r *REPL) {
		r.vmOpts = append(r.vmOpts, opts...)
	}
}

// New creates a REPL.
func New(opts ...Option) *REPL {
	r := &REPL{
		out:    os.Stdout,
		errOut: os.Stderr,
		log:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.historyPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			r.historyPath = filepath.Join(home, DefaultHistoryFile)
		}
	}
	vmOpts := append([]vm.Option{vm.WithOutput(r.out), vm.WithLogger(r.log)}, r.vmOpts...)
	r.interp = vm.New(vmOpts...)
	return r
}

// Interpreter returns the session interpreter.
func (r *REPL) Interpreter() *vm.Interpreter {
	return r.interp
}

// Run drives the shell on the terminal using liner.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, banner)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if r.historyPath != "" {
		if f, err := os.Open(r.historyPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			f, err := os.Create(r.historyPath)
			if err != nil {
				r.log.Warn("Failed to save history", "path", r.historyPath, "error", err)
				return
			}
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}()
	}

	return r.loop(ctx, ln, func(code string) {
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	})
}

// RunReader drives the shell from a plain reader without prompts or
// history. Used for piped input and tests.
func (r *REPL) RunReader(ctx context.Context, rd io.Reader) error {
	sr := &scannerReader{sc: bufio.NewScanner(rd)}
	if err := r.loop(ctx, sr, nil); err != nil {
		return err
	}
	return sr.sc.Err()
}

func (r *REPL) loop(ctx context.Context, lr lineReader, remember func(string)) error {
	pr := &pushbackReader{lr: lr}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		code, ok := readByParseProbe(pr, PromptMain, PromptCont)
		if !ok {
			return nil
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		if remember != nil {
			remember(code)
		}
		if quit := r.Eval(ctx, code); quit {
			return nil
		}
	}
}

// Eval handles one complete input: a colon command or a program. It
// reports whether the session should end. Errors are written to the error
// output and never end the session.
func (r *REPL) Eval(ctx context.Context, code string) bool {
	trimmed := strings.TrimSpace(code)
	if strings.HasPrefix(trimmed, ":") {
		return r.command(strings.ToLower(trimmed))
	}

	program, err := compiler.Compile(code)
	if err != nil {
		fmt.Fprintln(r.errOut, err)
		return false
	}
	v, err := r.interp.InterpretContext(ctx, program)
	if err != nil {
		r.log.Debug("Input failed", "error", err)
		fmt.Fprintln(r.errOut, err)
		return false
	}
	if echoes(program) && v != vm.None {
		fmt.Fprintln(r.out, vm.Display(v))
	}
	return false
}

func (r *REPL) command(cmd string) bool {
	switch cmd {
	case ":quit", ":q", ":exit":
		return true
	case ":env":
		env := r.interp.Environment()
		for _, name := range env.Names() {
			v, _ := env.Get(name)
			fmt.Fprintf(r.out, "%s = %s\n", name, vm.Display(v))
		}
	default:
		fmt.Fprintf(r.errOut, "unknown command %s. Type :quit to exit.\n", cmd)
	}
	return false
}

// echoes reports whether the input ended in a bare expression, whose
// value is shown the way print would show it.
func echoes(program *ast.Program) bool {
	n := len(program.Statements)
	if n == 0 {
		return false
	}
	_, ok := program.Statements[n-1].(*ast.ExpressionStatement)
	return ok
}

// readByParseProbe reads lines until they form a complete program or a
// definite error. The second result is false at end of input.
//
// An input ending in an if without else is complete, but the else may
// still follow on its own line, so one more line is read: an else is
// appended, a blank line submits, anything else is pushed back for the
// next input.
func readByParseProbe(lr *pushbackReader, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = lr.Prompt(prompt)
		} else {
			line, err = lr.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				// hand the partial input over so its error gets reported
				return b.String(), true
			}
			return "", false
		}
		if err != nil {
			// Ctrl-C discards the pending input
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		program, perr := compiler.Compile(src)
		if perr != nil && compiler.IsIncomplete(perr) {
			continue
		}
		if perr != nil || !endsInOpenIf(program) {
			return src, true
		}

		next, err := lr.Prompt(cont)
		if errors.Is(err, io.EOF) {
			return src, true
		}
		if err != nil {
			return "", true
		}
		if !startsWithElse(next) {
			if strings.TrimSpace(next) != "" {
				lr.unread(next)
			}
			return src, true
		}
		// the else line is probed with the rest on the next pass
		lr.unread(next)
	}
}

// endsInOpenIf reports whether the last statement is an if chain whose
// final branch has no else.
func endsInOpenIf(program *ast.Program) bool {
	n := len(program.Statements)
	if n == 0 {
		return false
	}
	stmt, ok := program.Statements[n-1].(*ast.IfStatement)
	for ok {
		if stmt.ElseBlock == nil {
			return true
		}
		// else if is an else block holding one nested if
		if stmt.ElseBlock.Token.Literal != "if" || len(stmt.ElseBlock.Statements) != 1 {
			return false
		}
		stmt, ok = stmt.ElseBlock.Statements[0].(*ast.IfStatement)
	}
	return false
}

func startsWithElse(line string) bool {
	rest, found := strings.CutPrefix(strings.TrimSpace(line), "else")
	if !found {
		return false
	}
	return rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '{'
}

// pushbackReader hands a line back to the next Prompt call.
type pushbackReader struct {
	lr      lineReader
	pending *string
}

func (p *pushbackReader) Prompt(prompt string) (string, error) {
	if p.pending != nil {
		line := *p.pending
		p.pending = nil
		return line, nil
	}
	return p.lr.Prompt(prompt)
}

func (p *pushbackReader) unread(line string) {
	p.pending = &line
}

type scannerReader struct {
	sc *bufio.Scanner
}

func (s *scannerReader) Prompt(string) (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	// read errors surface from RunReader via sc.Err
	return "", io.EOF
}
