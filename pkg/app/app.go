package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zurustar/tally/pkg/cli"
	"github.com/zurustar/tally/pkg/compiler"
	"github.com/zurustar/tally/pkg/compiler/ast"
	"github.com/zurustar/tally/pkg/logger"
	"github.com/zurustar/tally/pkg/repl"
	"github.com/zurustar/tally/pkg/script"
	"github.com/zurustar/tally/pkg/vm"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config *cli.Config
	log    *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// interactive selects the liner-based shell; otherwise the REPL reads
	// stdin line by line.
	interactive bool
}

// Option is a functional option for configuring the Application.
type Option func(*Application)

// WithIO replaces the process's standard streams. The REPL then reads from
// in without line editing or history.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(app *Application) {
		app.stdin = in
		app.stdout = out
		app.stderr = errOut
		app.interactive = false
	}
}

// New Applicationを作成
func New(opts ...Option) *Application {
	app := &Application{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		interactive: true,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started", "config", app.config.ConfigPath)

	// 3. タイムアウト付きコンテキスト
	ctx := context.Background()
	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
		app.log.Info("Timeout set", "duration", app.config.Timeout)
	}

	// 4. モードごとの実行
	var err error
	switch {
	case app.config.Source != "":
		err = app.runSource(ctx, app.config.Source)
	case app.config.ScriptPath != "":
		err = app.runScript(ctx, app.config.ScriptPath)
	default:
		err = app.runREPL(ctx)
	}
	if err != nil {
		return err
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// interpreterOptions 設定からインタプリタのオプションを組み立てる
func (app *Application) interpreterOptions() []vm.Option {
	return []vm.Option{
		vm.WithOutput(app.stdout),
		vm.WithLogger(app.log),
		vm.WithMaxDepth(app.config.MaxDepth),
	}
}

// runSource -e で渡されたソースを実行
func (app *Application) runSource(ctx context.Context, source string) error {
	program, err := compiler.Compile(source)
	if err != nil {
		return fmt.Errorf("failed to compile source: %w", err)
	}
	return app.execute(ctx, program)
}

// runScript ファイルまたはディレクトリのスクリプトを実行
func (app *Application) runScript(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}

	if !info.IsDir() {
		app.log.Info("Script file", "path", path, "size", info.Size())
		program, err := compiler.CompileFile(path, app.config.Encoding)
		if err != nil {
			return fmt.Errorf("failed to compile script: %w", err)
		}
		return app.execute(ctx, program)
	}

	// ディレクトリの場合は全スクリプトを読み込み、エントリーポイントを探す
	loader := script.NewLoader(path, app.config.Encoding)
	scripts, err := loader.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load scripts: %w", err)
	}
	app.log.Info("Scripts loaded", "count", len(scripts))
	for _, s := range scripts {
		app.log.Info("Script file", "name", s.Path, "size", s.Size, "encoding", s.Encoding)
	}

	mainFile, err := loader.FindMain()
	if err != nil {
		app.log.Error("Failed to find entry point", "dir", path, "error", err)
		return fmt.Errorf("failed to find entry point in %s: %w", path, err)
	}
	s := selectScript(scripts, mainFile)
	if s == nil {
		return fmt.Errorf("entry point %s was not loaded", mainFile)
	}
	app.log.Info("Entry point found", "file", mainFile)
	app.log.Debug("Script content preview", "name", s.FileName, "preview", truncate(s.Content, 100))

	program, err := compiler.Compile(s.Content)
	if err != nil {
		return fmt.Errorf("failed to compile script: %s: %w", filepath.Join(path, mainFile), err)
	}
	return app.execute(ctx, program)
}

// selectScript 読み込み済みスクリプトからパスで選ぶ
func selectScript(scripts []script.Script, path string) *script.Script {
	for i := range scripts {
		if scripts[i].Path == path {
			return &scripts[i]
		}
	}
	return nil
}

// execute コンパイル済みプログラムを新しいインタプリタで実行
func (app *Application) execute(ctx context.Context, program *ast.Program) error {
	app.log.Info("Program compiled successfully", "statements", len(program.Statements))

	interp := vm.New(app.interpreterOptions()...)
	result, err := interp.InterpretContext(ctx, program)
	if err != nil {
		app.log.Error("Execution failed", "error", err)
		return fmt.Errorf("runtime error: %w", err)
	}

	app.log.Info("Program finished", "result", vm.Display(result), "variables", interp.Environment().Size())
	return nil
}

// runREPL 対話モードを実行
func (app *Application) runREPL(ctx context.Context) error {
	app.log.Info("Starting interactive shell", "history", app.config.HistoryFile)

	r := repl.New(
		repl.WithOutput(app.stdout),
		repl.WithErrorOutput(app.stderr),
		repl.WithHistoryFile(app.config.HistoryFile),
		repl.WithInterpreterOptions(vm.WithMaxDepth(app.config.MaxDepth)),
	)
	if app.interactive {
		return r.Run(ctx)
	}
	return r.RunReader(ctx, app.stdin)
}

// truncate 文字列を指定した長さで切り詰める
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
