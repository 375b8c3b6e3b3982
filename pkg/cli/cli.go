package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultLogLevel keeps the interpreter quiet unless something goes wrong.
const DefaultLogLevel = "warn"

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	ScriptPath  string        // 実行するスクリプト（ファイルまたはディレクトリ）
	Source      string        // -e で渡されたインラインソース
	REPL        bool          // 対話モード
	Timeout     time.Duration // タイムアウト時間（0は無制限）
	LogLevel    string        // ログレベル（debug, info, warn, error）
	MaxDepth    int           // 関数呼び出しの最大深さ（0はデフォルト）
	Encoding    string        // ソースのエンコーディング（"" は自動判定）
	ConfigPath  string        // 読み込んだ設定ファイル
	HistoryFile string        // REPLの履歴ファイル
	ShowHelp    bool          // ヘルプ表示フラグ
}

// boolFlags never consume the following argument in reorderArgs.
var boolFlags = map[string]bool{
	"h": true, "help": true, "repl": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
//
// Precedence for each setting is flag, then environment variable, then the
// YAML config file, then the built-in default.
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("tally", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", DefaultLogLevel, "ログレベル（短縮形）")
	fs.IntVar(&config.MaxDepth, "max-depth", 0, "関数呼び出しの最大深さ")
	fs.StringVar(&config.Encoding, "encoding", "", "ソースのエンコーディング")
	fs.StringVar(&config.ConfigPath, "config", "", "設定ファイル（YAML）")
	fs.StringVar(&config.Source, "e", "", "インラインソースを実行")
	fs.BoolVar(&config.REPL, "repl", false, "対話モード")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	flagGiven := func(names ...string) bool {
		for _, name := range names {
			if set[name] {
				return true
			}
		}
		return false
	}

	// 設定ファイル（フラグと環境変数が優先）
	file, path, err := loadConfigFile(config.ConfigPath)
	if err != nil {
		return nil, err
	}
	config.ConfigPath = path

	// ログレベル
	if !flagGiven("log-level", "l") {
		if env := os.Getenv("LOG_LEVEL"); env != "" {
			config.LogLevel = env
		} else if file.LogLevel != "" {
			config.LogLevel = file.LogLevel
		}
	}
	config.LogLevel = strings.ToLower(config.LogLevel)

	// タイムアウト
	if !flagGiven("timeout", "t") {
		if env := os.Getenv("TIMEOUT"); env != "" {
			t, err := strconv.Atoi(env)
			if err != nil {
				return nil, fmt.Errorf("invalid TIMEOUT %q: %w", env, err)
			}
			timeoutSec = t
		} else if file.Timeout != 0 {
			timeoutSec = file.Timeout
		}
	}

	// 最大深さ
	if !flagGiven("max-depth") {
		if env := os.Getenv("TALLY_MAX_DEPTH"); env != "" {
			d, err := strconv.Atoi(env)
			if err != nil {
				return nil, fmt.Errorf("invalid TALLY_MAX_DEPTH %q: %w", env, err)
			}
			config.MaxDepth = d
		} else if file.MaxDepth != 0 {
			config.MaxDepth = file.MaxDepth
		}
	}

	if !flagGiven("encoding") && file.Encoding != "" {
		config.Encoding = file.Encoding
	}
	config.HistoryFile = file.HistoryFile

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	if config.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth must be non-negative, got %d", config.MaxDepth)
	}

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// 位置引数（スクリプトのパス）
	if fs.NArg() > 0 {
		config.ScriptPath = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("expected at most one script, got %d", fs.NArg())
	}

	if config.Source != "" && config.ScriptPath != "" {
		return nil, errors.New("-e and a script path cannot be combined")
	}
	if config.REPL && (config.Source != "" || config.ScriptPath != "") {
		return nil, errors.New("-repl cannot be combined with -e or a script path")
	}
	if config.Source == "" && config.ScriptPath == "" {
		config.REPL = true
	}

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			name := strings.TrimLeft(arg, "-")
			if strings.Contains(name, "=") || boolFlags[name] {
				continue
			}
			// 次の引数が値である可能性をチェック（-t 5 のような場合）
			if i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}

	if len(positional) == 0 {
		return flags
	}
	// "--" keeps positional arguments that start with "-" out of flag parsing
	return append(append(flags, "--"), positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `tally - a small scripting language

Usage:
  tally [options] [script]
  tally [options] -e '<source>'
  tally [options] -repl

Arguments:
  script        .tly ファイル、またはディレクトリ（.tly が一つならそれ、複数なら main.tly）
                省略し -e も無い場合は対話モード

Options:
  -t, -timeout <seconds>      指定秒数後に実行を中断（デフォルト: 無制限）
  -l, -log-level <level>      ログレベル: debug, info, warn, error（デフォルト: warn）
  -max-depth <n>              関数呼び出しの最大深さ（デフォルト: 1000）
  -encoding <name>            ソースのエンコーディング（デフォルト: 自動判定）
  -config <path>              設定ファイル（デフォルト: ./tally.yaml があれば使用）
  -e <source>                 インラインソースを実行
  -repl                       対話モード
  -h, -help                   このヘルプを表示

Environment Variables:
  LOG_LEVEL=<level>           ログレベル
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  TALLY_MAX_DEPTH=<n>         関数呼び出しの最大深さ

Examples:
  tally fib.tly
  tally -e 'print(10 * (3 ^ 4))'
  tally -encoding shift_jis legacy.tly
  tally -t 5 loop.tly
`)
}
