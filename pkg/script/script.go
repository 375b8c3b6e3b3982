// Package script loads Tally source files and converts them to UTF-8.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Extension is the file extension of Tally scripts, matched case-insensitively.
const Extension = ".tly"

// MainScript is the entry file looked for when a directory holds several scripts.
const MainScript = "main" + Extension

// EncodingAuto selects BOM and UTF-8 detection with a Shift-JIS fallback.
const EncodingAuto = "auto"

// ErrNoScripts is returned when a directory contains no .tly files.
var ErrNoScripts = errors.New("no script files found")

// Script はスクリプトファイルを表す
type Script struct {
	FileName string // ファイル名
	Path     string // ルートからの相対パス
	Content  string // UTF-8に変換された内容
	Size     int64  // ファイルサイズ
	Encoding string // 実際に使われたエンコーディング
}

// Loader reads scripts from a file system, decoding them with a fixed
// encoding name.
type Loader struct {
	fsys     fs.FS
	root     string
	encoding string
}

// NewLoader creates a Loader rooted at dir on the real file system.
func NewLoader(dir, encoding string) *Loader {
	return &Loader{fsys: os.DirFS(dir), root: dir, encoding: encoding}
}

// NewLoaderFS creates a Loader over an arbitrary file system, such as an
// embed.FS or fstest.MapFS.
func NewLoaderFS(fsys fs.FS, encoding string) *Loader {
	return &Loader{fsys: fsys, root: ".", encoding: encoding}
}

// Load reads and decodes one script. If name does not exist exactly, a
// case-insensitive match in the same directory is used.
func (l *Loader) Load(name string) (*Script, error) {
	actual, err := l.findFile(name)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(l.fsys, actual)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	content, used, err := Decode(data, l.encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding of %s: %w", actual, err)
	}

	return &Script{
		FileName: path.Base(actual),
		Path:     actual,
		Content:  content,
		Size:     int64(len(data)),
		Encoding: used,
	}, nil
}

// LoadAll loads every .tly file under the root, in lexical order of Path.
func (l *Loader) LoadAll() ([]Script, error) {
	files, err := l.findScriptFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to find script files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoScripts, l.root)
	}

	scripts := make([]Script, 0, len(files))
	for _, file := range files {
		s, err := l.Load(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load script %s: %w", file, err)
		}
		scripts = append(scripts, *s)
	}
	return scripts, nil
}

// FindMain picks the entry script of a directory: the only .tly file if
// there is exactly one, otherwise main.tly.
func (l *Loader) FindMain() (string, error) {
	files, err := l.findScriptFiles()
	if err != nil {
		return "", fmt.Errorf("failed to find script files: %w", err)
	}
	switch len(files) {
	case 0:
		return "", fmt.Errorf("%w in %s", ErrNoScripts, l.root)
	case 1:
		return files[0], nil
	}
	for _, file := range files {
		if !strings.Contains(file, "/") && strings.EqualFold(file, MainScript) {
			return file, nil
		}
	}
	return "", fmt.Errorf("%d scripts found in %s and none is %s: %s",
		len(files), l.root, MainScript, strings.Join(files, ", "))
}

// findScriptFiles .tlyファイルを検出（case-insensitive）
func (l *Loader) findScriptFiles() ([]string, error) {
	var files []string
	err := fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(path.Ext(p), Extension) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// findFile resolves name, falling back to a case-insensitive match of the
// base name within its directory.
func (l *Loader) findFile(name string) (string, error) {
	name = path.Clean(strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/"))
	if _, err := fs.Stat(l.fsys, name); err == nil {
		return name, nil
	}

	dir, base := path.Split(name)
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(l.fsys, path.Clean(dir))
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(entry.Name(), base) {
			return path.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("file not found: %s: %w", name, fs.ErrNotExist)
}

// Decode converts data to UTF-8.
//
// With name "" or "auto", a UTF-8 or UTF-16 byte order mark decides the
// encoding; BOM-less input that is valid UTF-8 is used as is, and anything
// else is read as Shift-JIS. Any other name is looked up in the WHATWG
// encoding index ("utf-8", "shift_jis", "euc-jp", "windows-1252", ...).
//
// The second result is the name of the encoding that was applied.
func Decode(data []byte, name string) (string, string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == EncodingAuto {
		return decodeAuto(data)
	}

	enc, err := lookupEncoding(name)
	if err != nil {
		return "", "", err
	}
	// A BOM in the file wins over the requested encoding.
	content, err := decodeWith(unicode.BOMOverride(enc.NewDecoder()), data)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return content, name, nil
}

func decodeAuto(data []byte) (string, string, error) {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return string(data[3:]), "utf-8", nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		content, err := decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder(), data)
		return content, "utf-16le", err
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		content, err := decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder(), data)
		return content, "utf-16be", err
	case utf8.Valid(data):
		return string(data), "utf-8", nil
	}

	// Shift-JISからUTF-8に変換
	content, err := decodeWith(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode Shift-JIS: %w", err)
	}
	return content, "shift_jis", nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch name {
	case "sjis", "shift-jis", "cp932":
		return japanese.ShiftJIS, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

func decodeWith(t transform.Transformer, data []byte) (string, error) {
	out, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
