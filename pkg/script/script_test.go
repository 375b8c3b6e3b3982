package script

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func mustEncode(t *testing.T, tr transform.Transformer, s string) []byte {
	t.Helper()
	out, _, err := transform.Bytes(tr, []byte(s))
	if err != nil {
		t.Fatalf("encode %q: %v", s, err)
	}
	return out
}

func TestDecode(t *testing.T) {
	const text = `print("日本語")`

	tests := []struct {
		name     string
		data     []byte
		encoding string
		want     string
		used     string
	}{
		{"plain utf-8", []byte(text), "", text, "utf-8"},
		{"utf-8 bom stripped", append([]byte{0xEF, 0xBB, 0xBF}, text...), "auto", text, "utf-8"},
		{"utf-16le bom", mustEncode(t, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder(), text), "", text, "utf-16le"},
		{"utf-16be bom", mustEncode(t, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder(), text), "", text, "utf-16be"},
		{"shift_jis fallback", mustEncode(t, japanese.ShiftJIS.NewEncoder(), text), "", text, "shift_jis"},
		{"shift_jis by name", mustEncode(t, japanese.ShiftJIS.NewEncoder(), text), "Shift_JIS", text, "shift_jis"},
		{"sjis alias", mustEncode(t, japanese.ShiftJIS.NewEncoder(), text), "sjis", text, "sjis"},
		{"euc-jp by name", mustEncode(t, japanese.EUCJP.NewEncoder(), text), "euc-jp", text, "euc-jp"},
		{"windows-1252 by name", mustEncode(t, charmap.Windows1252.NewEncoder(), `print("café")`), "windows-1252", `print("café")`, "windows-1252"},
		{"bom overrides name", append([]byte{0xEF, 0xBB, 0xBF}, text...), "shift_jis", text, "shift_jis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, used, err := Decode(tt.data, tt.encoding)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %q, want %q", got, tt.want)
			}
			if used != tt.used {
				t.Errorf("encoding = %q, want %q", used, tt.used)
			}
		})
	}

	t.Run("unknown encoding", func(t *testing.T) {
		if _, _, err := Decode([]byte("x"), "klingon"); err == nil {
			t.Error("expected error for unknown encoding")
		}
	})
}

func TestLoaderLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"Hello.TLY":    {Data: []byte(`print("hi")`)},
		"lib/util.tly": {Data: []byte("x = 1")},
		"notes.txt":    {Data: []byte("not a script")},
		"legacy.tly":   {Data: mustEncode(t, japanese.ShiftJIS.NewEncoder(), `print("日本")`)},
	}
	loader := NewLoaderFS(fsys, "")

	t.Run("exact name", func(t *testing.T) {
		s, err := loader.Load("lib/util.tly")
		if err != nil {
			t.Fatal(err)
		}
		if s.FileName != "util.tly" || s.Path != "lib/util.tly" || s.Content != "x = 1" || s.Size != 5 {
			t.Errorf("got %+v", s)
		}
	})

	t.Run("case-insensitive name", func(t *testing.T) {
		s, err := loader.Load("hello.tly")
		if err != nil {
			t.Fatal(err)
		}
		if s.FileName != "Hello.TLY" || s.Path != "Hello.TLY" {
			t.Errorf("FileName = %q, Path = %q", s.FileName, s.Path)
		}
	})

	t.Run("legacy encoding detected", func(t *testing.T) {
		s, err := loader.Load("legacy.tly")
		if err != nil {
			t.Fatal(err)
		}
		if s.Content != `print("日本")` || s.Encoding != "shift_jis" {
			t.Errorf("got %q (%s)", s.Content, s.Encoding)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load("nope.tly")
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("err = %v, want not-exist", err)
		}
	})
}

func TestLoaderLoadAll(t *testing.T) {
	fsys := fstest.MapFS{
		"b.tly":     {Data: []byte("b = 2")},
		"a.TLY":     {Data: []byte("a = 1")},
		"other.txt": {Data: []byte("skip")},
	}

	scripts, err := NewLoaderFS(fsys, "").LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(scripts) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(scripts))
	}
	if scripts[0].FileName != "a.TLY" || scripts[1].FileName != "b.tly" {
		t.Errorf("order = %s, %s", scripts[0].FileName, scripts[1].FileName)
	}

	_, err = NewLoaderFS(fstest.MapFS{"x.txt": {}}, "").LoadAll()
	if !errors.Is(err, ErrNoScripts) {
		t.Errorf("err = %v, want ErrNoScripts", err)
	}
}

func TestLoaderFindMain(t *testing.T) {
	tests := []struct {
		name    string
		fsys    fstest.MapFS
		want    string
		wantErr bool
	}{
		{"single script", fstest.MapFS{"fib.tly": {}}, "fib.tly", false},
		{"main among many", fstest.MapFS{"Main.tly": {}, "util.tly": {}}, "Main.tly", false},
		{"nested main does not count", fstest.MapFS{"sub/main.tly": {}, "a.tly": {}}, "", true},
		{"ambiguous", fstest.MapFS{"a.tly": {}, "b.tly": {}}, "", true},
		{"none", fstest.MapFS{"readme.md": {}}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLoaderFS(tt.fsys, "").FindMain()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FindMain() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoaderFindMainListsCandidates(t *testing.T) {
	fsys := fstest.MapFS{"b.tly": {}, "a.tly": {}, "lib/c.tly": {}}
	_, err := NewLoaderFS(fsys, "").FindMain()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "a.tly, b.tly, lib/c.tly") {
		t.Errorf("error %q should list the candidates", err.Error())
	}
}

func TestNewLoaderRealFS(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.tly"), []byte("print(1)"), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(dir, EncodingAuto)
	name, err := loader.FindMain()
	if err != nil {
		t.Fatal(err)
	}
	s, err := loader.Load(name)
	if err != nil {
		t.Fatal(err)
	}
	if s.Content != "print(1)" {
		t.Errorf("Content = %q", s.Content)
	}
}
