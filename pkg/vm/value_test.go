package vm

import (
	"math"
	"testing"
)

func TestDisplay(t *testing.T) {
	cyclic := NewArray(Number(1))
	cyclic.Push(cyclic)

	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"integer", Number(810), "810"},
		{"fraction", Number(0.5), "0.5"},
		{"negative", Number(-3), "-3"},
		{"negative zero", Number(math.Copysign(0, -1)), "0"},
		{"large", Number(1e21), "1e+21"},
		{"tiny", Number(1e-7), "1e-07"},
		{"nan", Number(math.NaN()), "NaN"},
		{"infinity", Number(math.Inf(1)), "Infinity"},
		{"string is raw", String("a b"), "a b"},
		{"true", Boolean(true), "true"},
		{"false", Boolean(false), "false"},
		{"none", None, "none"},
		{"empty array", NewArray(), "[]"},
		{"array", NewArray(Number(1), Number(2)), "[1, 2]"},
		{"nested strings quoted", NewArray(String("a"), NewArray(String("b"))), `["a", ["b"]]`},
		{"cycle", cyclic, "[1, [...]]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Display(tt.value); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  bool
	}{
		{"false", Boolean(false), false},
		{"true", Boolean(true), true},
		{"zero", Number(0), false},
		{"nan", Number(math.NaN()), false},
		{"non-zero", Number(-1), true},
		{"empty string", String(""), false},
		{"string", String("0"), true},
		{"none", None, false},
		{"empty array", NewArray(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truthy(tt.value); got != tt.want {
				t.Errorf("Truthy(%s) = %v, want %v", Display(tt.value), got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	arr := NewArray(Number(1))

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same number", Number(1), Number(1), true},
		{"number vs string", Number(1), String("1"), false},
		{"number vs boolean", Number(1), Boolean(true), false},
		{"same string", String("x"), String("x"), true},
		{"same array handle", arr, arr, true},
		{"equal contents different arrays", arr, NewArray(Number(1)), false},
		{"none", None, None, true},
		{"none vs zero", None, Number(0), false},
		{"nan is not equal to itself", Number(math.NaN()), Number(math.NaN()), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTypeName(t *testing.T) {
	cases := map[string]Value{
		"number":  Number(1),
		"string":  String(""),
		"boolean": Boolean(false),
		"array":   NewArray(),
		"none":    None,
	}
	for want, v := range cases {
		if got := TypeName(v); got != want {
			t.Errorf("TypeName(%s) = %q, want %q", Display(v), got, want)
		}
	}
}
