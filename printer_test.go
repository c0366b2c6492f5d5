// printer_test.go
package pp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_Print_SpacingIsMinimal(t *testing.T) {
	cases := []struct {
		name string
		toks []Token
		want string
	}{
		{
			"identifiers need a space",
			[]Token{Ident("a"), Ident("b")},
			"a b",
		},
		{
			"operators glue to operands",
			[]Token{Number("1"), Punct(Add), Number("2")},
			"1+2",
		},
		{
			"adjacent pluses would merge",
			[]Token{Punct(Add), Punct(Add)},
			"+ +",
		},
		{
			"plus before increment keeps its space",
			[]Token{Ident("x"), Punct(Add), Punct(Increment), Ident("y")},
			"x+ ++y",
		},
		{
			"number absorbs a following identifier",
			[]Token{Number("1"), Ident("e")},
			"1 e",
		},
		{
			"exponent tail would extend the number",
			[]Token{Number("1e"), Punct(Add), Number("3")},
			"1e +3",
		},
		{
			"adjacent string literals stay distinct",
			[]Token{StringLit(`"a"`), StringLit(`"b"`)},
			`"a""b"`,
		},
		{
			"newlines pass through bare",
			[]Token{Ident("a"), Newline(), Ident("b")},
			"a\nb",
		},
		{
			"hash hash would merge",
			[]Token{Punct(DirectiveMarker), Punct(DirectiveMarker)},
			"# #",
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Print(tt.toks)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_Print_RoundTripsThroughLexer(t *testing.T) {
	// printed output lexes back to the same token spellings
	inputs := []string{
		"int main ( void ) { return 1 + 2 ; }",
		"a ++ + b",
		"x <<= 2 >> 1",
		`s = "str" 'c' 3.14`,
	}
	for _, src := range inputs {
		orig := lexToks(t, src)
		printed := Print(orig)
		again := lexToks(t, printed)
		if diff := cmp.Diff(spellings(orig), spellings(again)); diff != "" {
			t.Errorf("round trip of %q via %q changed tokens (-orig +again):\n%s", src, printed, diff)
		}
	}
}

func Test_FormatDefinition(t *testing.T) {
	cases := []struct {
		name  string
		macro Macro
		want  string
	}{
		{
			"EMPTY",
			ObjectMacro{},
			"#define EMPTY",
		},
		{
			"FOO",
			ObjectMacro{Body: []Token{Number("1"), Punct(Add), Number("2")}},
			"#define FOO 1+2",
		},
		{
			"ADD",
			FunctionMacro{Params: []string{"a", "b"}, Body: []Token{Ident("a"), Punct(Add), Ident("b")}},
			"#define ADD(a, b) a+b",
		},
		{
			"NIL",
			FunctionMacro{},
			"#define NIL()",
		},
		{
			"V",
			FunctionMacro{Params: []string{"fmt"}, Variadic: true, Body: []Token{Ident("fmt")}},
			"#define V(fmt, ...) fmt",
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDefinition(tt.name, tt.macro); got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}
