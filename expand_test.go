// expand_test.go
package pp

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lines(a ...string) string {
	return strings.Join(a, "\n") + "\n"
}

func expand(t *testing.T, src string) string {
	t.Helper()
	out, err := Preprocess(src, nil)
	if err != nil {
		t.Fatalf("preprocess error: %v\nsource:\n%s", err, src)
	}
	return out
}

func expandErr(t *testing.T, src string) error {
	t.Helper()
	_, err := Preprocess(src, nil)
	if err == nil {
		t.Fatalf("expected an error\nsource:\n%s", src)
	}
	return err
}

type expandTest struct {
	name   string
	input  string
	output string
}

var expandTests = []expandTest{
	{
		"pass through",
		lines("A B 1234"),
		lines("A B 1234"),
	},
	{
		"object substitution",
		lines("#define FOO 1+2", "FOO"),
		lines("1+2"),
	},
	{
		"object body rescans",
		lines("#define ONE 1", "#define TWO ONE+ONE", "TWO"),
		lines("1+1"),
	},
	{
		"self reference stops",
		lines("#define A A", "A"),
		lines("A"),
	},
	{
		"mutual recursion stops",
		lines("#define A B", "#define B A", "A"),
		lines("A"),
	},
	{
		"defined name usable again later in the stream",
		lines("#define D two", "D D"),
		lines("two two"),
	},
	{
		"function-like substitution",
		lines("#define ADD(a, b) a + b", "ADD(1, 2)"),
		lines("1+2"),
	},
	{
		"arguments expand before substitution",
		lines("#define ADD(a, b) a + b", "ADD(ADD(1, 2), 3)"),
		lines("1+2+3"),
	},
	{
		"invocation spans lines",
		lines("#define ADD(a, b) a + b", "ADD(1,", "2)"),
		lines("1+2"),
	},
	{
		"name without parenthesis is not an invocation",
		lines("#define F(x) x", "F;"),
		lines("F;"),
	},
	{
		"name at end of input is not an invocation",
		"#define F(x) x\nF",
		"F",
	},
	{
		"parenthesis on the next line still invokes",
		lines("#define F(x) [x]", "F", "(7)"),
		lines("[7]"),
	},
	{
		"empty argument to a one-parameter macro",
		lines("#define F(x) [x]", "F()"),
		lines("[]"),
	},
	{
		"commas nest inside parentheses",
		lines("#define FIRST(a, b) a", "FIRST(f(1, 2), 3)"),
		lines("f(1,2)"),
	},
	{
		"stringize",
		lines("#define STR(x) #x", "STR(a+b)"),
		lines(`"a+b"`),
	},
	{
		"stringize normalizes spacing",
		lines("#define STR(x) #x", "STR(  a   +   b  )"),
		lines(`"a+b"`),
	},
	{
		"stringize keeps necessary spaces",
		lines("#define STR(x) #x", "STR(unsigned int)"),
		lines(`"unsigned int"`),
	},
	{
		"stringize does not expand its argument",
		lines("#define ONE 1", "#define STR(x) #x", "STR(ONE)"),
		lines(`"ONE"`),
	},
	{
		"stringize escapes quotes and backslashes",
		lines("#define STR(x) #x", `STR("hi")`),
		lines(`"\"hi\""`),
	},
	{
		"paste identifiers",
		lines("#define CAT(a, b) a##b", "CAT(fo, o)"),
		lines("foo"),
	},
	{
		"paste numbers",
		lines("#define CAT(a, b) a##b", "CAT(1, 2)"),
		lines("12"),
	},
	{
		"paste result expands",
		lines("#define CAT(a, b) a##b", "#define foo 42", "CAT(f, oo)"),
		lines("42"),
	},
	{
		"paste cannot rebuild the macro being expanded",
		lines("#define CAT(a, b) a##b", "CAT(CA, T)(x, y)"),
		lines("CAT(x,y)"),
	},
	{
		"paste with empty right operand dissolves",
		lines("#define CAT(a, b) a##b", "CAT(x,)"),
		lines("x"),
	},
	{
		"paste with empty left operand dissolves",
		lines("#define CAT(a, b) a##b", "CAT(, y)"),
		lines("y"),
	},
	{
		"paste associates left to right",
		lines("#define CAT3(a, b, c) a##b##c", "CAT3(x, y, z)"),
		lines("xyz"),
	},
	{
		"chained paste with every operand empty dissolves",
		lines("#define CAT3(a, b, c) [a##b##c]", "CAT3(, , )"),
		lines("[]"),
	},
	{
		"chained paste recovers after an empty prefix",
		lines("#define CAT3(a, b, c) a##b##c", "CAT3(, , z)"),
		lines("z"),
	},
	{
		"paste operands are not expanded",
		lines("#define ONE 1", "#define GLUE(a) a##2", "GLUE(ONE)"),
		lines("ONE2"),
	},
	{
		"variadic tail keeps its commas",
		lines("#define V(fmt, ...) f(fmt, __VA_ARGS__)", `V("%d", 1, 2)`),
		lines(`f("%d",1,2)`),
	},
	{
		"variadic tail may be empty",
		lines("#define V(fmt, ...) f(fmt, __VA_ARGS__)", "V(x)"),
		lines("f(x,)"),
	},
	{
		"object macro whose replacement starts with a parenthesis",
		lines("#define L (x)", "L"),
		lines("(x)"),
	},
	{
		"hash in an object macro body is literal",
		lines("#define H a # b", "H"),
		lines("a#b"),
	},
}

func Test_Expand_Properties(t *testing.T) {
	for _, tt := range expandTests {
		t.Run(tt.name, func(t *testing.T) {
			got := expand(t, tt.input)
			if diff := cmp.Diff(tt.output, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Expanding already-expanded output changes nothing, even with the same
// macro table still loaded.
func Test_Expand_Idempotence(t *testing.T) {
	for _, tt := range expandTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name == "paste cannot rebuild the macro being expanded" {
				// printed text drops hide sets, so the surviving CAT(x,y)
				// legitimately expands when fed back in
				t.Skip("output depends on hide sets")
			}
			table := NewMacros()
			first, err := Preprocess(tt.input, table)
			if err != nil {
				t.Fatalf("first pass: %v", err)
			}
			second, err := Preprocess(first, table)
			if err != nil {
				t.Fatalf("second pass: %v", err)
			}
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("second pass changed the output (-first +second):\n%s", diff)
			}
		})
	}
}

func Test_Expand_ArityMismatch(t *testing.T) {
	err := expandErr(t, lines("#define ADD(a, b) a + b", "ADD(1)"))
	var aerr *ArityMismatchError
	if !errors.As(err, &aerr) {
		t.Fatalf("want *ArityMismatchError, got %v", err)
	}
	if aerr.Macro != "ADD" || aerr.Want != 2 || aerr.Got != 1 {
		t.Fatalf("wrong arity report: %+v", aerr)
	}

	err = expandErr(t, lines("#define Z() ok", "Z(1)"))
	if !errors.As(err, &aerr) || aerr.Want != 0 || aerr.Got != 1 {
		t.Fatalf("zero-parameter mismatch: %v", err)
	}

	err = expandErr(t, lines("#define V(a, b, ...) a", "V(1)"))
	if !errors.As(err, &aerr) || !aerr.Variadic || aerr.Want != 2 || aerr.Got != 1 {
		t.Fatalf("variadic minimum mismatch: %v", err)
	}
}

func Test_Expand_UnterminatedInvocation(t *testing.T) {
	err := expandErr(t, lines("#define F(x) x", "F(1"))
	var uerr *UnterminatedInvocationError
	if !errors.As(err, &uerr) {
		t.Fatalf("want *UnterminatedInvocationError, got %v", err)
	}
	if uerr.Macro != "F" || uerr.Within != "" {
		t.Fatalf("wrong report: %+v", uerr)
	}

	// same failure from inside another macro's replacement
	err = expandErr(t, lines("#define F(x) x", "#define B F(1", "B"))
	if !errors.As(err, &uerr) || uerr.Macro != "F" || uerr.Within != "B" {
		t.Fatalf("wrong nested report: %v", err)
	}
}

func Test_Expand_InvalidPaste(t *testing.T) {
	err := expandErr(t, lines("#define P(a, b) a##b", "P(+, -)"))
	var perr *InvalidPasteError
	if !errors.As(err, &perr) {
		t.Fatalf("want *InvalidPasteError, got %v", err)
	}
	if perr.Macro != "P" || perr.Spelling != "+-" {
		t.Fatalf("wrong paste report: %+v", perr)
	}
}

func Test_Expand_TableSharedAcrossCalls(t *testing.T) {
	table := NewMacros()
	if _, err := Preprocess(lines("#define A 1"), table); err != nil {
		t.Fatalf("define: %v", err)
	}
	out, err := Preprocess(lines("A"), table)
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	if out != lines("1") {
		t.Fatalf("definition did not carry over: %q", out)
	}
}

// The expander works over any Source, not just the lexer.
func Test_Expand_OverSliceSource(t *testing.T) {
	table := NewMacros()
	table.Define("FOO", ObjectMacro{Body: []Token{Number("1"), Punct(Add), Number("2")}})
	toks, err := Drain(NewExpander(table, NewSliceSource([]Token{Ident("FOO")})))
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if got := Print(toks); got != "1+2" {
		t.Fatalf("want 1+2, got %q", got)
	}
}
