// lexer_test.go
package pp

import (
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lexToks(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := LexText(src)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	return toks
}

func spellings(toks []Token) []string {
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.Spelling())
	}
	return out
}

func wantSpellings(t *testing.T, src string, want []string) []Token {
	t.Helper()
	got := lexToks(t, src)
	if diff := cmp.Diff(want, spellings(got)); diff != "" {
		t.Fatalf("source %q, token mismatch (-want +got):\n%s", src, diff)
	}
	return got
}

func Test_Lexer_PunctuatorMaximalMunch(t *testing.T) {
	wantSpellings(t, "<<=>>=...->%:%:<::>", []string{"<<=", ">>=", "...", "->", "%:%:", "<:", ":>"})
	wantSpellings(t, "a+++++b", []string{"a", "++", "++", "+", "b"})
	wantSpellings(t, "&&&=||=", []string{"&&", "&=", "||", "="})
	wantSpellings(t, "%=%><%", []string{"%=", "%>", "<%"})
	wantSpellings(t, "##>#", []string{"##", ">", "#"})
}

func Test_Lexer_PreprocessingNumbers(t *testing.T) {
	// pp-numbers are deliberately looser than C number constants
	wantSpellings(t, "0xE+1", []string{"0xE+1"})
	wantSpellings(t, ".5e-3", []string{".5e-3"})
	wantSpellings(t, "3..f", []string{"3..f"})
	wantSpellings(t, "1+2", []string{"1", "+", "2"})
	wantSpellings(t, "1e5-x", []string{"1e5", "-", "x"})

	got := lexToks(t, "0x1f 42ull")
	for _, tok := range got {
		if tok.Kind != KindNumber {
			t.Fatalf("%q lexed as kind %v, want number", tok.Spelling(), tok.Kind)
		}
	}
}

func Test_Lexer_HeaderNameContext(t *testing.T) {
	got := wantSpellings(t, "#include <stdio.h>", []string{"#", "include", "<stdio.h>"})
	if got[2].Kind != KindHeaderName || got[2].Header != SystemPath || got[2].Text != "stdio.h" {
		t.Fatalf("want system header name stdio.h, got %+v", got[2])
	}

	got = wantSpellings(t, `#include "local.h"`, []string{"#", "include", `"local.h"`})
	if got[2].Kind != KindHeaderName || got[2].Header != UserPath {
		t.Fatalf("want user header name, got %+v", got[2])
	}

	// outside the #include opener, < and > are ordinary punctuators
	got = wantSpellings(t, "x < y > z", []string{"x", "<", "y", ">", "z"})
	if !got[1].IsPunct(LessThan) || !got[3].IsPunct(GreaterThan) {
		t.Fatalf("comparison operators mislexed: %+v", got)
	}

	// a second line resets the context
	got = wantSpellings(t, "#include <a.h>\nb <c.h>", []string{"#", "include", "<a.h>", "\n", "b", "<", "c", ".", "h", ">"})
	if got[2].Kind != KindHeaderName {
		t.Fatalf("first line should carry a header name: %+v", got[2])
	}
}

func Test_Lexer_Literals(t *testing.T) {
	got := wantSpellings(t, `L"wide" u8'c' "esc\"q" 'x'`, []string{`L"wide"`, "u8'c'", `"esc\"q"`, "'x'"})
	if got[0].Kind != KindStringLit {
		t.Fatalf("L-prefixed literal lexed as %v", got[0].Kind)
	}
	if got[1].Kind != KindCharConst {
		t.Fatalf("u8-prefixed constant lexed as %v", got[1].Kind)
	}
	// a prefix not followed by a quote is a plain identifier
	got = wantSpellings(t, "u8 x", []string{"u8", "x"})
	if got[0].Kind != KindIdentifier {
		t.Fatalf("bare u8 lexed as %v", got[0].Kind)
	}
}

func Test_Lexer_CommentsAreWhitespace(t *testing.T) {
	wantSpellings(t, "a/*x*/b", []string{"a", "b"})
	wantSpellings(t, "a //x\nb", []string{"a", "\n", "b"})
	wantSpellings(t, "a/* multi\nline */b", []string{"a", "b"})

	// a comment separates a parenthesis from what precedes it
	got := lexToks(t, "f/*c*/(x)")
	if got[1].Sep != WhitespaceSeparation {
		t.Fatalf("parenthesis after comment should be separated: %+v", got[1])
	}
}

func Test_Lexer_ParenSeparation(t *testing.T) {
	got := lexToks(t, "f(x) g (y)")
	if got[1].Sep != NoSeparation {
		t.Fatalf("f( should not be separated: %+v", got[1])
	}
	if got[5].Sep != WhitespaceSeparation {
		t.Fatalf("g ( should be separated: %+v", got[5])
	}
}

func Test_Lexer_StrayCharacter(t *testing.T) {
	got := wantSpellings(t, "a @ b", []string{"a", "@", "b"})
	if got[1].Kind != KindOther {
		t.Fatalf("@ lexed as %v", got[1].Kind)
	}
}

func Test_Lexer_Errors(t *testing.T) {
	for _, src := range []string{`"abc`, "'x", "/* never closed", `"line break
"`} {
		_, err := LexText(src)
		var lerr *LexError
		if !errors.As(err, &lerr) {
			t.Fatalf("source %q: want *LexError, got %v", src, err)
		}
		if lerr.Line < 1 {
			t.Fatalf("source %q: bad line %d", src, lerr.Line)
		}
	}
}

func Test_Lexer_ExhaustionIsIdempotent(t *testing.T) {
	l := NewLexer("a")
	if _, err := l.Next(); err != nil {
		t.Fatalf("first token: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := l.Next(); err != io.EOF {
			t.Fatalf("call %d after exhaustion: want io.EOF, got %v", i, err)
		}
	}
}
