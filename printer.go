// printer.go: rendering token sequences back to text.
//
// The printer is deliberately minimal about whitespace: tokens are glued
// together, with a single space inserted exactly where two adjacent
// spellings would otherwise re-lex as something different. `x + y` prints
// as "x+y" (lexes identically) while `x + ++y` keeps the middle space
// ("x+ ++y"), and `int x` keeps its space. Newline tokens reproduce the
// input's line structure.
package pp

import "strings"

// needsSpace reports whether a space must separate the spellings of a and b
// to keep them distinct tokens. Decided by re-lexing the concatenation: if
// the first token of a.Spelling()+b.Spelling() is not exactly a, the two
// would merge or shift.
func needsSpace(a, b Token) bool {
	if a.Kind == KindNewline || b.Kind == KindNewline {
		return false
	}
	as := a.Spelling()
	toks, err := LexText(as + b.Spelling())
	if err != nil {
		return true
	}
	if len(toks) < 2 {
		return true
	}
	return toks[0].Spelling() != as
}

// FormatDefinition renders a macro as the #define line that would produce
// it.
func FormatDefinition(name string, m Macro) string {
	var b strings.Builder
	b.WriteString("#define ")
	b.WriteString(name)
	if fm, ok := m.(FunctionMacro); ok {
		b.WriteByte('(')
		for i, p := range fm.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p)
		}
		if fm.Variadic {
			if len(fm.Params) > 0 {
				b.WriteString(", ")
			}
			b.WriteString("...")
		}
		b.WriteByte(')')
		if len(fm.Body) > 0 {
			b.WriteByte(' ')
			b.WriteString(Print(fm.Body))
		}
		return b.String()
	}
	if om, ok := m.(ObjectMacro); ok && len(om.Body) > 0 {
		b.WriteByte(' ')
		b.WriteString(Print(om.Body))
	}
	return b.String()
}

// Print renders tokens as source text.
func Print(tokens []Token) string {
	var b strings.Builder
	var prev *Token
	for i := range tokens {
		t := tokens[i]
		if t.Kind == KindNewline {
			b.WriteByte('\n')
			prev = nil
			continue
		}
		if prev != nil && needsSpace(*prev, t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.Spelling())
		tc := t
		prev = &tc
	}
	return b.String()
}
