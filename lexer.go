// lexer.go: raw source text → preprocessing tokens.
//
// The lexer is the bottom Source of the pipeline. It scans bytes into the
// token vocabulary of token.go, one token per Next call. Points worth
// knowing:
//
//   - Newlines are tokens (the directive grammar is line-sensitive); all
//     other whitespace, and comments, only set the whitespace-before flag
//     that left parentheses carry as their Separation.
//   - Header names are context-sensitive in C: "<stdio.h>" is a header name
//     only in a #include line. The lexer tracks the two most recent tokens
//     of the current line — just enough to recognize that context.
//   - Preprocessing numbers follow the deliberately loose C pp-number
//     grammar, so "0xE+1" and "3..f" are each one token.
//
// Translation phases 1–2 (trigraphs, backslash-newline splicing) are out of
// scope; input is assumed to be already spliced.
package pp

import (
	"fmt"
	"io"
)

// LexError reports a malformed token with its 1-based line and 0-based
// column.
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LEXICAL ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Lexer scans a source string into preprocessing tokens. It implements
// Source.
type Lexer struct {
	src   string
	start int // start index of current token
	cur   int // current index
	line  int // 1-based
	col   int // 0-based column within line

	whitespaceBefore bool
	done             bool

	// the last two significant tokens of the current line, for the
	// #include header-name context
	lineTok1, lineTok2 *Token
	lineLen            int // significant tokens on the current line

	tokStartLine int
	tokStartCol  int
}

// NewLexer creates a lexer for the given source text.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) err(msg string) error {
	return &LexError{Line: l.tokStartLine, Col: l.tokStartCol, Msg: msg}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

// emit finalizes a token: it records it as line context and clears the
// whitespace flag.
func (l *Lexer) emit(tok Token) (Token, error) {
	l.start = l.cur
	l.whitespaceBefore = false
	if tok.Kind == KindNewline {
		l.lineTok1, l.lineTok2 = nil, nil
		l.lineLen = 0
	} else {
		l.lineTok1 = l.lineTok2
		t := tok
		l.lineTok2 = &t
		l.lineLen++
	}
	return tok, nil
}

// expectHeaderName reports whether the scanner sits right after the
// "# include" opener of a directive line.
func (l *Lexer) expectHeaderName() bool {
	if l.lineLen != 2 || l.lineTok1 == nil || l.lineTok2 == nil {
		return false
	}
	isHash := l.lineTok1.IsPunct(DirectiveMarker) || l.lineTok1.IsPunct(DirectiveMarkerDigraph)
	return isHash && l.lineTok2.Kind == KindIdentifier && l.lineTok2.Text == "include"
}

// skipBlanks consumes spaces, tabs, carriage returns and comments, setting
// the whitespace flag. Newlines are left for scanToken.
func (l *Lexer) skipBlanks() error {
	for !l.isAtEnd() {
		ch, _ := l.peek()
		switch ch {
		case ' ', '\t', '\r':
			l.whitespaceBefore = true
			l.advance()
		case '/':
			next, ok := l.peekN(1)
			if !ok {
				return nil
			}
			if next == '/' {
				l.whitespaceBefore = true
				for {
					b, ok := l.peek()
					if !ok || b == '\n' {
						break
					}
					l.advance()
				}
			} else if next == '*' {
				l.whitespaceBefore = true
				l.tokStartLine, l.tokStartCol = l.line, l.col
				l.advance() // '/'
				l.advance() // '*'
				closed := false
				for !l.isAtEnd() {
					b, _ := l.advance()
					if b == '*' {
						if b2, ok := l.peek(); ok && b2 == '/' {
							l.advance()
							closed = true
							break
						}
					}
				}
				if !closed {
					return l.err("comment was not terminated")
				}
			} else {
				return nil
			}
		default:
			return nil
		}
	}
	return nil
}

// scanIdentifier consumes [A-Za-z0-9_]* after the caller saw the first
// alpha character.
func (l *Lexer) scanIdentifier() string {
	for {
		b, ok := l.peek()
		if !ok || !isAlphaNum(b) {
			break
		}
		l.advance()
	}
	return l.src[l.start:l.cur]
}

// scanNumber consumes a pp-number. The first character (digit, or '.' with
// a following digit) has already been consumed.
func (l *Lexer) scanNumber() string {
	for {
		b, ok := l.peek()
		if !ok {
			break
		}
		if isAlphaNum(b) || b == '.' {
			l.advance()
			continue
		}
		// a sign is part of the number only right after an exponent char
		if b == '+' || b == '-' {
			prev := l.src[l.cur-1]
			if prev == 'e' || prev == 'E' || prev == 'p' || prev == 'P' {
				l.advance()
				continue
			}
		}
		break
	}
	return l.src[l.start:l.cur]
}

// scanQuoted consumes a string literal or character constant, delimiter
// included, skipping escape sequences without interpreting them. The
// opening delimiter has already been consumed.
func (l *Lexer) scanQuoted(del byte, what string) (string, error) {
	for {
		b, ok := l.advance()
		if !ok || b == '\n' {
			return "", l.err(what + " was not terminated")
		}
		if b == '\\' {
			if _, ok := l.advance(); !ok {
				return "", l.err("unfinished escape sequence")
			}
			continue
		}
		if b == del {
			return l.src[l.start:l.cur], nil
		}
	}
}

// scanHeaderName consumes a <...> or "..." header name. The opening
// delimiter has already been consumed.
func (l *Lexer) scanHeaderName(open byte) (Token, error) {
	close, kind := byte('"'), UserPath
	if open == '<' {
		close, kind = byte('>'), SystemPath
	}
	for {
		b, ok := l.peek()
		if !ok || b == '\n' {
			return Token{}, l.err("header name was not terminated")
		}
		l.advance()
		if b == close {
			return HeaderName(kind, l.src[l.start+1:l.cur-1]), nil
		}
	}
}

// quotePrefix reports whether an identifier lexeme is a character/string
// literal prefix and the scanner sits on its opening quote.
func (l *Lexer) quotePrefix(lexeme string) (byte, bool) {
	switch lexeme {
	case "L", "u", "U", "u8":
	default:
		return 0, false
	}
	b, ok := l.peek()
	if !ok || (b != '"' && b != '\'') {
		return 0, false
	}
	return b, true
}

// match consumes the next byte if it equals b.
func (l *Lexer) match(b byte) bool {
	if next, ok := l.peek(); ok && next == b {
		l.advance()
		return true
	}
	return false
}

func (l *Lexer) scanToken() (Token, error) {
	if err := l.skipBlanks(); err != nil {
		return Token{}, err
	}
	l.tokStartLine = l.line
	l.tokStartCol = l.col
	l.start = l.cur

	if l.isAtEnd() {
		return Token{}, io.EOF
	}

	wasSeparated := l.whitespaceBefore
	expectHeader := l.expectHeaderName()
	ch, _ := l.advance()

	if ch == '\n' {
		return l.emit(Newline())
	}

	if expectHeader && (ch == '<' || ch == '"') {
		tok, err := l.scanHeaderName(ch)
		if err != nil {
			return Token{}, err
		}
		return l.emit(tok)
	}

	switch ch {
	case '[':
		return l.emit(Punct(ArrayIndexBegin))
	case ']':
		return l.emit(Punct(ArrayIndexEnd))
	case '(':
		if wasSeparated {
			return l.emit(LParen(WhitespaceSeparation))
		}
		return l.emit(LParen(NoSeparation))
	case ')':
		return l.emit(Punct(RightParen))
	case '{':
		return l.emit(Punct(BlockBegin))
	case '}':
		return l.emit(Punct(BlockEnd))
	case '?':
		return l.emit(Punct(TernaryCondition))
	case ';':
		return l.emit(Punct(StatementEnd))
	case ',':
		return l.emit(Punct(ParameterSeparator))
	case '~':
		return l.emit(Punct(BitwiseNot))

	case '.':
		if b, ok := l.peek(); ok && isDigit(b) {
			return l.emit(Number(l.scanNumber()))
		}
		if b, ok := l.peek(); ok && b == '.' {
			if b2, ok2 := l.peekN(1); ok2 && b2 == '.' {
				l.advance()
				l.advance()
				return l.emit(Punct(VariadicParameters))
			}
		}
		return l.emit(Punct(Member))

	case '-':
		switch {
		case l.match('>'):
			return l.emit(Punct(DerefMember))
		case l.match('-'):
			return l.emit(Punct(Decrement))
		case l.match('='):
			return l.emit(Punct(SubtractAndAssign))
		}
		return l.emit(Punct(Subtract))
	case '+':
		switch {
		case l.match('+'):
			return l.emit(Punct(Increment))
		case l.match('='):
			return l.emit(Punct(AddAndAssign))
		}
		return l.emit(Punct(Add))
	case '&':
		switch {
		case l.match('&'):
			return l.emit(Punct(LogicalAnd))
		case l.match('='):
			return l.emit(Punct(BitwiseAndAndAssign))
		}
		return l.emit(Punct(AddressOf))
	case '|':
		switch {
		case l.match('|'):
			return l.emit(Punct(LogicalOr))
		case l.match('='):
			return l.emit(Punct(BitwiseOrAndAssign))
		}
		return l.emit(Punct(BitwiseOr))
	case '*':
		if l.match('=') {
			return l.emit(Punct(MultiplyAndAssign))
		}
		return l.emit(Punct(Dereference))
	case '!':
		if l.match('=') {
			return l.emit(Punct(NotEquals))
		}
		return l.emit(Punct(LogicalNot))
	case '/':
		// comments were consumed by skipBlanks
		if l.match('=') {
			return l.emit(Punct(DivideAndAssign))
		}
		return l.emit(Punct(Divide))
	case '=':
		if l.match('=') {
			return l.emit(Punct(Equals))
		}
		return l.emit(Punct(Assignment))
	case '^':
		if l.match('=') {
			return l.emit(Punct(BitwiseXorAndAssign))
		}
		return l.emit(Punct(BitwiseXor))

	case '<':
		switch {
		case l.match('<'):
			if l.match('=') {
				return l.emit(Punct(ShiftLeftAndAssign))
			}
			return l.emit(Punct(ShiftLeft))
		case l.match('='):
			return l.emit(Punct(LessThanOrEquals))
		case l.match(':'):
			return l.emit(Punct(ArrayIndexBeginDigraph))
		case l.match('%'):
			return l.emit(Punct(BlockBeginDigraph))
		}
		return l.emit(Punct(LessThan))
	case '>':
		switch {
		case l.match('>'):
			if l.match('=') {
				return l.emit(Punct(ShiftRightAndAssign))
			}
			return l.emit(Punct(ShiftRight))
		case l.match('='):
			return l.emit(Punct(GreaterThanOrEquals))
		}
		return l.emit(Punct(GreaterThan))
	case ':':
		if l.match('>') {
			return l.emit(Punct(ArrayIndexEndDigraph))
		}
		return l.emit(Punct(TernarySeparator))
	case '%':
		switch {
		case l.match('='):
			return l.emit(Punct(ModulusAndAssign))
		case l.match('>'):
			return l.emit(Punct(BlockEndDigraph))
		case l.match(':'):
			if b, ok := l.peek(); ok && b == '%' {
				if b2, ok2 := l.peekN(1); ok2 && b2 == ':' {
					l.advance()
					l.advance()
					return l.emit(Punct(ConcatDigraph))
				}
			}
			return l.emit(Punct(DirectiveMarkerDigraph))
		}
		return l.emit(Punct(Modulus))
	case '#':
		if l.match('#') {
			return l.emit(Punct(Concat))
		}
		return l.emit(Punct(DirectiveMarker))

	case '"':
		spelling, err := l.scanQuoted('"', "string literal")
		if err != nil {
			return Token{}, err
		}
		return l.emit(StringLit(spelling))
	case '\'':
		spelling, err := l.scanQuoted('\'', "character constant")
		if err != nil {
			return Token{}, err
		}
		return l.emit(CharConst(spelling))
	}

	if isDigit(ch) {
		return l.emit(Number(l.scanNumber()))
	}

	if isAlpha(ch) {
		lexeme := l.scanIdentifier()
		if del, ok := l.quotePrefix(lexeme); ok {
			l.advance() // consume the quote
			what := "string literal"
			if del == '\'' {
				what = "character constant"
			}
			spelling, err := l.scanQuoted(del, what)
			if err != nil {
				return Token{}, err
			}
			if del == '\'' {
				return l.emit(CharConst(spelling))
			}
			return l.emit(StringLit(spelling))
		}
		return l.emit(Ident(lexeme))
	}

	return l.emit(Token{Kind: KindOther, Text: string(ch)})
}

// Next implements Source. Exhaustion is idempotent.
func (l *Lexer) Next() (Token, error) {
	if l.done {
		return Token{}, io.EOF
	}
	tok, err := l.scanToken()
	if err == io.EOF {
		l.done = true
	}
	return tok, err
}

// LexText scans a detached fragment of text — no trailing newline required —
// and returns all of its tokens. The ## operator uses this to re-lex a
// pasted spelling.
func LexText(text string) ([]Token, error) {
	return Drain(NewLexer(text))
}
