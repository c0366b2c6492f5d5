// directive.go: the directive-processing stage.
//
// DirectiveProcessor is a Source stage that sits between the lexer and the
// macro expander. It owns the macro table: #define and #undef lines mutate
// it, conditional-inclusion lines (#if/#ifdef/#ifndef/#elif/#else/#endif)
// decide which token lines flow through, and everything that is not a
// directive passes downstream untouched — macro expansion itself belongs to
// the Expander stacked on top.
//
// A directive is a '#' (or '%:') as the first token of a line. Directive
// lines and skipped conditional branches contribute nothing downstream;
// only the surviving text lines flow through.
//
// #include is rejected: file inclusion and path resolution are a separate
// concern and live outside this library.
package pp

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// condContext is one frame of the nested conditional-inclusion stack.
type condContext struct {
	parentActive bool // the group containing this #if is itself included
	active       bool // the current branch is included
	taken        bool // some branch of this #if chain has been included
	sawElse      bool
	line         int
}

// DirectiveProcessor implements Source over an upstream token source,
// interpreting directive lines. Construct with NewDirectiveProcessor.
type DirectiveProcessor struct {
	macros   *Macros
	upstream Source
	conds    []condContext
	line     int // 1-based line of the token about to be read
	atStart  bool
	done     bool
}

// NewDirectiveProcessor returns a directive stage reading from upstream and
// recording definitions in table.
func NewDirectiveProcessor(table *Macros, upstream Source) *DirectiveProcessor {
	return &DirectiveProcessor{macros: table, upstream: upstream, line: 1, atStart: true}
}

func (d *DirectiveProcessor) active() bool {
	for _, c := range d.conds {
		if !c.active {
			return false
		}
	}
	return true
}

// Next implements Source.
func (d *DirectiveProcessor) Next() (Token, error) {
	if d.done {
		return Token{}, io.EOF
	}
	for {
		tok, err := d.upstream.Next()
		if err == io.EOF {
			if len(d.conds) > 0 {
				d.done = true
				return Token{}, &DirectiveError{Line: d.conds[len(d.conds)-1].line, Msg: "unterminated conditional directive", Incomplete: true}
			}
			d.done = true
			return Token{}, io.EOF
		}
		if err != nil {
			return Token{}, err
		}

		if tok.Kind == KindNewline {
			d.line++
			d.atStart = true
			if !d.active() {
				continue
			}
			return tok, nil
		}

		if d.atStart && isHash(tok) {
			d.atStart = false
			if err := d.processDirective(); err != nil {
				return Token{}, err
			}
			continue
		}
		d.atStart = false

		if !d.active() {
			if err := d.discardLine(); err != nil {
				return Token{}, err
			}
			continue
		}
		return tok, nil
	}
}

// collectLine reads the remaining tokens of the current line, leaving the
// stream just past the newline.
func (d *DirectiveProcessor) collectLine() ([]Token, error) {
	var toks []Token
	for {
		t, err := d.upstream.Next()
		if err == io.EOF {
			d.atStart = true
			return toks, nil
		}
		if err != nil {
			return nil, err
		}
		if t.Kind == KindNewline {
			d.line++
			d.atStart = true
			return toks, nil
		}
		toks = append(toks, t)
	}
}

func (d *DirectiveProcessor) discardLine() error {
	_, err := d.collectLine()
	return err
}

// processDirective handles one directive line; the leading '#' has been
// consumed.
func (d *DirectiveProcessor) processDirective() error {
	startLine := d.line
	toks, err := d.collectLine()
	if err != nil {
		return err
	}
	if len(toks) == 0 {
		return nil // null directive
	}
	if toks[0].Kind != KindIdentifier {
		if !d.active() {
			return nil
		}
		return &DirectiveError{Line: startLine, Msg: fmt.Sprintf("invalid directive %q", toks[0].Spelling())}
	}
	name, rest := toks[0].Text, toks[1:]

	// conditional directives are interpreted even inside skipped groups
	switch name {
	case "if", "ifdef", "ifndef":
		return d.processIf(startLine, name, rest)
	case "elif":
		return d.processElif(startLine, rest)
	case "else":
		return d.processElse(startLine, rest)
	case "endif":
		return d.processEndif(startLine)
	}

	if !d.active() {
		return nil
	}

	switch name {
	case "define":
		return d.processDefine(startLine, rest)
	case "undef":
		ident, err := d.wantIdent(startLine, "undef", rest)
		if err != nil {
			return err
		}
		d.macros.Undef(ident)
		return nil
	case "error":
		msg := strings.TrimSpace(Print(rest))
		return &DirectiveError{Line: startLine, Msg: "#error: " + msg}
	case "line", "pragma":
		return nil
	case "include":
		return &DirectiveError{Line: startLine, Msg: "#include is not handled here; resolve inclusions before this stage"}
	default:
		return &DirectiveError{Line: startLine, Msg: fmt.Sprintf("unknown directive #%s", name)}
	}
}

func (d *DirectiveProcessor) wantIdent(line int, directive string, toks []Token) (string, error) {
	if len(toks) == 0 || toks[0].Kind != KindIdentifier {
		return "", &DirectiveError{Line: line, Msg: fmt.Sprintf("#%s expects a macro name", directive)}
	}
	return toks[0].Text, nil
}

/* ===========================
   #define
   =========================== */

func (d *DirectiveProcessor) processDefine(line int, toks []Token) error {
	name, err := d.wantIdent(line, "define", toks)
	if err != nil {
		return err
	}
	rest := toks[1:]

	// a "(" touching the macro name opens a parameter list; a separated "("
	// starts an object macro's replacement
	if len(rest) > 0 && rest[0].IsPunct(LeftParen) && rest[0].Sep == NoSeparation {
		params, variadic, body, err := parseParams(line, name, rest[1:])
		if err != nil {
			return err
		}
		if err := checkBody(line, name, body); err != nil {
			return err
		}
		d.macros.Define(name, FunctionMacro{Params: params, Variadic: variadic, Body: body})
		return nil
	}
	if err := checkBody(line, name, rest); err != nil {
		return err
	}
	d.macros.Define(name, ObjectMacro{Body: rest})
	return nil
}

// parseParams reads "a, b, ...)" and returns the parameter names, the
// variadic marker, and the replacement list after the close.
func parseParams(line int, name string, toks []Token) (params []string, variadic bool, body []Token, err error) {
	seen := map[string]bool{}
	i := 0
	for {
		if i >= len(toks) {
			return nil, false, nil, &DirectiveError{Line: line, Msg: fmt.Sprintf("unterminated parameter list in #define %s", name)}
		}
		t := toks[i]
		if t.IsPunct(RightParen) && len(params) == 0 && !variadic {
			return nil, false, toks[i+1:], nil
		}
		switch {
		case t.Kind == KindIdentifier && !variadic:
			if seen[t.Text] {
				return nil, false, nil, &DirectiveError{Line: line, Msg: fmt.Sprintf("duplicate macro parameter %q", t.Text)}
			}
			seen[t.Text] = true
			params = append(params, t.Text)
		case t.IsPunct(VariadicParameters) && !variadic:
			variadic = true
		default:
			return nil, false, nil, &DirectiveError{Line: line, Msg: fmt.Sprintf("unexpected %q in parameter list of %s", t.Spelling(), name)}
		}
		i++
		if i >= len(toks) {
			return nil, false, nil, &DirectiveError{Line: line, Msg: fmt.Sprintf("unterminated parameter list in #define %s", name)}
		}
		switch {
		case toks[i].IsPunct(RightParen):
			return params, variadic, toks[i+1:], nil
		case toks[i].IsPunct(ParameterSeparator) && !variadic:
			i++
		default:
			return nil, false, nil, &DirectiveError{Line: line, Msg: fmt.Sprintf("expected ',' or ')' in parameter list of %s", name)}
		}
	}
}

// checkBody rejects replacement lists the expander could never apply.
func checkBody(line int, name string, body []Token) error {
	if len(body) == 0 {
		return nil
	}
	if isHashHash(body[0]) || isHashHash(body[len(body)-1]) {
		return &DirectiveError{Line: line, Msg: fmt.Sprintf("'##' cannot appear at either end of the replacement list of %s", name)}
	}
	return nil
}

/* ===========================
   conditional inclusion
   =========================== */

func (d *DirectiveProcessor) processIf(line int, name string, rest []Token) error {
	parentActive := d.active()
	cond := false
	if parentActive {
		// conditions in skipped groups are not evaluated
		var err error
		switch name {
		case "ifdef", "ifndef":
			ident, werr := d.wantIdent(line, name, rest)
			if werr != nil {
				return werr
			}
			_, defined := d.macros.Lookup(ident)
			cond = defined == (name == "ifdef")
		default:
			cond, err = d.evalCondition(line, rest)
			if err != nil {
				return err
			}
		}
	}
	d.conds = append(d.conds, condContext{
		parentActive: parentActive,
		active:       parentActive && cond,
		taken:        cond,
		line:         line,
	})
	return nil
}

func (d *DirectiveProcessor) processElif(line int, rest []Token) error {
	if len(d.conds) == 0 {
		return &DirectiveError{Line: line, Msg: "stray #elif"}
	}
	c := &d.conds[len(d.conds)-1]
	if c.sawElse {
		return &DirectiveError{Line: line, Msg: "#elif after #else"}
	}
	if !c.parentActive || c.taken {
		c.active = false
		return nil
	}
	cond, err := d.evalCondition(line, rest)
	if err != nil {
		return err
	}
	c.active = cond
	c.taken = cond
	return nil
}

func (d *DirectiveProcessor) processElse(line int, rest []Token) error {
	if len(d.conds) == 0 {
		return &DirectiveError{Line: line, Msg: "stray #else"}
	}
	c := &d.conds[len(d.conds)-1]
	if c.sawElse {
		return &DirectiveError{Line: line, Msg: "duplicate #else"}
	}
	c.sawElse = true
	c.active = c.parentActive && !c.taken
	c.taken = true
	return nil
}

func (d *DirectiveProcessor) processEndif(line int) error {
	if len(d.conds) == 0 {
		return &DirectiveError{Line: line, Msg: "stray #endif"}
	}
	d.conds = d.conds[:len(d.conds)-1]
	return nil
}

// evalCondition evaluates a #if/#elif controlling expression: "defined" is
// resolved first, the rest is macro-expanded through a nested Expander, and
// the surviving tokens are parsed as an integer constant expression.
func (d *DirectiveProcessor) evalCondition(line int, toks []Token) (bool, error) {
	if len(toks) == 0 {
		return false, &DirectiveError{Line: line, Msg: "#if with no expression"}
	}
	resolved, err := d.resolveDefined(line, toks)
	if err != nil {
		return false, err
	}
	expanded, err := Drain(NewExpander(d.macros, NewSliceSource(resolved)))
	if err != nil {
		return false, &DirectiveError{Line: line, Msg: err.Error()}
	}
	p := condParser{line: line, toks: expanded}
	v, err := p.parse()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// resolveDefined rewrites "defined X" and "defined(X)" to 1 or 0 before
// macro expansion touches the expression.
func (d *DirectiveProcessor) resolveDefined(line int, toks []Token) ([]Token, error) {
	var out []Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind != KindIdentifier || t.Text != "defined" {
			out = append(out, t)
			continue
		}
		i++
		paren := i < len(toks) && toks[i].IsPunct(LeftParen)
		if paren {
			i++
		}
		if i >= len(toks) || toks[i].Kind != KindIdentifier {
			return nil, &DirectiveError{Line: line, Msg: "'defined' expects a macro name"}
		}
		_, ok := d.macros.Lookup(toks[i].Text)
		if paren {
			i++
			if i >= len(toks) || !toks[i].IsPunct(RightParen) {
				return nil, &DirectiveError{Line: line, Msg: "'defined' is missing its ')'"}
			}
		}
		if ok {
			out = append(out, Number("1"))
		} else {
			out = append(out, Number("0"))
		}
	}
	return out, nil
}

/* ===========================
   constant-expression evaluation
   =========================== */

// condParser is a recursive-descent evaluator for #if expressions, one
// level per C precedence tier. Undefined identifiers evaluate to 0, as the
// standard requires after expansion.
type condParser struct {
	line int
	toks []Token
	pos  int
}

func (p *condParser) errf(format string, args ...interface{}) error {
	return &DirectiveError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *condParser) peek() (Token, bool) {
	if p.pos >= len(p.toks) {
		return Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *condParser) acceptPunct(punct Punctuator) bool {
	if t, ok := p.peek(); ok && t.IsPunct(punct) {
		p.pos++
		return true
	}
	return false
}

func (p *condParser) parse() (int64, error) {
	v, err := p.ternary()
	if err != nil {
		return 0, err
	}
	if t, ok := p.peek(); ok {
		return 0, p.errf("unexpected %q in #if expression", t.Spelling())
	}
	return v, nil
}

func (p *condParser) ternary() (int64, error) {
	cond, err := p.logicalOr()
	if err != nil {
		return 0, err
	}
	if !p.acceptPunct(TernaryCondition) {
		return cond, nil
	}
	thenV, err := p.ternary()
	if err != nil {
		return 0, err
	}
	if !p.acceptPunct(TernarySeparator) {
		return 0, p.errf("expected ':' in #if expression")
	}
	elseV, err := p.ternary()
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return thenV, nil
	}
	return elseV, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (p *condParser) logicalOr() (int64, error) {
	v, err := p.logicalAnd()
	if err != nil {
		return 0, err
	}
	for p.acceptPunct(LogicalOr) {
		rhs, err := p.logicalAnd()
		if err != nil {
			return 0, err
		}
		v = boolToInt(v != 0 || rhs != 0)
	}
	return v, nil
}

func (p *condParser) logicalAnd() (int64, error) {
	v, err := p.bitOr()
	if err != nil {
		return 0, err
	}
	for p.acceptPunct(LogicalAnd) {
		rhs, err := p.bitOr()
		if err != nil {
			return 0, err
		}
		v = boolToInt(v != 0 && rhs != 0)
	}
	return v, nil
}

func (p *condParser) bitOr() (int64, error) {
	v, err := p.bitXor()
	if err != nil {
		return 0, err
	}
	for p.acceptPunct(BitwiseOr) {
		rhs, err := p.bitXor()
		if err != nil {
			return 0, err
		}
		v |= rhs
	}
	return v, nil
}

func (p *condParser) bitXor() (int64, error) {
	v, err := p.bitAnd()
	if err != nil {
		return 0, err
	}
	for p.acceptPunct(BitwiseXor) {
		rhs, err := p.bitAnd()
		if err != nil {
			return 0, err
		}
		v ^= rhs
	}
	return v, nil
}

func (p *condParser) bitAnd() (int64, error) {
	v, err := p.equality()
	if err != nil {
		return 0, err
	}
	for p.acceptPunct(AddressOf) {
		rhs, err := p.equality()
		if err != nil {
			return 0, err
		}
		v &= rhs
	}
	return v, nil
}

func (p *condParser) equality() (int64, error) {
	v, err := p.relational()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.acceptPunct(Equals):
			rhs, err := p.relational()
			if err != nil {
				return 0, err
			}
			v = boolToInt(v == rhs)
		case p.acceptPunct(NotEquals):
			rhs, err := p.relational()
			if err != nil {
				return 0, err
			}
			v = boolToInt(v != rhs)
		default:
			return v, nil
		}
	}
}

func (p *condParser) relational() (int64, error) {
	v, err := p.shift()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.acceptPunct(LessThan):
			rhs, err := p.shift()
			if err != nil {
				return 0, err
			}
			v = boolToInt(v < rhs)
		case p.acceptPunct(GreaterThan):
			rhs, err := p.shift()
			if err != nil {
				return 0, err
			}
			v = boolToInt(v > rhs)
		case p.acceptPunct(LessThanOrEquals):
			rhs, err := p.shift()
			if err != nil {
				return 0, err
			}
			v = boolToInt(v <= rhs)
		case p.acceptPunct(GreaterThanOrEquals):
			rhs, err := p.shift()
			if err != nil {
				return 0, err
			}
			v = boolToInt(v >= rhs)
		default:
			return v, nil
		}
	}
}

func (p *condParser) shift() (int64, error) {
	v, err := p.additive()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.acceptPunct(ShiftLeft):
			rhs, err := p.additive()
			if err != nil {
				return 0, err
			}
			v <<= uint64(rhs)
		case p.acceptPunct(ShiftRight):
			rhs, err := p.additive()
			if err != nil {
				return 0, err
			}
			v >>= uint64(rhs)
		default:
			return v, nil
		}
	}
}

func (p *condParser) additive() (int64, error) {
	v, err := p.multiplicative()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.acceptPunct(Add):
			rhs, err := p.multiplicative()
			if err != nil {
				return 0, err
			}
			v += rhs
		case p.acceptPunct(Subtract):
			rhs, err := p.multiplicative()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *condParser) multiplicative() (int64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		var op Punctuator
		switch {
		case p.acceptPunct(Dereference):
			op = Dereference
		case p.acceptPunct(Divide):
			op = Divide
		case p.acceptPunct(Modulus):
			op = Modulus
		default:
			return v, nil
		}
		rhs, err := p.unary()
		if err != nil {
			return 0, err
		}
		switch op {
		case Dereference:
			v *= rhs
		case Divide:
			if rhs == 0 {
				return 0, p.errf("division by zero in #if expression")
			}
			v /= rhs
		case Modulus:
			if rhs == 0 {
				return 0, p.errf("division by zero in #if expression")
			}
			v %= rhs
		}
	}
}

func (p *condParser) unary() (int64, error) {
	switch {
	case p.acceptPunct(LogicalNot):
		v, err := p.unary()
		return boolToInt(v == 0), err
	case p.acceptPunct(BitwiseNot):
		v, err := p.unary()
		return ^v, err
	case p.acceptPunct(Subtract):
		v, err := p.unary()
		return -v, err
	case p.acceptPunct(Add):
		return p.unary()
	}
	return p.primary()
}

func (p *condParser) primary() (int64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, p.errf("#if expression ended unexpectedly")
	}
	switch {
	case t.IsPunct(LeftParen):
		p.pos++
		v, err := p.ternary()
		if err != nil {
			return 0, err
		}
		if !p.acceptPunct(RightParen) {
			return 0, p.errf("expected ')' in #if expression")
		}
		return v, nil
	case t.Kind == KindNumber:
		p.pos++
		return parseIntConstant(p.line, t.Text)
	case t.Kind == KindCharConst:
		p.pos++
		return charConstValue(p.line, t.Text)
	case t.Kind == KindIdentifier:
		// any identifier surviving expansion evaluates to 0
		p.pos++
		return 0, nil
	default:
		return 0, p.errf("unexpected %q in #if expression", t.Spelling())
	}
}

// parseIntConstant evaluates a pp-number as an integer constant, stripping
// u/U/l/L suffixes.
func parseIntConstant(line int, lexeme string) (int64, error) {
	s := strings.TrimRight(lexeme, "uUlL")
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, &DirectiveError{Line: line, Msg: fmt.Sprintf("%q is not an integer constant", lexeme)}
	}
	return v, nil
}

// charConstValue evaluates a character constant's first character,
// interpreting the common escapes.
func charConstValue(line int, spelling string) (int64, error) {
	s := strings.TrimPrefix(spelling, "L")
	s = strings.TrimPrefix(s, "u8")
	s = strings.TrimPrefix(s, "u")
	s = strings.TrimPrefix(s, "U")
	if len(s) < 3 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return 0, &DirectiveError{Line: line, Msg: fmt.Sprintf("%q is not a character constant", spelling)}
	}
	body := s[1 : len(s)-1]
	if body[0] != '\\' {
		return int64(body[0]), nil
	}
	if len(body) < 2 {
		return 0, &DirectiveError{Line: line, Msg: fmt.Sprintf("%q is not a character constant", spelling)}
	}
	switch body[1] {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case '\\', '\'', '"':
		return int64(body[1]), nil
	default:
		return 0, &DirectiveError{Line: line, Msg: fmt.Sprintf("unsupported escape in %q", spelling)}
	}
}
