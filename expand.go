// expand.go: the macro-expanding token source.
//
// Expander wraps an upstream Source and a macro table and yields the fully
// macro-expanded stream, one token per Next call. Expansion is on-demand
// and recursive: replacing an invocation does not yield anything by itself —
// the replacement is pushed to the front of a pending queue and rescanned,
// because replacements routinely contain further invocations.
//
// Recursion is kept finite with hide sets (the "painting" algorithm due to
// Dave Prosser that underlies the standard's wording): every token produced
// by expansion carries the set of macro names whose expansion produced it,
// and an identifier is never re-expanded as an invocation of a name in its
// own hide set. Object-like expansion adds the invoked name to the invoking
// token's set; function-like expansion starts from the intersection of the
// sets of the macro name and the closing parenthesis, since those two tokens
// can come from different expansion contexts.
//
// Each expansion also queues a zero-width end-of-scope marker after its
// replacement. Markers never reach the caller; the expander consumes them
// to maintain the stack of expansions whose replacement is still being
// rescanned, which names the enclosing macro when argument collection runs
// off the end of the stream.
package pp

import "io"

// scopedToken is the unit flowing through the expander's pending queue:
// either a token tagged with its hide set, or an end-of-scope marker naming
// a macro whose replacement has been fully rescanned.
type scopedToken struct {
	tok      Token
	hide     hideSet
	endScope string // non-empty: marker, tok/hide are meaningless
}

// Expander is the macro-expanding Source. It must be the only reader of its
// upstream source for its lifetime.
type Expander struct {
	macros   *Macros
	upstream Source
	pending  []scopedToken // front is pending[0]
	open     []string      // macros whose replacement is still rescanning
	done     bool
}

// NewExpander returns an Expander reading from upstream and expanding
// against table. The table may be mutated between Next calls (that is how
// #define and #undef take effect mid-stream) but never during one.
func NewExpander(table *Macros, upstream Source) *Expander {
	return &Expander{macros: table, upstream: upstream}
}

// Next implements Source.
func (e *Expander) Next() (Token, error) {
	u, err := e.nextExpanded()
	return u.tok, err
}

// nextUnit pulls the next queue unit, falling back to upstream. Tokens
// arriving from upstream have empty hide sets.
func (e *Expander) nextUnit() (scopedToken, error) {
	if len(e.pending) > 0 {
		u := e.pending[0]
		e.pending = e.pending[1:]
		return u, nil
	}
	if e.upstream == nil {
		return scopedToken{}, io.EOF
	}
	tok, err := e.upstream.Next()
	if err != nil {
		return scopedToken{}, err
	}
	return scopedToken{tok: tok}, nil
}

// pushFront prepends units to the pending queue.
func (e *Expander) pushFront(units []scopedToken) {
	e.pending = append(append([]scopedToken{}, units...), e.pending...)
}

// beginScope queues a macro's substituted replacement, followed by its
// end-of-scope marker, for rescanning.
func (e *Expander) beginScope(name string, units []scopedToken) {
	units = append(units, scopedToken{endScope: name})
	e.pushFront(units)
	e.open = append(e.open, name)
}

func (e *Expander) closeScope() {
	if n := len(e.open); n > 0 {
		e.open = e.open[:n-1]
	}
}

// innermost returns the macro whose replacement is currently being
// rescanned, for error reporting.
func (e *Expander) innermost() string {
	if n := len(e.open); n > 0 {
		return e.open[n-1]
	}
	return ""
}

// nextExpanded is the rescanning loop: it keeps rewriting the head of the
// stream until it holds a token that needs no further expansion, then
// yields it with its hide set intact (the nested argument expanders need
// the sets; Next drops them).
func (e *Expander) nextExpanded() (scopedToken, error) {
	if e.done {
		return scopedToken{}, io.EOF
	}
	for {
		u, err := e.nextUnit()
		if err == io.EOF {
			e.done = true
			return scopedToken{}, io.EOF
		}
		if err != nil {
			return scopedToken{}, err
		}
		if u.endScope != "" {
			e.closeScope()
			continue
		}
		t := u.tok
		if t.Kind != KindIdentifier || u.hide.contains(t.Text) {
			return u, nil
		}
		def, ok := e.macros.Lookup(t.Text)
		if !ok {
			return u, nil
		}

		switch m := def.(type) {
		case ObjectMacro:
			units, err := e.substitute(t.Text, FunctionMacro{Body: m.Body}, nil)
			if err != nil {
				return scopedToken{}, err
			}
			hs := u.hide.with(t.Text)
			for i := range units {
				units[i].hide = units[i].hide.union(hs)
			}
			e.beginScope(t.Text, units)

		case FunctionMacro:
			invoked, err := e.invokeFunction(t.Text, m, u)
			if err != nil {
				return scopedToken{}, err
			}
			if !invoked {
				return u, nil
			}
		}
	}
}

// invokeFunction handles an identifier naming a function-like macro. If no
// left parenthesis follows — looking across newlines — the identifier is
// not an invocation and everything read ahead is replayed. Otherwise the
// argument list is collected, substituted, and queued for rescanning.
func (e *Expander) invokeFunction(name string, m FunctionMacro, nameUnit scopedToken) (bool, error) {
	var ahead []scopedToken
	for {
		v, err := e.nextUnit()
		if err == io.EOF {
			e.pushFront(ahead)
			return false, nil
		}
		if err != nil {
			// an upstream failure is not locally recoverable
			return false, err
		}
		if v.endScope != "" {
			e.closeScope()
			continue
		}
		if v.tok.Kind == KindNewline {
			ahead = append(ahead, v)
			continue
		}
		if !v.tok.IsPunct(LeftParen) {
			e.pushFront(append(ahead, v))
			return false, nil
		}
		break
	}

	args, rparenHide, err := e.collectArguments(name, m)
	if err != nil {
		return false, err
	}

	units, err := e.substitute(name, m, args)
	if err != nil {
		return false, err
	}
	hs := nameUnit.hide.intersect(rparenHide).with(name)
	for i := range units {
		units[i].hide = units[i].hide.union(hs)
	}
	e.beginScope(name, units)
	return true, nil
}

// collectArguments reads the argument list after the opening parenthesis:
// tokens up to the matching close, split on top-level commas. Commas inside
// nested parentheses do not separate arguments, and newlines inside the
// list are ordinary whitespace. Returns one raw token sequence per argument
// and the hide set of the closing parenthesis.
func (e *Expander) collectArguments(name string, m FunctionMacro) ([][]scopedToken, hideSet, error) {
	// the scope enclosing the invocation, noted now: collection consumes
	// end-of-scope markers as it crosses them
	within := e.innermost()
	var args [][]scopedToken
	var current []scopedToken
	depth := 1
	for {
		v, err := e.nextUnit()
		if err == io.EOF {
			return nil, nil, &UnterminatedInvocationError{Macro: name, Within: within}
		}
		if err != nil {
			return nil, nil, err
		}
		if v.endScope != "" {
			e.closeScope()
			continue
		}
		t := v.tok
		switch {
		case t.Kind == KindNewline:
			// whitespace; an invocation may span lines
		case t.IsPunct(LeftParen):
			depth++
			current = append(current, v)
		case t.IsPunct(RightParen):
			depth--
			if depth == 0 {
				if len(current) > 0 || len(args) > 0 {
					args = append(args, current)
				}
				if err := checkArity(name, m, &args); err != nil {
					return nil, nil, err
				}
				return args, v.hide, nil
			}
			current = append(current, v)
		case t.IsPunct(ParameterSeparator) && depth == 1 && !pastNamedParams(m, len(args)):
			args = append(args, current)
			current = nil
		default:
			current = append(current, v)
		}
	}
}

// pastNamedParams reports whether argument collection has moved into the
// variadic tail, where commas no longer separate arguments.
func pastNamedParams(m FunctionMacro, collected int) bool {
	return m.Variadic && collected >= len(m.Params)
}

// checkArity validates the argument count, normalizing the one ambiguous
// case: "F()" supplies a single empty argument to a one-parameter macro.
func checkArity(name string, m FunctionMacro, args *[][]scopedToken) error {
	want := len(m.Params)
	if len(*args) == 0 && want == 1 {
		*args = append(*args, nil)
	}
	got := len(*args)
	if m.Variadic {
		if got < want {
			return &ArityMismatchError{Macro: name, Want: want, Got: got, Variadic: true}
		}
		return nil
	}
	if got != want {
		return &ArityMismatchError{Macro: name, Want: want, Got: got}
	}
	return nil
}

// expandArgument produces the fully macro-expanded view of one raw
// argument: a fresh Expander over just those tokens, sharing only the
// read-only macro table. Hide sets survive the trip in both directions.
func (e *Expander) expandArgument(arg []scopedToken) ([]scopedToken, error) {
	sub := &Expander{
		macros:  e.macros,
		pending: append([]scopedToken{}, arg...),
	}
	var out []scopedToken
	for {
		u, err := sub.nextExpanded()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
}
