// subst.go: parameter substitution inside a macro body, with the # and ##
// operators.
//
// The substitution rules are order-sensitive: a parameter that is an
// operand of # or ## receives the argument's raw, unexpanded tokens, while
// every other parameter occurrence receives the argument expanded as its
// own independent stream. Consecutive ## operators associate left to right
// along the replacement list.
package pp

import "strings"

// argFor returns the raw tokens bound to parameter index idx. A variadic
// invocation with an empty tail has no slot for __VA_ARGS__; that reads as
// an empty argument.
func argFor(args [][]scopedToken, idx int) []scopedToken {
	if idx < len(args) {
		return args[idx]
	}
	return nil
}

// substitute builds a macro's replacement sequence for one invocation.
// Object-like macros come through with an empty parameter list: parameters
// and # never match, but ## still pastes. The caller layers the invocation
// hide set over the result.
func (e *Expander) substitute(name string, m FunctionMacro, args [][]scopedToken) ([]scopedToken, error) {
	var out []scopedToken
	// dissolved records that the left operand of the next ## was a
	// parameter whose argument was empty: the operand position exists but
	// holds no token, and a chain of ## over empty operands must keep it
	// alive rather than treat the body as malformed.
	dissolved := false
	body := m.Body
	for i := 0; i < len(body); i++ {
		t := body[i]
		if !isHashHash(t) {
			// any token other than ## ends a dissolved operand chain
			dissolved = false
		}

		// # parameter → string literal of the raw argument
		if isHash(t) && i+1 < len(body) && body[i+1].Kind == KindIdentifier {
			if idx, ok := m.paramIndex(body[i+1].Text); ok {
				out = append(out, scopedToken{tok: stringize(argFor(args, idx))})
				i++
				continue
			}
		}

		// lhs ## rhs → one pasted token
		if isHashHash(t) {
			if len(out) == 0 && !dissolved {
				return nil, &MalformedBodyError{Macro: name, Msg: "'##' cannot appear at the start of a replacement list"}
			}
			if i+1 >= len(body) {
				return nil, &MalformedBodyError{Macro: name, Msg: "'##' cannot appear at the end of a replacement list"}
			}
			rhs := body[i+1]
			i++
			if dissolved {
				// empty left operand: the rhs passes through unpasted,
				// and if it is empty too the position stays dissolved
				if rhs.Kind == KindIdentifier {
					if idx, ok := m.paramIndex(rhs.Text); ok {
						arg := argFor(args, idx)
						if len(arg) == 0 {
							continue
						}
						out = append(out, arg...)
						dissolved = false
						continue
					}
				}
				out = append(out, scopedToken{tok: rhs})
				dissolved = false
				continue
			}
			if rhs.Kind == KindIdentifier {
				if idx, ok := m.paramIndex(rhs.Text); ok {
					arg := argFor(args, idx)
					if len(arg) == 0 {
						// empty argument: the paste dissolves, lhs stays
						continue
					}
					pasted, err := e.paste(name, out[len(out)-1], arg[0])
					if err != nil {
						return nil, err
					}
					out[len(out)-1] = pasted
					out = append(out, arg[1:]...)
					continue
				}
			}
			pasted, err := e.paste(name, out[len(out)-1], scopedToken{tok: rhs})
			if err != nil {
				return nil, err
			}
			out[len(out)-1] = pasted
			continue
		}

		// parameter occurrence
		if t.Kind == KindIdentifier {
			if idx, ok := m.paramIndex(t.Text); ok {
				arg := argFor(args, idx)
				if i+1 < len(body) && isHashHash(body[i+1]) {
					// left operand of ##: raw tokens, no expansion
					if len(arg) == 0 {
						dissolved = true
						continue
					}
					out = append(out, arg...)
					continue
				}
				expanded, err := e.expandArgument(arg)
				if err != nil {
					return nil, err
				}
				out = append(out, expanded...)
				continue
			}
		}

		out = append(out, scopedToken{tok: t})
	}
	return out, nil
}

// paste concatenates the spellings of two tokens and re-lexes the result,
// which must form exactly one preprocessing token. The pasted token's hide
// set is the intersection of the operands' sets: it may only hide what both
// pieces hide.
func (e *Expander) paste(name string, l, r scopedToken) (scopedToken, error) {
	spelling := l.tok.Spelling() + r.tok.Spelling()
	toks, err := LexText(spelling)
	if err != nil || len(toks) != 1 {
		return scopedToken{}, &InvalidPasteError{Macro: name, Spelling: spelling}
	}
	return scopedToken{tok: toks[0], hide: l.hide.intersect(r.hide)}, nil
}

// stringize renders an argument's raw tokens as a single string-literal
// token: internal whitespace collapses to single spaces (kept only where
// two spellings would otherwise re-lex as one), no leading or trailing
// whitespace, and " and \ inside literal spellings escaped.
func stringize(arg []scopedToken) Token {
	var b strings.Builder
	b.WriteByte('"')
	var prev *Token
	for i := range arg {
		t := arg[i].tok
		if t.Kind == KindNewline {
			continue
		}
		if prev != nil && needsSpace(*prev, t) {
			b.WriteByte(' ')
		}
		spelling := t.Spelling()
		if t.Kind == KindStringLit || t.Kind == KindCharConst {
			for j := 0; j < len(spelling); j++ {
				if spelling[j] == '"' || spelling[j] == '\\' {
					b.WriteByte('\\')
				}
				b.WriteByte(spelling[j])
			}
		} else {
			b.WriteString(spelling)
		}
		tc := t
		prev = &tc
	}
	b.WriteByte('"')
	return StringLit(b.String())
}
