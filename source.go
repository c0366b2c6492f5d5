// source.go: the pull protocol every pipeline stage speaks.
//
// The preprocessor is built around streams of tokens. Tokens flow from a
// Source, which produces one unit of information per call to Next. At some
// point a Source dries up and reports io.EOF; a Source may also define a
// contract around the units it produces, and when that contract cannot be
// met it reports an error. Whether an error is recoverable is decided by the
// specific Source, not by the protocol.
//
// Every stage of the pipeline — lexer, directive processor, macro expander —
// implements Source and wraps another Source, so stages compose without an
// outer stage knowing what the inner one is.
package pp

import "io"

// Source produces preprocessing tokens one at a time. Next returns exactly
// one of: a token, io.EOF once the source is permanently exhausted, or any
// other error describing why a valid token could not be produced. After the
// first io.EOF every subsequent call must return io.EOF again.
type Source interface {
	Next() (Token, error)
}

// SliceSource is a finite in-memory Source backed by a token slice. The
// expander uses fresh SliceSources to re-expand macro arguments; tests use
// them as upstream doubles.
type SliceSource struct {
	tokens []Token
	pos    int
}

// NewSliceSource returns a Source yielding the given tokens in order. The
// slice is not copied; callers must not mutate it while the source is live.
func NewSliceSource(tokens []Token) *SliceSource {
	return &SliceSource{tokens: tokens}
}

func (s *SliceSource) Next() (Token, error) {
	if s.pos >= len(s.tokens) {
		return Token{}, io.EOF
	}
	t := s.tokens[s.pos]
	s.pos++
	return t, nil
}

// Drain pulls src until io.EOF and returns everything produced. Any other
// error aborts the drain and is returned alongside the tokens read so far.
func Drain(src Source) ([]Token, error) {
	var out []Token
	for {
		t, err := src.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
}
