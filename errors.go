// errors.go: typed errors and caret-snippet rendering.
//
// The library reports failures as typed error values; nothing in here logs.
// Two families exist:
//
//   - positional errors from the lexer and the directive stage (*LexError,
//     *DirectiveError), which WrapErrorWithSource can render as a
//     Python-style snippet with a caret under the offending column;
//   - expansion errors (*UnterminatedInvocationError, *ArityMismatchError,
//     *InvalidPasteError, *MalformedBodyError), which name the macro
//     involved — by the time the expander runs, positions belong to
//     whichever upstream stage produced the tokens.
//
// Upstream failures are never wrapped by the expander: a stage propagates
// what it cannot produce a valid token past.
package pp

import (
	"fmt"
	"strings"
)

// UnterminatedInvocationError: the stream ended while collecting a
// function-like macro's arguments.
type UnterminatedInvocationError struct {
	Macro  string
	Within string // enclosing expansion being rescanned, if any
}

func (e *UnterminatedInvocationError) Error() string {
	if e.Within != "" {
		return fmt.Sprintf("unterminated invocation of macro %q (while expanding %q)", e.Macro, e.Within)
	}
	return fmt.Sprintf("unterminated invocation of macro %q", e.Macro)
}

// ArityMismatchError: a function-like macro was invoked with the wrong
// number of arguments.
type ArityMismatchError struct {
	Macro    string
	Want     int
	Got      int
	Variadic bool
}

func (e *ArityMismatchError) Error() string {
	if e.Variadic {
		return fmt.Sprintf("macro %q requires at least %d arguments, got %d", e.Macro, e.Want, e.Got)
	}
	return fmt.Sprintf("macro %q requires %d arguments, got %d", e.Macro, e.Want, e.Got)
}

// InvalidPasteError: the ## operator produced text that is not a single
// preprocessing token.
type InvalidPasteError struct {
	Macro    string
	Spelling string
}

func (e *InvalidPasteError) Error() string {
	return fmt.Sprintf("in macro %q, pasting forms %q, an invalid preprocessing token", e.Macro, e.Spelling)
}

// MalformedBodyError: a replacement list the expander cannot apply, such as
// ## at either end. The directive stage rejects these at definition time;
// hand-built tables can still carry them.
type MalformedBodyError struct {
	Macro string
	Msg   string
}

func (e *MalformedBodyError) Error() string {
	return fmt.Sprintf("in macro %q: %s", e.Macro, e.Msg)
}

// DirectiveError reports a malformed or failing directive line.
type DirectiveError struct {
	Line       int
	Msg        string
	Incomplete bool // the input ended inside an open conditional
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("DIRECTIVE ERROR at line %d: %s", e.Line, e.Msg)
}

// IsIncomplete reports whether err means the input ended mid-construct (an
// open conditional, or a macro invocation still collecting arguments)
// rather than being wrong. Interactive readers keep prompting on these.
func IsIncomplete(err error) bool {
	switch e := err.(type) {
	case *UnterminatedInvocationError:
		return true
	case *DirectiveError:
		return e.Incomplete
	}
	return false
}

/* ===========================
   caret-snippet rendering
   =========================== */

// WrapErrorWithSource returns an error augmented with a caret-annotated
// snippet of the provided source. It recognizes positional errors
// (*LexError, *DirectiveError) and leaves every other error untouched.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with a source name ("in <name>")
// in the header.
func WrapErrorWithName(err error, srcName string, src string) error {
	switch e := err.(type) {
	case *LexError:
		// LexError columns are 0-based; render 1-based.
		return fmt.Errorf("%s", prettyErrorString(src, "LEXICAL ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *DirectiveError:
		return fmt.Errorf("%s", prettyErrorString(src, "DIRECTIVE ERROR", srcName, e.Line, 1, e.Msg))
	default:
		return err
	}
}

// prettyErrorString builds a snippet with a header and a caret, showing at
// most one previous and one next line. Coordinates are 1-based and clamped
// to the source bounds.
func prettyErrorString(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad > len(lineTxt) {
		caretPad = len(lineTxt)
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
