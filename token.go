// token.go: the preprocessing-token vocabulary.
//
// A PreprocessingToken is the lexical unit that flows through the pipeline:
// header names, identifiers, preprocessing numbers, character constants,
// string literals, punctuators, stray characters, and a synthetic newline.
// The newline is not a real C token, but the directive grammar is
// line-sensitive and keeping newlines lets the expanded output mirror the
// line structure of the input.
//
// Tokens are immutable values; equality is structural (plain ==).
package pp

// TokenKind enumerates the closed set of preprocessing-token variants.
type TokenKind int

const (
	KindHeaderName TokenKind = iota
	KindIdentifier
	KindNumber // preprocessing-number, raw lexeme
	KindCharConst
	KindStringLit
	KindPunctuator
	KindOther // any single character not covered above
	KindNewline
)

// Separation records whether a token was immediately preceded by whitespace.
// It is carried on left parentheses only: whether the "(" after a macro name
// in a #define touches the name is what separates a function-like macro from
// an object-like macro whose replacement starts with "(".
type Separation int

const (
	NoSeparation Separation = iota
	WhitespaceSeparation
)

// HeaderKind distinguishes <...> from "..." header names.
type HeaderKind int

const (
	SystemPath HeaderKind = iota
	UserPath
)

// Punctuator enumerates the C punctuator tokens. The names capture how each
// token is most often used in C — the preprocessor itself has no opinion —
// and the order follows the C17 draft (N2176).
type Punctuator int

const (
	ArrayIndexBegin Punctuator = iota // [
	ArrayIndexEnd                     // ]
	LeftParen                         // ( — carries Separation on the token
	RightParen                        // )
	BlockBegin                        // {
	BlockEnd                          // }
	Member                            // .
	DerefMember                       // ->
	Increment                         // ++
	Decrement                         // --
	AddressOf                         // &
	Dereference                       // *
	Add                               // +
	Subtract                          // -
	BitwiseNot                        // ~
	LogicalNot                        // !
	Divide                            // /
	Modulus                           // %
	ShiftLeft                         // <<
	ShiftRight                        // >>
	LessThan                          // <
	GreaterThan                       // >
	LessThanOrEquals                  // <=
	GreaterThanOrEquals               // >=
	Equals                            // ==
	NotEquals                         // !=
	BitwiseXor                        // ^
	BitwiseOr                         // |
	LogicalAnd                        // &&
	LogicalOr                         // ||
	TernaryCondition                  // ?
	TernarySeparator                  // :
	StatementEnd                      // ;
	VariadicParameters                // ...
	Assignment                        // =
	MultiplyAndAssign                 // *=
	DivideAndAssign                   // /=
	ModulusAndAssign                  // %=
	AddAndAssign                      // +=
	SubtractAndAssign                 // -=
	ShiftLeftAndAssign                // <<=
	ShiftRightAndAssign               // >>=
	BitwiseAndAndAssign               // &=
	BitwiseXorAndAssign               // ^=
	BitwiseOrAndAssign                // |=
	ParameterSeparator                // ,
	DirectiveMarker                   // #
	Concat                            // ##
	ArrayIndexBeginDigraph            // <:
	ArrayIndexEndDigraph              // :>
	BlockBeginDigraph                 // <%
	BlockEndDigraph                   // %>
	DirectiveMarkerDigraph            // %:
	ConcatDigraph                     // %:%:
)

var punctuatorSpellings = map[Punctuator]string{
	ArrayIndexBegin:        "[",
	ArrayIndexEnd:          "]",
	LeftParen:              "(",
	RightParen:             ")",
	BlockBegin:             "{",
	BlockEnd:               "}",
	Member:                 ".",
	DerefMember:            "->",
	Increment:              "++",
	Decrement:              "--",
	AddressOf:              "&",
	Dereference:            "*",
	Add:                    "+",
	Subtract:               "-",
	BitwiseNot:             "~",
	LogicalNot:             "!",
	Divide:                 "/",
	Modulus:                "%",
	ShiftLeft:              "<<",
	ShiftRight:             ">>",
	LessThan:               "<",
	GreaterThan:            ">",
	LessThanOrEquals:       "<=",
	GreaterThanOrEquals:    ">=",
	Equals:                 "==",
	NotEquals:              "!=",
	BitwiseXor:             "^",
	BitwiseOr:              "|",
	LogicalAnd:             "&&",
	LogicalOr:              "||",
	TernaryCondition:       "?",
	TernarySeparator:       ":",
	StatementEnd:           ";",
	VariadicParameters:     "...",
	Assignment:             "=",
	MultiplyAndAssign:      "*=",
	DivideAndAssign:        "/=",
	ModulusAndAssign:       "%=",
	AddAndAssign:           "+=",
	SubtractAndAssign:      "-=",
	ShiftLeftAndAssign:     "<<=",
	ShiftRightAndAssign:    ">>=",
	BitwiseAndAndAssign:    "&=",
	BitwiseXorAndAssign:    "^=",
	BitwiseOrAndAssign:     "|=",
	ParameterSeparator:     ",",
	DirectiveMarker:        "#",
	Concat:                 "##",
	ArrayIndexBeginDigraph: "<:",
	ArrayIndexEndDigraph:   ":>",
	BlockBeginDigraph:      "<%",
	BlockEndDigraph:        "%>",
	DirectiveMarkerDigraph: "%:",
	ConcatDigraph:          "%:%:",
}

// Spelling returns the source spelling of the punctuator.
func (p Punctuator) Spelling() string { return punctuatorSpellings[p] }

// Token is one preprocessing token. Which fields are meaningful depends on
// Kind: Text holds the raw spelling for identifiers, numbers, literals,
// header names and stray characters; Punct is set for punctuators; Sep is
// set for left parentheses; Header is set for header names.
type Token struct {
	Kind   TokenKind
	Text   string
	Punct  Punctuator
	Sep    Separation
	Header HeaderKind
}

// Spelling returns the token's source spelling. Newlines spell as "\n";
// header names get their delimiters back.
func (t Token) Spelling() string {
	switch t.Kind {
	case KindPunctuator:
		return t.Punct.Spelling()
	case KindNewline:
		return "\n"
	case KindHeaderName:
		if t.Header == SystemPath {
			return "<" + t.Text + ">"
		}
		return `"` + t.Text + `"`
	default:
		return t.Text
	}
}

// IsPunct reports whether t is the given punctuator.
func (t Token) IsPunct(p Punctuator) bool {
	return t.Kind == KindPunctuator && t.Punct == p
}

// isHash reports '#' in either spelling; the digraph '%:' behaves
// identically.
func isHash(t Token) bool {
	return t.IsPunct(DirectiveMarker) || t.IsPunct(DirectiveMarkerDigraph)
}

// isHashHash reports '##' in either spelling; the digraph '%:%:' behaves
// identically.
func isHashHash(t Token) bool {
	return t.IsPunct(Concat) || t.IsPunct(ConcatDigraph)
}

// Convenience constructors. Tests and the substitution code build a lot of
// tokens by hand; these keep that readable.

// Ident returns an identifier token.
func Ident(name string) Token { return Token{Kind: KindIdentifier, Text: name} }

// Number returns a preprocessing-number token with the given lexeme.
func Number(lexeme string) Token { return Token{Kind: KindNumber, Text: lexeme} }

// Punct returns a punctuator token.
func Punct(p Punctuator) Token { return Token{Kind: KindPunctuator, Punct: p} }

// LParen returns a left parenthesis with the given separation.
func LParen(sep Separation) Token {
	return Token{Kind: KindPunctuator, Punct: LeftParen, Sep: sep}
}

// StringLit returns a string-literal token. Text is the full spelling,
// quotes included.
func StringLit(spelling string) Token { return Token{Kind: KindStringLit, Text: spelling} }

// CharConst returns a character-constant token. Text is the full spelling,
// quotes included.
func CharConst(spelling string) Token { return Token{Kind: KindCharConst, Text: spelling} }

// HeaderName returns a header-name token. Text is the path without the
// surrounding delimiters.
func HeaderName(kind HeaderKind, path string) Token {
	return Token{Kind: KindHeaderName, Text: path, Header: kind}
}

// Newline returns the synthetic newline token.
func Newline() Token { return Token{Kind: KindNewline} }
