package pp

// Preprocess runs src through the lexer, the directive stage, and the macro
// expander, then prints the surviving tokens. The table accumulates
// definitions as directives execute; passing the same table across calls
// carries them over, passing nil uses a fresh empty table.
func Preprocess(src string, table *Macros) (string, error) {
	toks, err := PreprocessTokens(src, table)
	if err != nil {
		return "", err
	}
	return Print(toks), nil
}

// PreprocessTokens is Preprocess without the printing step.
func PreprocessTokens(src string, table *Macros) ([]Token, error) {
	if table == nil {
		table = NewMacros()
	}
	return Drain(NewExpander(table, NewDirectiveProcessor(table, NewLexer(src))))
}
