package lex

// CPatterns returns an ordered pattern catalog for scanning a C-flavored
// language. It is plain data: the generator gives it no special treatment,
// and callers are free to copy and modify it. Keywords come before the
// identifier pattern so they win by priority, and the whole catalog relies on
// maximal munch for multi-character operators.
func CPatterns() []Pattern {
	return []Pattern{
		{Name: "COMMENT", Regex: "//[^\n]*|/\\*[^*]*\\*+([^/*][^*]*\\*+)*/", Discard: true},
		{Name: "SPACE", Regex: "[ \t\n\r\v\f]+", Discard: true},
		{Name: "STRING", Regex: "\"[^\"]*\""},
		{Name: "CHAR", Regex: "'[^']*'"},
		{Name: "KEYWORD", Regex: "auto|break|case|char|const|continue|default|do" +
			"|double|else|enum|extern|float|for|goto|if" +
			"|int|long|register|return|short|signed|sizeof|static" +
			"|struct|switch|typedef|union|unsigned|void|volatile|while"},
		{Name: "HEX_INTEGER", Regex: "0[xX][0-9a-fA-F]+[uU]?"},
		{Name: "OCT_INTEGER", Regex: "0[0-7]+[uU]?"},
		{Name: "FLOAT_EXP", Regex: "[0-9]+\\.[0-9]+[eE](\\+|-)?[0-9]+"},
		{Name: "FLOAT", Regex: "[0-9]+\\.[0-9]+"},
		{Name: "INTEGER", Regex: "(0|[1-9][0-9]*)[uU]?"},
		{Name: "OMIT", Regex: "\\.\\.\\."},
		{Name: "OP", Regex: "\\+\\+|--|<<=|>>=|<<|>>|<=|>=|==|!=|&&|\\|\\|" +
			"|\\+=|-=|\\*=|/=|%=|&=|\\|=|\\^=" +
			"|->|\\+|-|\\*|/|%|=|<|>|!|&|\\||\\^|~|\\.|,|\\?|:"},
		{Name: "BRACKET", Regex: "\\(|\\)|\\[|\\]|{|}"},
		{Name: "SEPARATOR", Regex: ";"},
		{Name: "IDENTIFIER", Regex: "[a-zA-Z_][a-zA-Z0-9_]*"},
	}
}
