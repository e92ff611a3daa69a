package parser

// TokenType is the kind of a template token.
type TokenType string

const (
	TokenEOF TokenType = "EOF"

	// TokenText is a run of literal SQL. A doubled "%%" and a lone '%' that
	// does not start a marker both end up in text as a single '%'.
	TokenText TokenType = "TEXT"

	// TokenMarker is a substitution marker: %N, %Nq, %N:name, %Nq:name:
	TokenMarker TokenType = "MARKER"
)

// Modifier controls how the value substituted at a marker is quoted.
type Modifier byte

const (
	ModNone            Modifier = ' '
	ModQuote           Modifier = 'q'
	ModQuoteOnly       Modifier = 'Q'
	ModAlwaysQuote     Modifier = 'r'
	ModAlwaysQuoteOnly Modifier = 'R'
)

func isModifier(ch byte) bool {
	switch Modifier(ch) {
	case ModQuote, ModQuoteOnly, ModAlwaysQuote, ModAlwaysQuoteOnly:
		return true
	}
	return false
}

func (m Modifier) String() string {
	if m == ModNone || m == 0 {
		return ""
	}
	return string(rune(m))
}

// Token is one lexeme of a template. Marker fields are set only for
// TokenMarker.
type Token struct {
	Type     TokenType
	Literal  string
	Ordinal  int
	Modifier Modifier
	Name     string
	Line     int
	Column   int
}
