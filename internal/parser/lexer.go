package parser

// Lexer splits template text into literal runs and markers.
type Lexer struct {
	input        string
	position     int  // index of ch
	readPosition int  // index after ch
	ch           byte // current byte, 0 at EOF
	line         int
	column       int
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) eof() bool { return l.position >= len(l.input) }

// NextToken returns the next token. Text tokens never carry a marker and
// markers never carry text.
func (l *Lexer) NextToken() Token {
	if l.eof() {
		return Token{Type: TokenEOF, Line: l.line, Column: l.column}
	}
	if l.ch == '%' && isDigit(l.peekChar()) {
		return l.readMarker()
	}
	return l.readText()
}

func (l *Lexer) readText() Token {
	tok := Token{Type: TokenText, Line: l.line, Column: l.column}
	var text []byte
	for !l.eof() {
		if l.ch == '%' {
			next := l.peekChar()
			if isDigit(next) {
				break
			}
			if next == '%' {
				l.readChar()
			}
		}
		text = append(text, l.ch)
		l.readChar()
	}
	tok.Literal = string(text)
	return tok
}

// readMarker reads %N[mod][:name[:]] with N up to three digits.
func (l *Lexer) readMarker() Token {
	tok := Token{Type: TokenMarker, Modifier: ModNone, Line: l.line, Column: l.column}
	start := l.position
	l.readChar() // '%'

	n := 0
	for i := 0; i < 3 && isDigit(l.ch); i++ {
		n = n*10 + int(l.ch-'0')
		l.readChar()
	}
	tok.Ordinal = n

	if isModifier(l.ch) {
		tok.Modifier = Modifier(l.ch)
		l.readChar()
	}

	if l.ch == ':' && isNameChar(l.peekChar()) {
		l.readChar()
		pos := l.position
		for isNameChar(l.ch) {
			l.readChar()
		}
		tok.Name = l.input[pos:l.position]
		if l.ch == ':' {
			l.readChar()
		}
	}
	tok.Literal = l.input[start:l.position]
	return tok
}

func isNameChar(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || isDigit(ch)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
