package parser

import (
	"fmt"
	"strings"

	"github.com/carlosnayan/sqlpp/internal/errors"
)

// Parser builds a Template from lexer tokens.
type Parser struct {
	lexer    *Lexer
	curToken Token
}

func NewParser(lexer *Lexer) *Parser {
	p := &Parser{lexer: lexer}
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.lexer.NextToken()
}

// ParseTemplate consumes the whole input.
func (p *Parser) ParseTemplate() *Template {
	t := &Template{Source: p.lexer.input, ordinals: map[string]int{}}
	var text strings.Builder
	for p.curToken.Type != TokenEOF {
		switch p.curToken.Type {
		case TokenText:
			text.WriteString(p.curToken.Literal)
		case TokenMarker:
			m := &Marker{
				Ordinal:  p.curToken.Ordinal,
				Modifier: p.curToken.Modifier,
				Name:     p.curToken.Name,
				Line:     p.curToken.Line,
				Column:   p.curToken.Column,
			}
			t.Segments = append(t.Segments, Segment{Text: text.String(), Marker: m})
			text.Reset()
			p.bind(t, m)
		}
		p.nextToken()
	}
	t.Segments = append(t.Segments, Segment{Text: text.String()})
	return t
}

// bind grows the parameter list to cover m and records its name. A later
// name for the same ordinal replaces an earlier one; Validate reports it.
func (p *Parser) bind(t *Template, m *Marker) {
	for len(t.names) <= m.Ordinal {
		t.names = append(t.names, "")
	}
	if m.Name == "" {
		return
	}
	if prev := t.names[m.Ordinal]; prev != "" && prev != m.Name {
		delete(t.ordinals, prev)
	}
	t.names[m.Ordinal] = m.Name
	t.ordinals[m.Name] = m.Ordinal
}

// Parse parses and validates a template.
func Parse(input string) (*Template, error) {
	p := NewParser(NewLexer(input))
	t := p.ParseTemplate()
	if problems := Validate(t); len(problems) > 0 {
		return t, errors.New(errors.ErrBadTemplate, "%s", formatErrors(problems))
	}
	return t, nil
}

func formatErrors(problems []string) string {
	if len(problems) == 1 {
		return problems[0]
	}
	var b strings.Builder
	for i, pr := range problems {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, pr)
	}
	return b.String()
}
