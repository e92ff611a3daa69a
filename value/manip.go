package value

import (
	"io"
	"strings"
)

// Manip controls quoting and escaping when a value is written into SQL text.
type Manip int

const (
	// Implicit quotes and escapes column data written into a query, and
	// nothing else.
	Implicit Manip = iota
	DoNothing
	// Quote quotes and escapes according to the value's type.
	Quote
	// QuoteOnly quotes according to the value's type without escaping.
	QuoteOnly
	AlwaysQuote
	AlwaysQuoteOnly
	// Escape escapes according to the value's type and never quotes.
	Escape
)

var manipNames = [...]string{"implicit", "do_nothing", "quote", "quote_only", "always_quote", "always_quote_only", "escape"}

func (m Manip) String() string {
	if m < 0 || int(m) >= len(manipNames) {
		return "unknown"
	}
	return manipNames[m]
}

// Escaper escapes a string for inclusion between single quotes.
type Escaper interface {
	EscapeString(s string) string
}

// QuerySink is the destination a query builder exposes to value writers.
// Writing through it is what enables implicit quoting of column data.
type QuerySink interface {
	io.Writer
	Escaper
}

type escaperFunc func(string) string

func (f escaperFunc) EscapeString(s string) string { return f(s) }

// MySQLEscaper escapes the way mysql_real_escape_string does.
var MySQLEscaper Escaper = escaperFunc(EscapeMySQL)

// StandardEscaper doubles single quotes, as standard SQL expects.
var StandardEscaper Escaper = escaperFunc(func(s string) string {
	return strings.ReplaceAll(s, "'", "''")
})

var mysqlReplacer = strings.NewReplacer(
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	`\`, `\\`,
	"'", `\'`,
	`"`, `\"`,
	"\x1a", `\Z`,
)

func EscapeMySQL(s string) string { return mysqlReplacer.Replace(s) }

// decide returns whether to quote and escape a for manipulator m.
func (m Manip) decide(a Adapter, query bool) (quote, escape bool) {
	if a.IsNull() {
		return false, false
	}
	switch m {
	case Implicit:
		if query && a.IsColumnData() {
			return a.QuoteQ(), a.EscapeQ()
		}
	case Quote:
		return a.QuoteQ(), a.EscapeQ()
	case QuoteOnly:
		return a.QuoteQ(), false
	case AlwaysQuote:
		return true, true
	case AlwaysQuoteOnly:
		return true, false
	case Escape:
		return false, a.EscapeQ()
	}
	return false, false
}

// Render returns the SQL text for a under m. Processed adapters are emitted
// as they are.
func Render(esc Escaper, m Manip, a Adapter, query bool) string {
	if a.Processed() {
		return a.String()
	}
	quote, escape := m.decide(a, query)
	text := a.String()
	if escape {
		text = esc.EscapeString(text)
	}
	if quote {
		return "'" + text + "'"
	}
	return text
}

// Rendered returns a processed adapter holding a's SQL text under m.
func Rendered(esc Escaper, m Manip, a Adapter) Adapter {
	out := newAdapter([]byte(Render(esc, m, a, true)), a.Type())
	out.processed = true
	return out
}

// Write writes a to a plain text sink. Nothing is quoted implicitly.
func Write(w io.Writer, a Adapter) error {
	_, err := io.WriteString(w, Render(MySQLEscaper, Implicit, a, false))
	return err
}

// WriteManip writes a to a plain text sink under an explicit manipulator.
func WriteManip(w io.Writer, m Manip, a Adapter) error {
	_, err := io.WriteString(w, Render(MySQLEscaper, m, a, false))
	return err
}

// WriteQuery writes a into a query, using the sink's own escaping.
func WriteQuery(sink QuerySink, m Manip, a Adapter) error {
	_, err := io.WriteString(sink, Render(sink, m, a, true))
	return err
}
