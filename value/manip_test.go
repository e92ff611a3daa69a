package value

import (
	"strings"
	"testing"
)

type testSink struct {
	strings.Builder
}

func (s *testSink) EscapeString(str string) string { return EscapeMySQL(str) }

func TestImplicitQuoting(t *testing.T) {
	column := ColumnValue([]byte("Nürnberger Brats"), TypeString, false)
	plain := FromString("Nürnberger Brats")
	number := ColumnValue([]byte("42"), TypeInt32, false)

	tests := []struct {
		name  string
		a     Adapter
		m     Manip
		query bool
		want  string
	}{
		{"column data in query", column, Implicit, true, "'Nürnberger Brats'"},
		{"column data in text sink", column, Implicit, false, "Nürnberger Brats"},
		{"plain string in query", plain, Implicit, true, "Nürnberger Brats"},
		{"plain string in text sink", plain, Implicit, false, "Nürnberger Brats"},
		{"explicit quote in query", plain, Quote, true, "'Nürnberger Brats'"},
		{"explicit quote in text sink", plain, Quote, false, "'Nürnberger Brats'"},
		{"explicit quote on column in text sink", column, Quote, false, "'Nürnberger Brats'"},
		{"numeric column never quoted", number, Implicit, true, "42"},
		{"numeric with quote", FromInt64(42), Quote, true, "42"},
		{"numeric with always quote", FromInt64(42), AlwaysQuote, true, "'42'"},
		{"do nothing on column", column, DoNothing, true, "Nürnberger Brats"},
		{"null stays bare", NullAdapter(), AlwaysQuote, true, "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			if tt.query {
				sink := &testSink{}
				if err := WriteQuery(sink, tt.m, tt.a); err != nil {
					t.Fatalf("WriteQuery() error = %v", err)
				}
				got = sink.String()
			} else {
				var b strings.Builder
				var err error
				if tt.m == Implicit {
					err = Write(&b, tt.a)
				} else {
					err = WriteManip(&b, tt.m, tt.a)
				}
				if err != nil {
					t.Fatalf("write error = %v", err)
				}
				got = b.String()
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscaping(t *testing.T) {
	a := FromString("it's a \"test\"\n\\")
	tests := []struct {
		m    Manip
		want string
	}{
		{Quote, `'it\'s a \"test\"\n\\'`},
		{QuoteOnly, "'it's a \"test\"\n\\'"},
		{AlwaysQuoteOnly, "'it's a \"test\"\n\\'"},
		{Escape, `it\'s a \"test\"\n\\`},
		{DoNothing, "it's a \"test\"\n\\"},
	}
	for _, tt := range tests {
		if got := Render(MySQLEscaper, tt.m, a, true); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.m, got, tt.want)
		}
	}

	if got := Render(StandardEscaper, Quote, FromString("O'Brien"), true); got != "'O''Brien'" {
		t.Errorf("standard escaping = %q", got)
	}
}

func TestRenderedIsNotReprocessed(t *testing.T) {
	r := Rendered(MySQLEscaper, Quote, FromString("a'b"))
	if !r.Processed() || r.String() != `'a\'b'` {
		t.Fatalf("Rendered() = %q processed=%v", r, r.Processed())
	}
	if got := Render(MySQLEscaper, AlwaysQuote, r, true); got != `'a\'b'` {
		t.Errorf("processed value re-escaped: %q", got)
	}
}
