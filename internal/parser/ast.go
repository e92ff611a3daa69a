package parser

import (
	"strconv"
	"strings"
)

// Marker is a substitution point in a template.
type Marker struct {
	Ordinal  int
	Modifier Modifier
	Name     string
	Line     int
	Column   int
}

func (m Marker) String() string {
	s := "%" + strconv.Itoa(m.Ordinal) + m.Modifier.String()
	if m.Name != "" {
		s += ":" + m.Name
	}
	return s
}

// Segment is literal text followed by an optional marker. Only the last
// segment of a template has no marker.
type Segment struct {
	Text   string
	Marker *Marker
}

// Template is a parsed query template. It is immutable once built; by-name
// lookups go through the index built at parse time.
type Template struct {
	Source   string
	Segments []Segment
	names    []string
	ordinals map[string]int
}

// ParamCount is one more than the highest ordinal used.
func (t *Template) ParamCount() int { return len(t.names) }

// Name returns the name bound to ordinal i, or "".
func (t *Template) Name(i int) string {
	if i < 0 || i >= len(t.names) {
		return ""
	}
	return t.names[i]
}

// Names returns the name of every parameter by ordinal.
func (t *Template) Names() []string { return append([]string(nil), t.names...) }

// Ordinal returns the ordinal bound to name.
func (t *Template) Ordinal(name string) (int, bool) {
	i, ok := t.ordinals[name]
	return i, ok
}

// Markers returns the markers in order of appearance.
func (t *Template) Markers() []Marker {
	var out []Marker
	for _, s := range t.Segments {
		if s.Marker != nil {
			out = append(out, *s.Marker)
		}
	}
	return out
}

// Render walks the segments once, splicing in fill's text at each marker.
// The template is not modified.
func (t *Template) Render(fill func(m Marker) (string, error)) (string, error) {
	var b strings.Builder
	b.Grow(len(t.Source))
	for _, s := range t.Segments {
		b.WriteString(s.Text)
		if s.Marker == nil {
			continue
		}
		text, err := fill(*s.Marker)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}
	return b.String(), nil
}
