package parser

import (
	"fmt"

	"github.com/carlosnayan/sqlpp/internal/limits"
)

// Validator checks a parsed template for bindings that cannot be honoured.
type Validator struct {
	template *Template
	errors   []string
}

// Validate returns one message per problem, nil for a usable template.
func Validate(t *Template) []string {
	v := &Validator{template: t}
	v.validateSize()
	v.validateNames()
	return v.errors
}

func (v *Validator) errorf(m *Marker, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if m != nil {
		msg = fmt.Sprintf("line %d, column %d: %s", m.Line, m.Column, msg)
	}
	v.errors = append(v.errors, msg)
}

func (v *Validator) validateSize() {
	if len(v.template.Source) > limits.MaxRawQuerySize {
		v.errorf(nil, "template is %d bytes, limit %d", len(v.template.Source), limits.MaxRawQuerySize)
	}
	if n := v.template.ParamCount(); n > limits.MaxTemplateParams {
		v.errorf(nil, "template declares %d parameters, limit %d", n, limits.MaxTemplateParams)
	}
}

// validateNames rejects a name bound to two ordinals and an ordinal given
// two names. Repeating a marker with the same name is fine.
func (v *Validator) validateNames() {
	byName := map[string]*Marker{}
	byOrdinal := map[int]*Marker{}
	for _, s := range v.template.Segments {
		m := s.Marker
		if m == nil || m.Name == "" {
			continue
		}
		if prev, ok := byName[m.Name]; ok && prev.Ordinal != m.Ordinal {
			v.errorf(m, "name %q bound to %%%d and %%%d", m.Name, prev.Ordinal, m.Ordinal)
		}
		if prev, ok := byOrdinal[m.Ordinal]; ok && prev.Name != m.Name {
			v.errorf(m, "%%%d named both %q and %q", m.Ordinal, prev.Name, m.Name)
		}
		byName[m.Name] = m
		byOrdinal[m.Ordinal] = m
	}
}
