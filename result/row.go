package result

import (
	"strings"
	"sync/atomic"

	"github.com/carlosnayan/sqlpp/internal/errors"
	"github.com/carlosnayan/sqlpp/value"
)

// Row is one record of a result set. Values stay as text until the caller
// asks for a concrete type.
//
// Rows from a Result live as long as the caller holds them. Rows from a
// UseResult stop being valid as soon as the next row is fetched.
type Row struct {
	values []value.Adapter
	names  *FieldNames
	fields Fields
	cursor *atomic.Uint64
	seq    uint64
}

// NewRow builds a row, failing unless there is exactly one value per field.
func NewRow(values []value.Adapter, names *FieldNames, fields Fields) (Row, error) {
	if len(values) != names.Len() {
		return Row{}, errors.New(errors.ErrObjectNotInitialized, "row has %d values for %d fields", len(values), names.Len())
	}
	if values == nil {
		values = []value.Adapter{}
	}
	return Row{values: values, names: names, fields: fields}, nil
}

func (r Row) check() error {
	if r.values == nil {
		return errors.ErrObjectNotInitialized
	}
	if r.cursor != nil && r.cursor.Load() != r.seq {
		return errors.ErrStaleRow
	}
	return nil
}

// Valid reports whether the row can be read.
func (r Row) Valid() bool { return r.check() == nil }

func (r Row) Len() int { return len(r.values) }

// At returns column i.
func (r Row) At(i int) (value.Adapter, error) {
	if err := r.check(); err != nil {
		return value.Adapter{}, err
	}
	if i < 0 || i >= len(r.values) {
		return value.Adapter{}, errors.New(errors.ErrBadIndex, "field %d of %d", i, len(r.values))
	}
	return r.values[i], nil
}

// MustAt is At for callers that have already checked the shape of the row.
func (r Row) MustAt(i int) value.Adapter {
	v, err := r.At(i)
	if err != nil {
		panic(err)
	}
	return v
}

// Field returns the column called name, compared case-insensitively.
func (r Row) Field(name string) (value.Adapter, error) {
	if err := r.check(); err != nil {
		return value.Adapter{}, err
	}
	i, err := r.names.Index(name)
	if err != nil {
		return value.Adapter{}, err
	}
	return r.values[i], nil
}

// Scan converts the leading columns into dest, in order.
func (r Row) Scan(dest ...any) error {
	if err := r.check(); err != nil {
		return err
	}
	if len(dest) > len(r.values) {
		return errors.New(errors.ErrBadIndex, "%d destinations for %d fields", len(dest), len(r.values))
	}
	for i, d := range dest {
		if err := value.Scan(r.values[i], d); err != nil {
			return err
		}
	}
	return nil
}

func (r Row) Values() []value.Adapter {
	return append([]value.Adapter(nil), r.values...)
}

func (r Row) FieldNames() *FieldNames { return r.names }

func (r Row) Fields() Fields { return r.fields }

// ValueList joins the values rendered under m, e.g. for an INSERT list.
func (r Row) ValueList(sep string, m value.Manip, esc value.Escaper) (string, error) {
	if err := r.check(); err != nil {
		return "", err
	}
	parts := make([]string, len(r.values))
	for i, v := range r.values {
		parts[i] = value.Render(esc, m, v, true)
	}
	return strings.Join(parts, sep), nil
}

// EqualList renders "name = value" pairs joined by sep, e.g. for a WHERE
// clause rebuilt from a fetched row.
func (r Row) EqualList(sep string, m value.Manip, esc value.Escaper) (string, error) {
	if err := r.check(); err != nil {
		return "", err
	}
	parts := make([]string, len(r.values))
	for i, v := range r.values {
		name, err := r.names.Name(i)
		if err != nil {
			return "", err
		}
		parts[i] = name + " = " + value.Render(esc, m, v, true)
	}
	return strings.Join(parts, sep), nil
}
