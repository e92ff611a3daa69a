package result

import (
	"iter"

	"github.com/carlosnayan/sqlpp/internal/errors"
	"github.com/carlosnayan/sqlpp/value"
)

// Result is a fully materialised result set.
type Result struct {
	fields Fields
	names  *FieldNames
	rows   []Row
	valid  bool
}

// New takes ownership of rows; every row must have one value per field.
func New(fields Fields, rows [][]value.Adapter) (*Result, error) {
	names := NewFieldNames(fields)
	res := &Result{fields: fields, names: names, rows: make([]Row, 0, len(rows)), valid: true}
	for _, vals := range rows {
		row, err := NewRow(vals, names, fields)
		if err != nil {
			return nil, err
		}
		res.rows = append(res.rows, row)
	}
	return res, nil
}

// Failed is the invalid Result handed out in sentinel mode.
func Failed() *Result { return &Result{} }

func (r *Result) Valid() bool { return r != nil && r.valid }

func (r *Result) NumRows() int {
	if r == nil {
		return 0
	}
	return len(r.rows)
}

func (r *Result) NumFields() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// Row returns row i in O(1).
func (r *Result) Row(i int) (Row, error) {
	if !r.Valid() {
		return Row{}, errors.ErrObjectNotInitialized
	}
	if i < 0 || i >= len(r.rows) {
		return Row{}, errors.New(errors.ErrBadIndex, "row %d of %d", i, len(r.rows))
	}
	return r.rows[i], nil
}

// Rows iterates over the rows with their index.
func (r *Result) Rows() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		if r == nil {
			return
		}
		for i, row := range r.rows {
			if !yield(i, row) {
				return
			}
		}
	}
}

func (r *Result) Fields() Fields {
	if r == nil {
		return nil
	}
	return r.fields
}

func (r *Result) FieldNames() *FieldNames {
	if r == nil {
		return nil
	}
	return r.names
}

// FieldType returns the SQL type of column i.
func (r *Result) FieldType(i int) (value.Type, error) {
	if i < 0 || i >= r.NumFields() {
		return value.TypeUnknown, errors.New(errors.ErrBadIndex, "field %d of %d", i, r.NumFields())
	}
	return r.fields[i].Type, nil
}
