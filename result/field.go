package result

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/carlosnayan/sqlpp/internal/errors"
	"github.com/carlosnayan/sqlpp/value"
)

// Field describes one column of a result set.
type Field struct {
	// Name is the column name exactly as the server reported it.
	Name         string
	DatabaseType string
	Type         value.Type
	Nullable     bool
	// Length is the declared length, or 0 when the driver does not report it.
	Length int64
}

type Fields []Field

// FieldNames maps lowercased column names to positions. It is built once per
// result set and shared by every Row of that set.
type FieldNames struct {
	names []string
	index map[string]int
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func NewFieldNames(fields Fields) *FieldNames {
	fn := &FieldNames{
		names: make([]string, len(fields)),
		index: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		name := lower(f.Name)
		fn.names[i] = name
		// With duplicate column names the first one wins.
		if _, ok := fn.index[name]; !ok {
			fn.index[name] = i
		}
	}
	return fn
}

func (fn *FieldNames) Len() int {
	if fn == nil {
		return 0
	}
	return len(fn.names)
}

// Name returns the lowercased name of column i.
func (fn *FieldNames) Name(i int) (string, error) {
	if i < 0 || i >= fn.Len() {
		return "", errors.New(errors.ErrBadIndex, "field %d of %d", i, fn.Len())
	}
	return fn.names[i], nil
}

// Index looks name up after lowercasing it.
func (fn *FieldNames) Index(name string) (int, error) {
	if fn != nil {
		if i, ok := fn.index[lower(name)]; ok {
			return i, nil
		}
	}
	return -1, errors.New(errors.ErrBadFieldName, "%q", name)
}

func (fn *FieldNames) Names() []string {
	if fn == nil {
		return nil
	}
	return append([]string(nil), fn.names...)
}

// ExecResult is what a statement that returns no rows reports back.
type ExecResult struct {
	RowsAffected int64
	InsertID     int64
	Info         string
	ok           bool
}

func NewExecResult(rowsAffected, insertID int64, info string) ExecResult {
	return ExecResult{RowsAffected: rowsAffected, InsertID: insertID, Info: info, ok: true}
}

// Success is false for the zero ExecResult returned by failed calls in
// sentinel mode.
func (e ExecResult) Success() bool { return e.ok }
