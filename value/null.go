package value

import (
	"cmp"
	"database/sql/driver"
	"fmt"

	"github.com/carlosnayan/sqlpp/internal/errors"
)

// Null wraps a T that may be SQL NULL.
//
// Comparisons against a null are never guessed: NullEqual reports false and
// NullCompare fails with ErrNullValue.
type Null[T any] struct {
	V     T
	Valid bool
}

func NullOf[T any](v T) Null[T] { return Null[T]{V: v, Valid: true} }

// NullValue returns an explicit null of type T.
func NullValue[T any]() Null[T] { return Null[T]{} }

func (n Null[T]) IsNull() bool { return !n.Valid }

// Get returns the wrapped value, or ErrNullValue.
func (n Null[T]) Get() (T, error) {
	if !n.Valid {
		var zero T
		return zero, errors.New(errors.ErrNullValue, "%T", zero)
	}
	return n.V, nil
}

func (n Null[T]) Or(def T) T {
	if !n.Valid {
		return def
	}
	return n.V
}

// Adapter renders n the way a plain T would be rendered, or as NULL.
func (n Null[T]) Adapter() (Adapter, error) {
	if !n.Valid {
		return NullAdapter(), nil
	}
	return New(n.V)
}

func (n Null[T]) String() string {
	if !n.Valid {
		return nullText
	}
	return fmt.Sprint(n.V)
}

// Scan implements sql.Scanner.
func (n *Null[T]) Scan(src any) error {
	if src == nil {
		var zero T
		n.V, n.Valid = zero, false
		return nil
	}
	a := FromColumn(src, TypeUnknown)
	if err := convertInto(a.String(), &n.V); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Value implements driver.Valuer.
func (n Null[T]) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(n.V)
}

// NullEqual is false if either side is null.
func NullEqual[T comparable](a, b Null[T]) bool {
	return a.Valid && b.Valid && a.V == b.V
}

// NullCompare orders two non-null values and fails if either is null.
func NullCompare[T cmp.Ordered](a, b Null[T]) (int, error) {
	if !a.Valid || !b.Valid {
		return 0, errors.New(errors.ErrNullValue, "comparison with NULL")
	}
	return cmp.Compare(a.V, b.V), nil
}
