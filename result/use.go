package result

import (
	"io"
	"iter"
	"sync/atomic"

	"github.com/carlosnayan/sqlpp/internal/errors"
	"github.com/carlosnayan/sqlpp/value"
)

// Cursor is the driver side of a streamed result. FetchRow returns io.EOF
// once the set is exhausted; Close must leave the connection ready for the
// next statement.
type Cursor interface {
	FetchRow() ([]value.Adapter, error)
	Close() error
}

// UseResult streams rows from the server one at a time. Only the most
// recently fetched Row is valid. The connection stays busy until the
// result is exhausted or closed.
type UseResult struct {
	fields  Fields
	names   *FieldNames
	cur     Cursor
	mode    errors.Mode
	seq     atomic.Uint64
	done    bool
	closed  bool
	err     error
	onClose func()
}

// NewUseResult wraps cur. onClose runs exactly once, when the result is
// exhausted, fails or is closed.
func NewUseResult(fields Fields, cur Cursor, mode errors.Mode, onClose func()) *UseResult {
	return &UseResult{
		fields:  fields,
		names:   NewFieldNames(fields),
		cur:     cur,
		mode:    mode,
		onClose: onClose,
	}
}

// FailedUse is the invalid UseResult handed out in sentinel mode.
func FailedUse(mode errors.Mode) *UseResult {
	return &UseResult{mode: mode, done: true, closed: true}
}

func (u *UseResult) Valid() bool { return u != nil && u.cur != nil }

// FetchRow advances the cursor. At the end of the set it returns
// ErrEndOfResults, or an invalid Row and a nil error in sentinel mode.
func (u *UseResult) FetchRow() (Row, error) {
	if u == nil || u.cur == nil {
		if u != nil && u.mode == errors.Sentinel {
			return Row{}, nil
		}
		return Row{}, errors.ErrObjectNotInitialized
	}
	u.seq.Add(1)
	if u.done {
		return Row{}, u.mode.Filter(errors.ErrEndOfResults)
	}

	vals, err := u.cur.FetchRow()
	if err == io.EOF {
		u.done = true
		if cerr := u.Close(); cerr != nil {
			u.err = cerr
			return Row{}, u.mode.Filter(cerr)
		}
		return Row{}, u.mode.Filter(errors.ErrEndOfResults)
	}
	if err != nil {
		u.done = true
		u.err = err
		_ = u.Close()
		return Row{}, u.mode.Filter(err)
	}

	row, err := NewRow(vals, u.names, u.fields)
	if err != nil {
		u.done = true
		u.err = err
		_ = u.Close()
		return Row{}, u.mode.Filter(err)
	}
	row.cursor = &u.seq
	row.seq = u.seq.Load()
	return row, nil
}

// All iterates until the end of the set. A failure is yielded once with an
// invalid Row; reaching the end is not reported as an error.
func (u *UseResult) All() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for {
			row, err := u.FetchRow()
			if err != nil {
				if !errors.IsEndOfResults(err) {
					yield(Row{}, err)
				}
				return
			}
			if !row.Valid() {
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// Close drains or frees the remaining rows and releases the connection.
func (u *UseResult) Close() error {
	if u == nil || u.closed {
		return nil
	}
	u.closed = true
	u.done = true
	u.seq.Add(1)
	var err error
	if u.cur != nil {
		err = u.cur.Close()
	}
	if u.onClose != nil {
		u.onClose()
	}
	return err
}

// Err returns the failure that ended the stream, if any.
func (u *UseResult) Err() error {
	if u == nil {
		return nil
	}
	return u.err
}

func (u *UseResult) Fields() Fields {
	if u == nil {
		return nil
	}
	return u.fields
}

func (u *UseResult) FieldNames() *FieldNames {
	if u == nil {
		return nil
	}
	return u.names
}
