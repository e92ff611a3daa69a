package value

import (
	"bytes"
	"sync/atomic"
)

// nullText is what a NULL buffer holds, so writing one into SQL needs no
// special casing downstream.
const nullText = "NULL"

// buffer is the shared, immutable payload behind one or more Adapters.
type buffer struct {
	data   []byte
	typ    Type
	null   bool
	column bool
	refs   atomic.Int32
}

func newBuffer(data []byte, typ Type, null, column bool) *buffer {
	b := &buffer{data: data, typ: typ, null: null, column: column}
	b.refs.Store(1)
	return b
}

// Adapter is a typed textual rendering of a Go value, ready to be spliced
// into SQL or converted back into a native type.
//
// The bytes are never mutated after construction. Share hands out another
// reference to the same buffer; Assign and Release detach. The zero Adapter
// is uninitialised and behaves like an empty string.
type Adapter struct {
	buf       *buffer
	processed bool
}

func newAdapter(data []byte, typ Type) Adapter {
	return Adapter{buf: newBuffer(data, typ, false, false)}
}

// Initialized reports whether a holds a buffer.
func (a Adapter) Initialized() bool { return a.buf != nil }

func (a Adapter) Type() Type {
	if a.buf == nil {
		return TypeString
	}
	return a.buf.typ
}

func (a Adapter) IsNull() bool { return a.buf != nil && a.buf.null }

// IsColumnData reports whether the value came from a result row.
func (a Adapter) IsColumnData() bool { return a.buf != nil && a.buf.column }

func (a Adapter) QuoteQ() bool { return a.Type().QuoteQ() }

func (a Adapter) EscapeQ() bool { return a.Type().EscapeQ() }

func (a Adapter) Len() int {
	if a.buf == nil {
		return 0
	}
	return len(a.buf.data)
}

func (a Adapter) data() []byte {
	if a.buf == nil {
		return nil
	}
	return a.buf.data
}

// String returns the raw text. NULL renders as "NULL".
func (a Adapter) String() string { return string(a.data()) }

// Refs returns the number of adapters attached to the underlying buffer.
func (a Adapter) Refs() int {
	if a.buf == nil {
		return 0
	}
	return int(a.buf.refs.Load())
}

// Share returns a new reference to the same buffer.
func (a Adapter) Share() Adapter {
	if a.buf != nil {
		a.buf.refs.Add(1)
	}
	return a
}

// Release detaches a from its buffer. The bytes are reclaimed once the last
// attached adapter lets go.
func (a *Adapter) Release() {
	if a.buf != nil {
		a.buf.refs.Add(-1)
	}
	a.buf = nil
	a.processed = false
}

// Assign drops the current buffer, attaches to other's and clears the
// processed flag.
func (a *Adapter) Assign(other Adapter) {
	if a.buf == other.buf {
		a.processed = false
		return
	}
	shared := other.Share()
	a.Release()
	a.buf = shared.buf
}

func (a Adapter) Processed() bool { return a.processed }

// SetProcessed marks the text as already quoted and escaped.
func (a *Adapter) SetProcessed(p bool) { a.processed = p }

// Compare orders adapters byte-wise. An uninitialised adapter sorts before
// any initialised one and equals another uninitialised one.
func (a Adapter) Compare(b Adapter) int {
	switch {
	case a.buf == nil && b.buf == nil:
		return 0
	case a.buf == nil:
		return -1
	case b.buf == nil:
		return 1
	}
	return bytes.Compare(a.buf.data, b.buf.data)
}

// Equal compares by content. NULL never equals the text "NULL".
func (a Adapter) Equal(b Adapter) bool {
	return a.Compare(b) == 0 && a.IsNull() == b.IsNull()
}

// Key is a comparable form of an Adapter, for map and set keys.
type Key struct {
	Init bool
	Null bool
	Text string
}

func (a Adapter) Key() Key {
	return Key{Init: a.buf != nil, Null: a.IsNull(), Text: a.String()}
}
