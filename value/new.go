package value

import (
	"fmt"
	"strconv"
	"time"

	"github.com/carlosnayan/sqlpp/internal/errors"
)

func FromString(s string) Adapter { return newAdapter([]byte(s), TypeString) }

// FromBytes copies b.
func FromBytes(b []byte) Adapter {
	return newAdapter(append([]byte(nil), b...), TypeBlob)
}

func FromInt64(v int64) Adapter {
	return newAdapter(strconv.AppendInt(nil, v, 10), TypeInt64)
}

func FromUint64(v uint64) Adapter {
	return newAdapter(strconv.AppendUint(nil, v, 10), TypeUint64)
}

func fromInt(v int64, t Type) Adapter {
	return newAdapter(strconv.AppendInt(nil, v, 10), t)
}

func fromUint(v uint64, t Type) Adapter {
	return newAdapter(strconv.AppendUint(nil, v, 10), t)
}

// FromFloat64 renders with the shortest representation that round-trips.
func FromFloat64(v float64) Adapter {
	return newAdapter(strconv.AppendFloat(nil, v, 'g', -1, 64), TypeFloat64)
}

func FromFloat32(v float32) Adapter {
	return newAdapter(strconv.AppendFloat(nil, float64(v), 'g', -1, 32), TypeFloat32)
}

func FromBool(v bool) Adapter {
	if v {
		return newAdapter([]byte("1"), TypeBool)
	}
	return newAdapter([]byte("0"), TypeBool)
}

func FromDate(d Date) Adapter { return newAdapter([]byte(d.String()), TypeDate) }

func FromTime(t Time) Adapter { return newAdapter([]byte(t.String()), TypeTime) }

func FromDateTime(dt DateTime) Adapter {
	return newAdapter([]byte(dt.String()), TypeDateTime)
}

// NullAdapter returns a NULL value. Its type is TypeNull whatever the
// wrapped type would have been.
func NullAdapter() Adapter {
	return Adapter{buf: newBuffer([]byte(nullText), TypeNull, true, false)}
}

// ColumnValue builds an adapter for text received from the server. The data
// is copied.
func ColumnValue(data []byte, t Type, null bool) Adapter {
	if null {
		return Adapter{buf: newBuffer([]byte(nullText), t, true, true)}
	}
	return Adapter{buf: newBuffer(append([]byte(nil), data...), t, false, true)}
}

// adapterSource is implemented by Null[T].
type adapterSource interface {
	Adapter() (Adapter, error)
}

// New adapts any value of the supported set.
func New(v any) (Adapter, error) {
	switch x := v.(type) {
	case nil:
		return NullAdapter(), nil
	case Adapter:
		return x.Share(), nil
	case *Adapter:
		return x.Share(), nil
	case string:
		return FromString(x), nil
	case []byte:
		return FromBytes(x), nil
	case int:
		return fromInt(int64(x), TypeInt64), nil
	case int8:
		return fromInt(int64(x), TypeInt8), nil
	case int16:
		return fromInt(int64(x), TypeInt16), nil
	case int32:
		return fromInt(int64(x), TypeInt32), nil
	case int64:
		return FromInt64(x), nil
	case uint:
		return fromUint(uint64(x), TypeUint64), nil
	case uint8:
		return fromUint(uint64(x), TypeUint8), nil
	case uint16:
		return fromUint(uint64(x), TypeUint16), nil
	case uint32:
		return fromUint(uint64(x), TypeUint32), nil
	case uint64:
		return FromUint64(x), nil
	case float32:
		return FromFloat32(x), nil
	case float64:
		return FromFloat64(x), nil
	case bool:
		return FromBool(x), nil
	case Date:
		return FromDate(x), nil
	case Time:
		return FromTime(x), nil
	case DateTime:
		return FromDateTime(x), nil
	case time.Time:
		return FromDateTime(DateTimeOf(x)), nil
	case time.Duration:
		return FromTime(TimeOf(x)), nil
	case adapterSource:
		return x.Adapter()
	}
	return Adapter{}, errors.New(errors.ErrBadConversion, "cannot adapt %T", v)
}

// MustNew is New for values known to be supported.
func MustNew(v any) Adapter {
	a, err := New(v)
	if err != nil {
		panic(err)
	}
	return a
}

// FromColumn adapts a value scanned from database/sql into column data of
// type t. time.Time values are rendered according to t.
func FromColumn(src any, t Type) Adapter {
	switch x := src.(type) {
	case nil:
		return ColumnValue(nil, t, true)
	case []byte:
		return ColumnValue(x, t, false)
	case string:
		return ColumnValue([]byte(x), t, false)
	case int64:
		return ColumnValue(strconv.AppendInt(nil, x, 10), t, false)
	case float64:
		return ColumnValue(strconv.AppendFloat(nil, x, 'g', -1, 64), t, false)
	case bool:
		if x {
			return ColumnValue([]byte("1"), t, false)
		}
		return ColumnValue([]byte("0"), t, false)
	case time.Time:
		return ColumnValue([]byte(formatTime(x, t)), t, false)
	}
	return ColumnValue([]byte(fmt.Sprint(src)), t, false)
}

func formatTime(x time.Time, t Type) string {
	switch t.Base() {
	case TypeDate:
		return x.Format("2006-01-02")
	case TypeTime:
		return x.Format("15:04:05")
	}
	return x.Format("2006-01-02 15:04:05")
}
