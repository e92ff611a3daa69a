package value

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"github.com/carlosnayan/sqlpp/internal/errors"
)

// ConversionError is returned when field text cannot be read as the requested
// type, or when a NULL is read into a non-nullable one.
type ConversionError = errors.ConversionError

// Scalar is the closed set of Go types an Adapter converts into.
type Scalar interface {
	int | int8 | int16 | int32 | int64 |
		uint | uint8 | uint16 | uint32 | uint64 |
		float32 | float64 | bool | string | []byte |
		Date | DateTime | Time | time.Time | time.Duration
}

// As converts a into T. A NULL fails with a *ConversionError matching
// errors.Is(err, ErrNullValue); use AsNull to accept NULLs.
func As[T Scalar](a Adapter) (T, error) {
	var out T
	if a.IsNull() {
		return out, errors.NewNullConversionError(fmt.Sprintf("%T", out), int(unsafe.Sizeof(out)))
	}
	err := convertInto(a.String(), &out)
	return out, err
}

// AsNull converts a into Null[T]; a NULL yields an invalid Null without error.
func AsNull[T Scalar](a Adapter) (Null[T], error) {
	if a.IsNull() {
		return Null[T]{}, nil
	}
	v, err := As[T](a)
	if err != nil {
		return Null[T]{}, err
	}
	return Null[T]{V: v, Valid: true}, nil
}

func (a Adapter) Int64() (int64, error)     { return As[int64](a) }
func (a Adapter) Uint64() (uint64, error)   { return As[uint64](a) }
func (a Adapter) Float64() (float64, error) { return As[float64](a) }
func (a Adapter) Bool() (bool, error)       { return As[bool](a) }
func (a Adapter) Date() (Date, error)       { return As[Date](a) }
func (a Adapter) DateTime() (DateTime, error) {
	return As[DateTime](a)
}
func (a Adapter) Time() (Time, error) { return As[Time](a) }

// Text is the checked form of String: it fails on NULL.
func (a Adapter) Text() (string, error) { return As[string](a) }

// Bytes returns a copy of the raw text.
func (a Adapter) Bytes() []byte {
	return append([]byte(nil), a.data()...)
}

// Scan stores a into dst: a pointer to a Scalar type, or an sql.Scanner
// such as *Null[T].
func Scan(a Adapter, dst any) error {
	if s, ok := dst.(sql.Scanner); ok {
		if a.IsNull() {
			return s.Scan(nil)
		}
		return s.Scan(a.Bytes())
	}
	if a.IsNull() {
		t := reflect.TypeOf(dst)
		size := 0
		if t != nil && t.Kind() == reflect.Pointer {
			t = t.Elem()
			size = int(t.Size())
		}
		return errors.NewNullConversionError(fmt.Sprint(t), size)
	}
	return convertInto(a.String(), dst)
}

func convertInto(s string, dst any) error {
	switch p := dst.(type) {
	case *string:
		*p = s
		return nil
	case *[]byte:
		*p = []byte(s)
		return nil
	case *int:
		v, err := parseInt(s, strconv.IntSize, "int")
		*p = int(v)
		return err
	case *int8:
		v, err := parseInt(s, 8, "int8")
		*p = int8(v)
		return err
	case *int16:
		v, err := parseInt(s, 16, "int16")
		*p = int16(v)
		return err
	case *int32:
		v, err := parseInt(s, 32, "int32")
		*p = int32(v)
		return err
	case *int64:
		v, err := parseInt(s, 64, "int64")
		*p = v
		return err
	case *uint:
		v, err := parseUint(s, strconv.IntSize, "uint")
		*p = uint(v)
		return err
	case *uint8:
		v, err := parseUint(s, 8, "uint8")
		*p = uint8(v)
		return err
	case *uint16:
		v, err := parseUint(s, 16, "uint16")
		*p = uint16(v)
		return err
	case *uint32:
		v, err := parseUint(s, 32, "uint32")
		*p = uint32(v)
		return err
	case *uint64:
		v, err := parseUint(s, 64, "uint64")
		*p = v
		return err
	case *float32:
		v, err := parseFloat(s, 32, "float32")
		*p = float32(v)
		return err
	case *float64:
		v, err := parseFloat(s, 64, "float64")
		*p = v
		return err
	case *bool:
		v, err := parseBool(s)
		*p = v
		return err
	case *Date:
		v, err := ParseDate(s)
		if err != nil {
			return errors.NewConversionError(s, "value.Date", int(unsafe.Sizeof(v)), err)
		}
		*p = v
		return nil
	case *Time:
		v, err := ParseTime(s)
		if err != nil {
			return errors.NewConversionError(s, "value.Time", int(unsafe.Sizeof(v)), err)
		}
		*p = v
		return nil
	case *DateTime:
		v, err := ParseDateTime(s)
		if err != nil {
			return errors.NewConversionError(s, "value.DateTime", int(unsafe.Sizeof(v)), err)
		}
		*p = v
		return nil
	case *time.Time:
		v, err := ParseDateTime(s)
		if err != nil {
			return errors.NewConversionError(s, "time.Time", int(unsafe.Sizeof(*p)), err)
		}
		*p = v.ToTime()
		return nil
	case *time.Duration:
		v, err := ParseTime(s)
		if err != nil {
			return errors.NewConversionError(s, "time.Duration", 8, err)
		}
		*p = v.Duration()
		return nil
	}
	return errors.New(errors.ErrBadConversion, "unsupported target %T", dst)
}

func parseInt(s string, bits int, name string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	n, ok := scanNumber(s)
	if !ok {
		return 0, errors.NewConversionError(s, name, bits/8, nil)
	}
	lit, ok := n.integral()
	if !ok {
		return 0, errors.NewConversionError(s, name, bits/8, nil)
	}
	v, err := strconv.ParseInt(lit, 10, bits)
	if err != nil {
		return 0, errors.NewConversionError(s, name, bits/8, err)
	}
	return v, nil
}

func parseUint(s string, bits int, name string) (uint64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	n, ok := scanNumber(s)
	if !ok || n.neg {
		return 0, errors.NewConversionError(s, name, bits/8, nil)
	}
	lit, ok := n.integral()
	if !ok {
		return 0, errors.NewConversionError(s, name, bits/8, nil)
	}
	v, err := strconv.ParseUint(lit, 10, bits)
	if err != nil {
		return 0, errors.NewConversionError(s, name, bits/8, err)
	}
	return v, nil
}

func parseFloat(s string, bits int, name string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	n, ok := scanNumber(s)
	if !ok {
		return 0, errors.NewConversionError(s, name, bits/8, nil)
	}
	v, err := strconv.ParseFloat(n.float(), bits)
	if err != nil {
		return 0, errors.NewConversionError(s, name, bits/8, err)
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return false, nil
	}
	if n, ok := scanNumber(t); ok {
		v, err := strconv.ParseFloat(n.float(), 64)
		if err != nil {
			return false, errors.NewConversionError(s, "bool", 1, err)
		}
		return v != 0, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(t))
	if err != nil {
		return false, errors.NewConversionError(s, "bool", 1, err)
	}
	return v, nil
}
