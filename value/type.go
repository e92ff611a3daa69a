package value

// Type tags the SQL-relevant kind of the value held by an Adapter.
type Type uint8

const nullableBit Type = 0x80

const (
	TypeUnknown Type = iota
	TypeString
	TypeBlob
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeDecimal
	TypeBool
	TypeDate
	TypeDateTime
	TypeTime
	TypeNull
)

type typeInfo struct {
	name   string
	quote  bool
	escape bool
}

// typeTable is indexed by base type. Anything that ends up as text on the
// server side gets quoted and escaped; numerics get neither.
var typeTable = [...]typeInfo{
	TypeUnknown:  {"unknown", true, true},
	TypeString:   {"string", true, true},
	TypeBlob:     {"blob", true, true},
	TypeInt8:     {"int8", false, false},
	TypeInt16:    {"int16", false, false},
	TypeInt32:    {"int32", false, false},
	TypeInt64:    {"int64", false, false},
	TypeUint8:    {"uint8", false, false},
	TypeUint16:   {"uint16", false, false},
	TypeUint32:   {"uint32", false, false},
	TypeUint64:   {"uint64", false, false},
	TypeFloat32:  {"float32", false, false},
	TypeFloat64:  {"float64", false, false},
	TypeDecimal:  {"decimal", false, false},
	TypeBool:     {"bool", false, false},
	TypeDate:     {"date", true, true},
	TypeDateTime: {"datetime", true, true},
	TypeTime:     {"time", true, true},
	TypeNull:     {"null", false, false},
}

func (t Type) info() typeInfo {
	b := t.Base()
	if int(b) >= len(typeTable) {
		return typeTable[TypeUnknown]
	}
	return typeTable[b]
}

// Base strips the nullable bit.
func (t Type) Base() Type { return t &^ nullableBit }

// Nullable returns t with the nullable bit set.
func (t Type) Nullable() Type {
	if t.Base() == TypeNull {
		return TypeNull
	}
	return t | nullableBit
}

func (t Type) IsNullable() bool { return t&nullableBit != 0 }

// QuoteQ reports whether values of this type need quotes in SQL text.
func (t Type) QuoteQ() bool { return t.info().quote }

// EscapeQ reports whether values of this type need escaping in SQL text.
func (t Type) EscapeQ() bool { return t.info().escape }

// Numeric reports whether t is an integer, floating point or decimal type.
func (t Type) Numeric() bool {
	b := t.Base()
	return b >= TypeInt8 && b <= TypeDecimal
}

func (t Type) String() string {
	name := t.info().name
	if t.IsNullable() {
		return "null<" + name + ">"
	}
	return name
}
