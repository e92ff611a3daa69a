package errors

import "fmt"

// ConversionError is returned when field text cannot become the requested
// native type, or when a NULL is forced into a non-nullable one.
type ConversionError struct {
	Text string
	// Type is the requested Go type, e.g. "int64".
	Type      string
	Retrieved int
	Expected  int
	Null      bool
	cause     error
}

func NewConversionError(text, typ string, expected int, cause error) *ConversionError {
	return &ConversionError{
		Text:      text,
		Type:      typ,
		Retrieved: len(text),
		Expected:  expected,
		cause:     cause,
	}
}

// NewNullConversionError reports a NULL field converted to a plain type.
func NewNullConversionError(typ string, expected int) *ConversionError {
	return &ConversionError{Type: typ, Expected: expected, Null: true}
}

func (e *ConversionError) Error() string {
	if e.Null {
		return fmt.Sprintf("bad conversion: SQL NULL into non-nullable %s (retrieved %d bytes, expected %d)",
			e.Type, e.Retrieved, e.Expected)
	}
	msg := fmt.Sprintf("bad conversion: %q into %s (retrieved %d bytes, expected %d)",
		e.Text, e.Type, e.Retrieved, e.Expected)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() error {
	return e.cause
}

func (e *ConversionError) Is(target error) bool {
	if target == ErrBadConversion {
		return true
	}
	return e.Null && target == ErrNullValue
}
