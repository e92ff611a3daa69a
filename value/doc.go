// Package value converts Go values to and from the text the server speaks.
//
// An Adapter holds the canonical SQL text of a value together with a Type
// tag. The tag alone decides whether the text needs quoting and escaping
// (see Type.QuoteQ and Type.EscapeQ). Conversions back to Go types parse the
// text with a fixed '.' decimal separator, so results never depend on the
// process locale.
//
// Writing a value into SQL goes through a manipulator (Manip). A plain text
// sink never quotes on its own; a QuerySink quotes column data implicitly:
//
//	value.Write(os.Stdout, row.MustAt(0))          // raw text
//	value.WriteQuery(q, value.Implicit, row.MustAt(0)) // quoted if the column is textual
//	value.WriteQuery(q, value.Quote, value.FromString("O'Brien"))
package value
