// Package formatter renders results as the text tables printed by the
// command-line tool.
package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/carlosnayan/sqlpp/result"
	"github.com/carlosnayan/sqlpp/value"
)

// FormatResult renders a stored result as a boxed table followed by a row
// count line.
func FormatResult(res *result.Result) string {
	if !res.Valid() {
		return "no result\n"
	}
	headers := make([]string, res.NumFields())
	numeric := make([]bool, res.NumFields())
	for i, f := range res.Fields() {
		headers[i] = f.Name
		numeric[i] = f.Type.Numeric()
	}
	rows := make([][]string, 0, res.NumRows())
	for _, row := range res.Rows() {
		cells := make([]string, row.Len())
		for i, v := range row.Values() {
			cells[i] = cell(v)
		}
		rows = append(rows, cells)
	}

	var b strings.Builder
	if len(headers) > 0 {
		b.WriteString(Table(headers, rows, numeric))
	}
	b.WriteString(RowCount(res.NumRows()))
	return b.String()
}

// FormatRow renders one streamed row as tab separated text.
func FormatRow(row result.Row) string {
	cells := make([]string, row.Len())
	for i, v := range row.Values() {
		cells[i] = cell(v)
	}
	return strings.Join(cells, "\t")
}

// FormatExec describes the outcome of a statement that returned no rows.
func FormatExec(res result.ExecResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query OK, %d %s affected", res.RowsAffected, plural(res.RowsAffected, "row"))
	if res.InsertID != 0 {
		fmt.Fprintf(&b, ", insert id %d", res.InsertID)
	}
	if res.Info != "" {
		b.WriteString("\n")
		b.WriteString(res.Info)
	}
	b.WriteString("\n")
	return b.String()
}

// FormatFields renders column metadata, one field per line.
func FormatFields(fields result.Fields) string {
	headers := []string{"Field", "SQL type", "Type", "Null", "Length"}
	rows := make([][]string, len(fields))
	for i, f := range fields {
		null := "NO"
		if f.Nullable {
			null = "YES"
		}
		length := ""
		if f.Length > 0 {
			length = strconv.FormatInt(f.Length, 10)
		}
		rows[i] = []string{f.Name, f.DatabaseType, f.Type.Base().String(), null, length}
	}
	return Table(headers, rows, []bool{false, false, false, false, true})
}

// RowCount is the line printed under a table.
func RowCount(n int) string {
	if n == 0 {
		return "Empty set\n"
	}
	return fmt.Sprintf("%d %s in set\n", n, plural(int64(n), "row"))
}

func plural(n int64, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func cell(v value.Adapter) string {
	if v.IsNull() {
		return "NULL"
	}
	return v.String()
}

// Table draws headers and rows in a box. Columns flagged in rightAlign are
// padded on the left.
func Table(headers []string, rows [][]string, rightAlign []bool) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = DisplayWidth(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if i < len(widths) {
				widths[i] = max(widths[i], DisplayWidth(c))
			}
		}
	}

	var b strings.Builder
	rule := func() {
		b.WriteByte('+')
		for _, w := range widths {
			b.WriteString(strings.Repeat("-", w+2))
			b.WriteByte('+')
		}
		b.WriteByte('\n')
	}
	line := func(cells []string, align bool) {
		b.WriteByte('|')
		for i, w := range widths {
			c := ""
			if i < len(cells) {
				c = cells[i]
			}
			pad := strings.Repeat(" ", w-DisplayWidth(c))
			b.WriteByte(' ')
			if align && i < len(rightAlign) && rightAlign[i] {
				b.WriteString(pad + c)
			} else {
				b.WriteString(c + pad)
			}
			b.WriteString(" |")
		}
		b.WriteByte('\n')
	}

	rule()
	line(headers, false)
	rule()
	for _, r := range rows {
		line(r, true)
	}
	if len(rows) > 0 {
		rule()
	}
	return b.String()
}

// DisplayWidth counts terminal columns: East Asian wide and fullwidth
// runes take two.
func DisplayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
