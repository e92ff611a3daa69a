package result

import (
	"errors"
	"io"
	"testing"

	sqlerrors "github.com/carlosnayan/sqlpp/internal/errors"
	"github.com/carlosnayan/sqlpp/value"
)

var stockFields = Fields{
	{Name: "Item", DatabaseType: "VARCHAR", Type: value.TypeString},
	{Name: "NUM", DatabaseType: "BIGINT", Type: value.TypeInt64},
	{Name: "Weight", DatabaseType: "DOUBLE", Type: value.TypeFloat64, Nullable: true},
}

func col(s string, t value.Type) value.Adapter {
	return value.ColumnValue([]byte(s), t, false)
}

func stockRow(item, num, weight string) []value.Adapter {
	w := col(weight, value.TypeFloat64.Nullable())
	if weight == "" {
		w = value.ColumnValue(nil, value.TypeFloat64.Nullable(), true)
	}
	return []value.Adapter{col(item, value.TypeString), col(num, value.TypeInt64), w}
}

func TestResultStore(t *testing.T) {
	res, err := New(stockFields, [][]value.Adapter{
		stockRow("Nürnberger Brats", "97", "1.5"),
		stockRow("Pickle Relish", "87", ""),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !res.Valid() || res.NumRows() != 2 || res.NumFields() != 3 {
		t.Fatalf("shape = valid:%v rows:%d fields:%d", res.Valid(), res.NumRows(), res.NumFields())
	}

	count := 0
	for i, row := range res.Rows() {
		if row.Len() != res.NumFields() {
			t.Errorf("row %d has %d fields", i, row.Len())
		}
		count++
	}
	if count != 2 {
		t.Errorf("iterated %d rows", count)
	}

	row, err := res.Row(1)
	if err != nil {
		t.Fatalf("Row(1) error = %v", err)
	}
	num, err := row.Field("num")
	if err != nil {
		t.Fatalf("Field(num) error = %v", err)
	}
	if n, _ := num.Int64(); n != 87 {
		t.Errorf("num = %d", n)
	}
	if _, err := row.Field("NUM"); err != nil {
		t.Errorf("lookup should lowercase the key: %v", err)
	}
	if _, err := row.Field("price"); !errors.Is(err, sqlerrors.ErrBadFieldName) {
		t.Errorf("unknown field error = %v", err)
	}

	w, _ := row.Field("weight")
	if nw, err := value.AsNull[float64](w); err != nil || nw.Valid {
		t.Errorf("NULL weight = %+v, %v", nw, err)
	}
	if _, err := w.Float64(); !errors.Is(err, sqlerrors.ErrNullValue) {
		t.Errorf("NULL into float64 error = %v", err)
	}

	if _, err := res.Row(2); !errors.Is(err, sqlerrors.ErrBadIndex) {
		t.Errorf("Row(2) error = %v", err)
	}
	if _, err := row.At(3); !errors.Is(err, sqlerrors.ErrBadIndex) {
		t.Errorf("At(3) error = %v", err)
	}
	if ft, _ := res.FieldType(1); ft != value.TypeInt64 {
		t.Errorf("FieldType(1) = %s", ft)
	}
	if names := res.FieldNames().Names(); names[0] != "item" || names[1] != "num" {
		t.Errorf("names = %v", names)
	}
}

func TestResultRejectsPartialRows(t *testing.T) {
	_, err := New(stockFields, [][]value.Adapter{{col("x", value.TypeString)}})
	if !errors.Is(err, sqlerrors.ErrObjectNotInitialized) {
		t.Fatalf("partial row error = %v", err)
	}
}

func TestZeroRow(t *testing.T) {
	var row Row
	if row.Valid() {
		t.Error("zero Row should be invalid")
	}
	if _, err := row.At(0); !errors.Is(err, sqlerrors.ErrObjectNotInitialized) {
		t.Errorf("At on zero Row = %v", err)
	}
	if _, err := row.Field("x"); !errors.Is(err, sqlerrors.ErrObjectNotInitialized) {
		t.Errorf("Field on zero Row = %v", err)
	}
	if Failed().Valid() {
		t.Error("Failed() should be invalid")
	}
}

func TestRowLists(t *testing.T) {
	res, _ := New(stockFields, [][]value.Adapter{stockRow("O'Hara", "3", "")})
	row, _ := res.Row(0)

	got, err := row.ValueList(", ", value.Implicit, value.MySQLEscaper)
	if err != nil || got != `'O\'Hara', 3, NULL` {
		t.Errorf("ValueList() = %q, %v", got, err)
	}
	got, err = row.EqualList(" AND ", value.Quote, value.StandardEscaper)
	if err != nil || got != `item = 'O''Hara' AND num = 3 AND weight = NULL` {
		t.Errorf("EqualList() = %q, %v", got, err)
	}

	var item string
	var num int
	var weight value.Null[float64]
	if err := row.Scan(&item, &num, &weight); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if item != "O'Hara" || num != 3 || weight.Valid {
		t.Errorf("Scan() = %q %d %+v", item, num, weight)
	}
	var plain float64
	if err := row.Scan(&item, &num, &plain); !errors.Is(err, sqlerrors.ErrNullValue) {
		t.Errorf("Scan NULL into float64 = %v", err)
	}
}

type sliceCursor struct {
	rows   [][]value.Adapter
	pos    int
	closed int
	err    error
}

func (c *sliceCursor) FetchRow() ([]value.Adapter, error) {
	if c.err != nil && c.pos == len(c.rows) {
		return nil, c.err
	}
	if c.pos >= len(c.rows) {
		return nil, io.EOF
	}
	c.pos++
	return c.rows[c.pos-1], nil
}

func (c *sliceCursor) Close() error {
	c.closed++
	return nil
}

func TestUseResultStreaming(t *testing.T) {
	cur := &sliceCursor{rows: [][]value.Adapter{stockRow("a", "1", "1"), stockRow("b", "2", "2")}}
	released := 0
	u := NewUseResult(stockFields, cur, sqlerrors.ReturnErrors, func() { released++ })

	first, err := u.FetchRow()
	if err != nil || !first.Valid() {
		t.Fatalf("first FetchRow() = %v, %v", first.Valid(), err)
	}
	second, err := u.FetchRow()
	if err != nil {
		t.Fatalf("second FetchRow() error = %v", err)
	}
	if first.Valid() {
		t.Error("previous row should be stale after fetching the next one")
	}
	if _, err := first.At(0); !errors.Is(err, sqlerrors.ErrStaleRow) {
		t.Errorf("stale access error = %v", err)
	}
	if v, _ := second.Field("item"); v.String() != "b" {
		t.Errorf("second item = %q", v)
	}

	_, err = u.FetchRow()
	if !errors.Is(err, sqlerrors.ErrEndOfResults) {
		t.Fatalf("end of results error = %v", err)
	}
	if second.Valid() {
		t.Error("last row should be invalid once the set is exhausted")
	}
	if cur.closed != 1 || released != 1 {
		t.Errorf("closed=%d released=%d, want 1/1", cur.closed, released)
	}
	if err := u.Close(); err != nil || cur.closed != 1 || released != 1 {
		t.Errorf("Close after exhaustion should be a no-op")
	}
}

func TestUseResultEmptySet(t *testing.T) {
	u := NewUseResult(stockFields, &sliceCursor{}, sqlerrors.ReturnErrors, nil)
	row, err := u.FetchRow()
	if !errors.Is(err, sqlerrors.ErrEndOfResults) || row.Valid() {
		t.Fatalf("first fetch on empty set = %v, %v", row.Valid(), err)
	}

	s := NewUseResult(stockFields, &sliceCursor{}, sqlerrors.Sentinel, nil)
	row, err = s.FetchRow()
	if err != nil || row.Valid() {
		t.Fatalf("sentinel mode should return an invalid row and nil error, got %v, %v", row.Valid(), err)
	}
}

func TestUseResultFailure(t *testing.T) {
	boom := errors.New("lost connection")
	cur := &sliceCursor{rows: [][]value.Adapter{stockRow("a", "1", "1")}, err: boom}
	u := NewUseResult(stockFields, cur, sqlerrors.ReturnErrors, nil)

	var seen int
	var failure error
	for row, err := range u.All() {
		if err != nil {
			failure = err
			break
		}
		if row.Valid() {
			seen++
		}
	}
	if seen != 1 || !errors.Is(failure, boom) || !errors.Is(u.Err(), boom) {
		t.Errorf("seen=%d failure=%v Err=%v", seen, failure, u.Err())
	}
	if cur.closed != 1 {
		t.Errorf("cursor closed %d times", cur.closed)
	}
}

func TestUseResultMalformedRow(t *testing.T) {
	cur := &sliceCursor{rows: [][]value.Adapter{{value.FromString("short")}, stockRow("b", "2", "2")}}
	released := 0
	u := NewUseResult(stockFields, cur, sqlerrors.ReturnErrors, func() { released++ })

	if _, err := u.FetchRow(); !errors.Is(err, sqlerrors.ErrObjectNotInitialized) {
		t.Fatalf("FetchRow() error = %v", err)
	}
	if released != 1 || cur.closed != 1 {
		t.Fatalf("malformed row left the stream open: released %d, closed %d", released, cur.closed)
	}
	if u.Err() == nil {
		t.Error("Err() should report the malformed row")
	}
	if _, err := u.FetchRow(); !errors.Is(err, sqlerrors.ErrEndOfResults) {
		t.Fatalf("FetchRow() after failure = %v, want ErrEndOfResults", err)
	}
}

func TestFailedUse(t *testing.T) {
	u := FailedUse(sqlerrors.ReturnErrors)
	if u.Valid() {
		t.Error("FailedUse should be invalid")
	}
	if _, err := u.FetchRow(); !errors.Is(err, sqlerrors.ErrObjectNotInitialized) {
		t.Errorf("FetchRow on failed use = %v", err)
	}
}
