package builder

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmhodges/clock"

	"github.com/carlosnayan/sqlpp/internal/cache"
	sqlerrors "github.com/carlosnayan/sqlpp/internal/errors"
	"github.com/carlosnayan/sqlpp/internal/logger"
	"github.com/carlosnayan/sqlpp/internal/query"
	"github.com/carlosnayan/sqlpp/result"
	"github.com/carlosnayan/sqlpp/value"
)

// fakeSession records every statement it is asked to send.
type fakeSession struct {
	mode    sqlerrors.Mode
	sent    []string
	failNum int
	lastErr error
}

func (s *fakeSession) EscapeString(str string) string { return value.EscapeMySQL(str) }
func (s *fakeSession) ErrorMode() sqlerrors.Mode      { return s.mode }
func (s *fakeSession) MoreResults() bool              { return false }
func (s *fakeSession) Errnum() int                    { return sqlerrors.ErrnumOf(s.lastErr) }

func (s *fakeSession) Error() string {
	if s.lastErr == nil {
		return ""
	}
	return s.lastErr.Error()
}

func (s *fakeSession) run(sql string) error {
	s.sent = append(s.sent, sql)
	if s.failNum != 0 {
		s.lastErr = sqlerrors.MapDriverError(errors.New("You have an error in your SQL syntax"), sqlerrors.OpExec, s.failNum)
		return s.lastErr
	}
	s.lastErr = nil
	return nil
}

func (s *fakeSession) Exec(_ context.Context, sql string, mode sqlerrors.Mode) (result.ExecResult, error) {
	if err := s.run(sql); err != nil {
		return result.ExecResult{}, mode.Filter(err)
	}
	return result.NewExecResult(1, 0, ""), nil
}

func (s *fakeSession) Store(_ context.Context, sql string, mode sqlerrors.Mode) (*result.Result, error) {
	if err := s.run(sql); err != nil {
		return result.Failed(), mode.Filter(err)
	}
	fields := result.Fields{{Name: "item", Type: value.TypeString}}
	return result.New(fields, [][]value.Adapter{{value.FromString("Nürnberger Brats")}})
}

func (s *fakeSession) Use(_ context.Context, sql string, mode sqlerrors.Mode) (*result.UseResult, error) {
	if err := s.run(sql); err != nil {
		return result.FailedUse(mode), mode.Filter(err)
	}
	return result.FailedUse(mode), nil
}

func (s *fakeSession) StoreNext(_ context.Context, mode sqlerrors.Mode) (*result.Result, error) {
	return result.Failed(), mode.Filter(sqlerrors.ErrEndOfResults)
}

func newTestQuery(sess *fakeSession) *Query {
	return New(sess, Config{
		Templates: cache.NewTemplateCache(8, 0, clock.NewFake()),
		Logger:    logger.NewLogger(nil, &bytes.Buffer{}),
		Clock:     clock.NewFake(),
	})
}

func TestInsertImplicitQuoting(t *testing.T) {
	sess := &fakeSession{}
	q := newTestQuery(sess)

	col := value.ColumnValue([]byte("O'Brien"), value.TypeString, false)
	q.WriteString("select * from stock where item = ")
	q.Insert(col)
	q.WriteString(" and num > ")
	q.Insert(42)
	q.WriteString(" and weight < ")
	q.Insert(1.5)

	want := `select * from stock where item = 'O\'Brien' and num > 42 and weight < 1.5`
	if got := q.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestInsertPlainStringIsNotQuoted(t *testing.T) {
	q := newTestQuery(&fakeSession{})
	q.WriteString("select ")
	q.Insert("item")
	q.WriteString(" from stock")
	if got := q.String(); got != "select item from stock" {
		t.Fatalf("String() = %q", got)
	}
}

func TestQuote(t *testing.T) {
	q := newTestQuery(&fakeSession{})
	q.WriteString("insert into t values (")
	q.Quote("it's").WriteString(", ")
	q.Quote(7).WriteString(", ")
	q.Quote(nil).WriteString(")")

	want := `insert into t values ('it\'s', 7, NULL)`
	if got := q.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestExecClearsPlainText(t *testing.T) {
	sess := &fakeSession{}
	q := newTestQuery(sess)
	q.WriteString("delete from stock")

	res, err := q.Exec(context.Background())
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if !res.Success() {
		t.Fatalf("expected a successful exec result")
	}
	if len(sess.sent) != 1 || sess.sent[0] != "delete from stock" {
		t.Fatalf("sent = %q", sess.sent)
	}
	if q.String() != "" {
		t.Fatalf("query text not cleared: %q", q.String())
	}
}

const insertTemplate = "insert into %5:table values (%0q, %1q, %2, %3, %4q)"

func TestTemplateDefaults(t *testing.T) {
	sess := &fakeSession{}
	q := newTestQuery(sess)
	q.WriteString(insertTemplate)
	if err := q.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := q.SetDefault("table", "stock"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}

	ctx := context.Background()
	if _, err := q.Exec(ctx, "Hot Mustard", 75, .95, .97, "1998-05-25"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if err := q.SetDefault("table", "stock2"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if _, err := q.Exec(ctx, "Pickle Relish", 87, 1.25, 1.05, "1998-08-22"); err != nil {
		t.Fatalf("Exec: %v", err)
	}

	want := []string{
		"insert into stock values ('Hot Mustard', 75, 0.95, 0.97, '1998-05-25')",
		"insert into stock2 values ('Pickle Relish', 87, 1.25, 1.05, '1998-08-22')",
	}
	if len(sess.sent) != len(want) {
		t.Fatalf("sent %d statements, want %d", len(sess.sent), len(want))
	}
	for i := range want {
		if sess.sent[i] != want[i] {
			t.Errorf("statement %d = %q, want %q", i, sess.sent[i], want[i])
		}
	}
	if q.String() != insertTemplate {
		t.Fatalf("template changed by execution: %q", q.String())
	}
}

func TestTemplateNamedArgs(t *testing.T) {
	q := newTestQuery(&fakeSession{})
	q.WriteString("select * from %0:table where item = %1q:item")
	if err := q.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := q.SQL(Arg("item", "Hotdog Buns"), Arg("table", "stock"))
	if err != nil {
		t.Fatalf("SQL: %v", err)
	}
	if want := "select * from stock where item = 'Hotdog Buns'"; got != want {
		t.Fatalf("SQL() = %q, want %q", got, want)
	}
}

func TestTemplateArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []any
		want error
	}{
		{"missing", []any{"a"}, sqlerrors.ErrMissingParam},
		{"too many", []any{"a", "b", "c"}, sqlerrors.ErrBadParamCount},
		{"unknown name", []any{Arg("nope", 1)}, sqlerrors.ErrBadParamCount},
		{"named twice", []any{Arg("second", "x"), Arg("second", "y")}, sqlerrors.ErrBadParamCount},
		{"named and positional", []any{Arg("second", "x"), "a", "b"}, sqlerrors.ErrBadParamCount},
		{"unconvertible", []any{struct{}{}}, sqlerrors.ErrBadConversion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &fakeSession{}
			q := newTestQuery(sess)
			q.WriteString("select %0q, %1q:second")
			if err := q.Parse(); err != nil {
				t.Fatalf("Parse: %v", err)
			}
			_, err := q.Exec(context.Background(), tt.args...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Exec error = %v, want %v", err, tt.want)
			}
			if len(sess.sent) != 0 {
				t.Fatalf("statement reached the server: %q", sess.sent)
			}
			if q.Error() == "" {
				t.Fatalf("Error() is empty after a failure")
			}
		})
	}
}

func TestTemplateOrdinalBoundTwice(t *testing.T) {
	q := newTestQuery(&fakeSession{})
	q.WriteString("select * from stock where item = %0q:item")
	if err := q.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, args := range [][]any{
		{Arg("item", "x"), "y"},
		{"a", Arg("item", "b")},
	} {
		if got, err := q.SQL(args...); !errors.Is(err, sqlerrors.ErrBadParamCount) {
			t.Errorf("SQL(%v) = %q, %v; want ErrBadParamCount", args, got, err)
		}
	}
	got, err := q.SQL(Arg("item", "Hot Mustard"))
	if err != nil {
		t.Fatalf("SQL: %v", err)
	}
	if want := "select * from stock where item = 'Hot Mustard'"; got != want {
		t.Fatalf("SQL() = %q, want %q", got, want)
	}
}

func TestParseTwiceKeepsTemplate(t *testing.T) {
	q := newTestQuery(&fakeSession{})
	q.WriteString("select * from %0:table")
	if err := q.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := q.SetDefault("table", "stock"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if err := q.Parse(); err != nil {
		t.Fatalf("second Parse: %v", err)
	}
	if q.String() != "select * from %0:table" || q.Template().ParamCount() != 1 {
		t.Fatalf("template after second Parse = %q", q.String())
	}
	got, err := q.SQL()
	if err != nil {
		t.Fatalf("SQL: %v", err)
	}
	if got != "select * from stock" {
		t.Fatalf("SQL() = %q, default lost", got)
	}
	if got, _ := q.SQL("stock2"); got != "select * from stock2" {
		t.Fatalf("SQL(stock2) = %q", got)
	}
}

func TestSetDefaultErrors(t *testing.T) {
	q := newTestQuery(&fakeSession{})
	if err := q.SetDefault("x", 1); !errors.Is(err, sqlerrors.ErrBadTemplate) {
		t.Fatalf("SetDefault before Parse = %v", err)
	}
	q.WriteString("select %0")
	if err := q.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := q.SetDefaultAt(3, 1); !errors.Is(err, sqlerrors.ErrBadIndex) {
		t.Fatalf("SetDefaultAt(3) = %v", err)
	}
	if err := q.SetDefault("x", 1); !errors.Is(err, sqlerrors.ErrBadParamCount) {
		t.Fatalf("SetDefault(unknown) = %v", err)
	}
}

func TestParseBadTemplate(t *testing.T) {
	q := newTestQuery(&fakeSession{})
	q.WriteString("select %0:a, %1:a")
	if err := q.Parse(); !errors.Is(err, sqlerrors.ErrBadTemplate) {
		t.Fatalf("Parse = %v, want ErrBadTemplate", err)
	}
}

func TestSentinelMode(t *testing.T) {
	sess := &fakeSession{mode: sqlerrors.Sentinel, failNum: 1064}
	q := newTestQuery(sess)
	q.WriteString("selec 1")

	res, err := q.Store(context.Background())
	if err != nil {
		t.Fatalf("Store returned an error in sentinel mode: %v", err)
	}
	if res.Valid() {
		t.Fatalf("expected an invalid result")
	}
	if q.Errnum() != 1064 {
		t.Fatalf("Errnum() = %d, want 1064", q.Errnum())
	}
	if !strings.Contains(q.Error(), "syntax") {
		t.Fatalf("Error() = %q", q.Error())
	}
}

func TestQueryErrorModeOverride(t *testing.T) {
	sess := &fakeSession{failNum: 1064}
	q := newTestQuery(sess).SetErrorMode(sqlerrors.Sentinel)
	q.WriteString("selec 1")
	if _, err := q.Exec(context.Background()); err != nil {
		t.Fatalf("Exec = %v, want nil in sentinel mode", err)
	}
	if sess.ErrorMode() != sqlerrors.ReturnErrors {
		t.Fatalf("override leaked into the session")
	}
}

func TestStore(t *testing.T) {
	q := newTestQuery(&fakeSession{})
	q.WriteString("select item from stock")
	res, err := q.Store(context.Background())
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if res.NumRows() != 1 {
		t.Fatalf("NumRows() = %d", res.NumRows())
	}
}

func TestRepeatedStatementWarning(t *testing.T) {
	var out bytes.Buffer
	clk := clock.NewFake()
	sess := &fakeSession{}
	q := New(sess, Config{
		Logger:  logger.NewLogger([]string{"warn"}, &out),
		Clock:   clk,
		Repeats: query.NewRepeatDetector(3, 0, clk),
	})
	for i := 0; i < 3; i++ {
		q.WriteString("select * from stock where num = ")
		q.Insert(i)
		if _, err := q.Store(context.Background()); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}
	if !strings.Contains(out.String(), "parsed template") {
		t.Fatalf("expected a repeat warning, got %q", out.String())
	}
}

func TestDetectQueryType(t *testing.T) {
	tests := map[string]string{
		"  select 1":            "SELECT",
		"INSERT INTO t":         "INSERT",
		"update t set a = 1":    "UPDATE",
		"delete from t":         "DELETE",
		"create database stock": "CREATE",
		"explain select 1":      "UNKNOWN",
	}
	for in, want := range tests {
		if got := detectQueryType(in); got != want {
			t.Errorf("detectQueryType(%q) = %q, want %q", in, got, want)
		}
	}
}
