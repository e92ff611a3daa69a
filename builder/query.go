// Package builder accumulates SQL text, parses it into templates and sends
// the result through the connection that created the Query.
//
// Values inserted into a Query pass through the value package, so numbers
// are always written with a '.' decimal point and column data fetched from
// a result is quoted and escaped without being asked. Template text uses
// %N markers, optionally followed by a quoting modifier and a :name binding:
//
//	q.WriteString("insert into %5:table values (%0q, %1q, %2, %3, %4q)")
//	q.Parse()
//	q.SetDefault("table", "stock")
//	q.Exec(ctx, "Hot Mustard", 75, .95, .97, "1998-05-25")
package builder

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/jmhodges/clock"

	"github.com/carlosnayan/sqlpp/internal/cache"
	"github.com/carlosnayan/sqlpp/internal/errors"
	"github.com/carlosnayan/sqlpp/internal/logger"
	"github.com/carlosnayan/sqlpp/internal/parser"
	"github.com/carlosnayan/sqlpp/internal/query"
	"github.com/carlosnayan/sqlpp/result"
	"github.com/carlosnayan/sqlpp/value"
)

// Session is the connection side of a Query. mode tells the session how
// to report a failure for this call.
type Session interface {
	value.Escaper
	ErrorMode() errors.Mode
	Exec(ctx context.Context, sql string, mode errors.Mode) (result.ExecResult, error)
	Store(ctx context.Context, sql string, mode errors.Mode) (*result.Result, error)
	Use(ctx context.Context, sql string, mode errors.Mode) (*result.UseResult, error)
	StoreNext(ctx context.Context, mode errors.Mode) (*result.Result, error)
	MoreResults() bool
	Error() string
	Errnum() int
}

// Config carries the optional collaborators of a Query.
type Config struct {
	Templates *cache.TemplateCache
	Logger    *logger.Logger
	Clock     clock.Clock
	Repeats   *query.RepeatDetector
}

// NamedArg supplies a template parameter by name.
type NamedArg struct {
	Name  string
	Value any
}

// Arg binds v to the parameter called name.
func Arg(name string, v any) NamedArg { return NamedArg{Name: name, Value: v} }

type procKey struct {
	ordinal int
	mod     parser.Modifier
}

// Query is a statement under construction. It is not safe for concurrent
// use; neither is the connection behind it.
type Query struct {
	sess Session
	cfg  Config

	buf    strings.Builder
	insErr error

	tmpl     *parser.Template
	defaults []value.Adapter
	rendered map[procKey]value.Adapter

	mode *errors.Mode
	err  error
}

// New returns an empty query bound to sess.
func New(sess Session, cfg Config) *Query {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &Query{sess: sess, cfg: cfg}
}

// Write appends raw SQL text.
func (q *Query) Write(p []byte) (int, error) {
	q.clearTemplate()
	return q.buf.Write(p)
}

// WriteString appends raw SQL text.
func (q *Query) WriteString(s string) (int, error) {
	q.clearTemplate()
	return q.buf.WriteString(s)
}

// EscapeString escapes s the way the connected server expects.
func (q *Query) EscapeString(s string) string { return q.sess.EscapeString(s) }

// Insert appends each value with implicit quoting: only column data taken
// from a result is quoted. Strings are written as they are.
func (q *Query) Insert(vals ...any) *Query {
	for _, v := range vals {
		q.Manip(value.Implicit, v)
	}
	return q
}

// Quote appends v quoted and escaped according to its type.
func (q *Query) Quote(v any) *Query { return q.Manip(value.Quote, v) }

// Manip appends v under m. A value that cannot be converted is remembered
// and reported by the next execution.
func (q *Query) Manip(m value.Manip, v any) *Query {
	a, err := value.New(v)
	if err != nil {
		if q.insErr == nil {
			q.insErr = err
		}
		return q
	}
	q.clearTemplate()
	if err := value.WriteQuery(q, m, a); err != nil && q.insErr == nil {
		q.insErr = err
	}
	return q
}

// clearTemplate drops a parsed template when new text is written, so the
// text is parsed afresh.
func (q *Query) clearTemplate() {
	if q.tmpl == nil {
		return
	}
	q.buf.Reset()
	q.buf.WriteString(q.tmpl.Source)
	q.tmpl = nil
	q.defaults = nil
	q.rendered = nil
}

// String returns the accumulated text; for a parsed query, the template.
func (q *Query) String() string {
	if q.tmpl != nil {
		return q.tmpl.Source
	}
	return q.buf.String()
}

// Reset clears text, template, defaults and errors.
func (q *Query) Reset() *Query {
	q.buf.Reset()
	q.insErr = nil
	q.tmpl = nil
	q.defaults = nil
	q.rendered = nil
	q.err = nil
	return q
}

// Parse turns the accumulated text into a template. The text is kept
// verbatim; later executions substitute arguments without re-scanning it.
// Parsing an already parsed query keeps its template and defaults.
func (q *Query) Parse() error {
	if q.tmpl != nil {
		return nil
	}
	text := q.buf.String()
	var (
		t   *parser.Template
		err error
	)
	if q.cfg.Templates != nil {
		t, err = q.cfg.Templates.Parse(text)
	} else {
		t, err = parser.Parse(text)
	}
	if err != nil {
		return q.fail(err)
	}
	q.tmpl = t
	q.defaults = make([]value.Adapter, t.ParamCount())
	q.rendered = map[procKey]value.Adapter{}
	q.buf.Reset()
	q.err = nil
	return nil
}

// Template returns the parsed template, nil before Parse.
func (q *Query) Template() *parser.Template { return q.tmpl }

// SetDefault sets the value used for the parameter called name when an
// execution does not supply it.
func (q *Query) SetDefault(name string, v any) error {
	if q.tmpl == nil {
		return q.fail(errors.New(errors.ErrBadTemplate, "query is not parsed"))
	}
	i, ok := q.tmpl.Ordinal(name)
	if !ok {
		return q.fail(errors.New(errors.ErrBadParamCount, "no parameter named %q", name))
	}
	return q.SetDefaultAt(i, v)
}

// SetDefaultAt sets the default for parameter i.
func (q *Query) SetDefaultAt(i int, v any) error {
	if q.tmpl == nil {
		return q.fail(errors.New(errors.ErrBadTemplate, "query is not parsed"))
	}
	if i < 0 || i >= len(q.defaults) {
		return q.fail(errors.New(errors.ErrBadIndex, "parameter %d of %d", i, len(q.defaults)))
	}
	a, err := value.New(v)
	if err != nil {
		return q.fail(err)
	}
	q.defaults[i].Assign(a)
	for k := range q.rendered {
		if k.ordinal == i {
			delete(q.rendered, k)
		}
	}
	return nil
}

// Default returns the default for the parameter called name.
func (q *Query) Default(name string) (value.Adapter, bool) {
	if q.tmpl == nil {
		return value.Adapter{}, false
	}
	i, ok := q.tmpl.Ordinal(name)
	if !ok || !q.defaults[i].Initialized() {
		return value.Adapter{}, false
	}
	return q.defaults[i], true
}

func manipFor(m parser.Modifier) value.Manip {
	switch m {
	case parser.ModQuote:
		return value.Quote
	case parser.ModQuoteOnly:
		return value.QuoteOnly
	case parser.ModAlwaysQuote:
		return value.AlwaysQuote
	case parser.ModAlwaysQuoteOnly:
		return value.AlwaysQuoteOnly
	}
	return value.DoNothing
}

// bind sorts args into per-ordinal values. Positional args fill ordinals
// from 0; NamedArg values go to their parameter. Every argument counts
// against the parameter count and no ordinal may be bound twice.
func (q *Query) bind(args []any) ([]value.Adapter, error) {
	n := q.tmpl.ParamCount()
	if len(args) > n {
		return nil, errors.New(errors.ErrBadParamCount, "%d arguments for %d parameters", len(args), n)
	}
	supplied := make([]value.Adapter, n)
	bound := make([]bool, n)
	pos := 0
	for _, arg := range args {
		i := pos
		v := arg
		if na, ok := arg.(NamedArg); ok {
			o, found := q.tmpl.Ordinal(na.Name)
			if !found {
				return nil, errors.New(errors.ErrBadParamCount, "no parameter named %q", na.Name)
			}
			i, v = o, na.Value
		} else {
			pos++
		}
		if i >= n {
			return nil, errors.New(errors.ErrBadParamCount, "%d positional arguments for %d parameters", pos, n)
		}
		if bound[i] {
			return nil, errors.New(errors.ErrBadParamCount, "parameter %%%d given twice", i)
		}
		bound[i] = true
		a, err := value.New(v)
		if err != nil {
			return nil, err
		}
		supplied[i] = a
	}
	return supplied, nil
}

// SQL returns the statement an execution with args would send, without
// sending it.
func (q *Query) SQL(args ...any) (string, error) {
	if q.insErr != nil {
		return "", q.insErr
	}
	if q.tmpl == nil {
		if len(args) > 0 {
			return "", errors.New(errors.ErrBadParamCount, "%d arguments for an unparsed query", len(args))
		}
		return q.buf.String(), nil
	}
	supplied, err := q.bind(args)
	if err != nil {
		return "", err
	}
	return q.tmpl.Render(func(m parser.Marker) (string, error) {
		manip := manipFor(m.Modifier)
		if a := supplied[m.Ordinal]; a.Initialized() {
			return value.Render(q, manip, a, true), nil
		}
		key := procKey{m.Ordinal, m.Modifier}
		if a, ok := q.rendered[key]; ok {
			return value.Render(q, manip, a, true), nil
		}
		def := q.defaults[m.Ordinal]
		if !def.Initialized() {
			name := q.tmpl.Name(m.Ordinal)
			if name == "" {
				return "", errors.New(errors.ErrMissingParam, "%%%d has no value and no default", m.Ordinal)
			}
			return "", errors.New(errors.ErrMissingParam, "%%%d (%s) has no value and no default", m.Ordinal, name)
		}
		a := value.Rendered(q, manip, def)
		q.rendered[key] = a
		return a.String(), nil
	})
}

// SetErrorMode overrides the connection's error mode for this query.
func (q *Query) SetErrorMode(m errors.Mode) *Query {
	q.mode = &m
	return q
}

// ErrorMode returns the mode in force for this query.
func (q *Query) ErrorMode() errors.Mode {
	if q.mode != nil {
		return *q.mode
	}
	return q.sess.ErrorMode()
}

// fail records err and filters it through the error mode.
func (q *Query) fail(err error) error {
	q.err = err
	return q.ErrorMode().Filter(err)
}

// Error returns the text of the last failure of this query or its
// connection.
func (q *Query) Error() string {
	if q.err != nil {
		return q.err.Error()
	}
	return q.sess.Error()
}

// Errnum returns the server error number of the last failure.
func (q *Query) Errnum() int {
	if n := errors.ErrnumOf(q.err); n != 0 {
		return n
	}
	return q.sess.Errnum()
}

// prepare builds the statement to send. A failure here never reaches the
// server; it is recorded on the query and filtered by the error mode.
func (q *Query) prepare(args []any) (string, error) {
	q.err = nil
	sql, err := q.SQL(args...)
	if err != nil {
		q.err = err
		return "", err
	}
	return sql, nil
}

// sent runs after a statement reached the session: plain text is consumed
// by the execution, templates are kept for the next one.
func (q *Query) sent(sql string, start time.Time) {
	q.logTiming(sql, start)
	q.observe(sql)
	if q.tmpl == nil {
		q.buf.Reset()
		q.insErr = nil
	}
}

// Exec sends a statement that returns no rows.
func (q *Query) Exec(ctx context.Context, args ...any) (result.ExecResult, error) {
	sql, err := q.prepare(args)
	if err != nil {
		return result.ExecResult{}, q.ErrorMode().Filter(err)
	}
	start := q.cfg.Clock.Now()
	res, err := q.sess.Exec(ctx, sql, q.ErrorMode())
	q.sent(sql, start)
	return res, err
}

// Store sends the statement and buffers the whole result set.
func (q *Query) Store(ctx context.Context, args ...any) (*result.Result, error) {
	sql, err := q.prepare(args)
	if err != nil {
		return result.Failed(), q.ErrorMode().Filter(err)
	}
	start := q.cfg.Clock.Now()
	res, err := q.sess.Store(ctx, sql, q.ErrorMode())
	q.sent(sql, start)
	return res, err
}

// Use sends the statement and returns a row-by-row cursor. The connection
// stays busy until the cursor is exhausted or closed.
func (q *Query) Use(ctx context.Context, args ...any) (*result.UseResult, error) {
	sql, err := q.prepare(args)
	if err != nil {
		return result.FailedUse(q.ErrorMode()), q.ErrorMode().Filter(err)
	}
	start := q.cfg.Clock.Now()
	res, err := q.sess.Use(ctx, sql, q.ErrorMode())
	q.sent(sql, start)
	return res, err
}

// StoreNext buffers the next result set of a multi-statement Store.
func (q *Query) StoreNext(ctx context.Context) (*result.Result, error) {
	return q.sess.StoreNext(ctx, q.ErrorMode())
}

// MoreResults reports whether a multi-statement Store has sets left.
func (q *Query) MoreResults() bool { return q.sess.MoreResults() }

// ForEach streams the rows of the statement into fn, stopping at the first
// error fn returns.
func (q *Query) ForEach(ctx context.Context, fn func(result.Row) error, args ...any) error {
	use, err := q.Use(ctx, args...)
	if err != nil {
		return err
	}
	if !use.Valid() {
		return nil
	}
	defer use.Close()
	for row, err := range use.All() {
		if err != nil {
			return q.fail(err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

var _ io.StringWriter = (*Query)(nil)
