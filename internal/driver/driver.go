// Package driver is the thin, synchronous layer between a Connection and
// database/sql. A Driver owns exactly one physical session and exposes one
// method per protocol primitive: connect, execute, store, use, ping and the
// administrative commands. Every failure is recorded for Error/Errnum.
package driver

import (
	"context"
	"database/sql"
	"io"
	"slices"
	"sync/atomic"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"

	contextutil "github.com/carlosnayan/sqlpp/internal/context"
	"github.com/carlosnayan/sqlpp/internal/dialect"
	"github.com/carlosnayan/sqlpp/internal/errors"
	"github.com/carlosnayan/sqlpp/internal/limits"
	"github.com/carlosnayan/sqlpp/internal/logger"
	"github.com/carlosnayan/sqlpp/result"
	"github.com/carlosnayan/sqlpp/value"
)

// Opener has the signature of sql.Open.
type Opener func(driverName, dsn string) (*sql.DB, error)

// Config carries the collaborators of a Driver. Zero fields get defaults.
type Config struct {
	Open       Opener
	Clock      clock.Clock
	Registerer prometheus.Registerer
	Logger     *logger.Logger
	// MaxRows caps how many rows Store will buffer. Zero means
	// limits.MaxScanRows, negative means no cap.
	MaxRows int
}

// Driver wraps one database/sql session.
type Driver struct {
	dialect dialect.Dialect
	cfg     Config
	metrics *driverMetrics

	db     *sql.DB
	conn   *sql.Conn
	params dialect.Params

	options   []Option
	reconnect bool

	pending *sql.Rows
	cursor  *Cursor

	lastErr error
	errnum  int
	version string
	threads atomic.Int32
}

// New returns a disconnected driver speaking d.
func New(d dialect.Dialect, cfg Config) *Driver {
	if cfg.Open == nil {
		cfg.Open = sql.Open
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetDefaultLogger()
	}
	if cfg.MaxRows == 0 {
		cfg.MaxRows = limits.MaxScanRows
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	return &Driver{dialect: d, cfg: cfg, metrics: newDriverMetrics(cfg.Registerer)}
}

func (d *Driver) Dialect() dialect.Dialect { return d.dialect }

func (d *Driver) Connected() bool { return d.conn != nil }

// Params returns the parameters of the last successful Connect.
func (d *Driver) Params() dialect.Params { return d.params }

// Error returns the text of the last failure, or "" if the last call
// succeeded.
func (d *Driver) Error() string {
	if d.lastErr == nil {
		return ""
	}
	return d.lastErr.Error()
}

// Errnum returns the server's number for the last failure, 0 if it had none.
func (d *Driver) Errnum() int { return d.errnum }

// Err returns the last failure as an error value.
func (d *Driver) Err() error { return d.lastErr }

func (d *Driver) clearError() {
	d.lastErr = nil
	d.errnum = 0
}

// fail classifies err, records it and returns the classified error.
func (d *Driver) fail(op errors.OperationType, err error) error {
	num := d.dialect.ErrorNumber(err)
	if num == 0 {
		num = errors.ErrnumOf(err)
	}
	mapped := errors.MapDriverError(err, op, num)
	d.lastErr = mapped
	d.errnum = num
	d.cfg.Logger.Error("%s: %v", op, errors.SanitizeError(mapped))
	return mapped
}

// Connect opens a session with p, shaped by the options applied so far.
// An existing session is closed first.
func (d *Driver) Connect(ctx context.Context, p dialect.Params) error {
	d.clearError()
	if d.Connected() {
		d.Disconnect()
	}
	st, err := resolve(p, d.options)
	if err != nil {
		return d.fail(errors.OpConnect, err)
	}
	dsn, err := d.dialect.BuildDSN(st.params, st.settings)
	if err != nil {
		return d.fail(errors.OpConnect, err)
	}
	db, err := d.cfg.Open(d.dialect.GetDriverName(), dsn)
	if err != nil {
		return d.fail(errors.OpConnect, err)
	}
	db.SetMaxOpenConns(1)

	if st.settings.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = contextutil.WithTimeout(ctx, st.settings.ConnectTimeout)
		defer cancel()
	}
	start := d.cfg.Clock.Now()
	conn, err := db.Conn(ctx)
	if err == nil {
		err = conn.PingContext(ctx)
		if err != nil {
			conn.Close()
		}
	}
	d.metrics.observe("connect", d.cfg.Clock.Since(start), err)
	if err != nil {
		db.Close()
		return d.fail(errors.OpConnect, err)
	}

	d.db, d.conn, d.params = db, conn, p
	d.reconnect = st.reconnect
	d.cfg.Logger.Info("connected to %s server %s", d.dialect.Name(), describe(st.params))
	return nil
}

func describe(p dialect.Params) string {
	switch {
	case p.Socket != "":
		return p.Socket
	case p.Host != "":
		return p.Host
	case p.Database != "":
		return p.Database
	}
	return "localhost"
}

// Disconnect closes the session. It is safe to call when not connected.
func (d *Driver) Disconnect() {
	d.dropPending()
	if d.cursor != nil {
		d.cursor.Close()
	}
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
	if d.db != nil {
		d.db.Close()
		d.db = nil
	}
	d.version = ""
}

func (d *Driver) dropPending() {
	if d.pending != nil {
		d.pending.Close()
		d.pending = nil
	}
}

// ready checks that a statement can be sent now.
func (d *Driver) ready(op errors.OperationType, query string) error {
	d.clearError()
	if !d.Connected() {
		return d.fail(op, errors.ErrNotConnected)
	}
	if d.cursor != nil {
		return d.fail(op, errors.New(errors.ErrLockFailed, "a streamed result is still open"))
	}
	if len(query) > limits.MaxRawQuerySize {
		return d.fail(op, errors.New(errors.ErrQueryTooLarge, "%d bytes, limit %d", len(query), limits.MaxRawQuerySize))
	}
	d.dropPending()
	return nil
}

func (d *Driver) track(kind, query string, start time.Time, err error) {
	took := d.cfg.Clock.Since(start)
	d.metrics.observe(kind, took, err)
	d.cfg.Logger.Query(query, nil, took)
}

// Exec sends a statement that returns no rows.
func (d *Driver) Exec(ctx context.Context, query string) (result.ExecResult, error) {
	if err := d.ready(errors.OpExec, query); err != nil {
		return result.ExecResult{}, err
	}
	start := d.cfg.Clock.Now()
	res, err := d.conn.ExecContext(ctx, query)
	d.track("exec", query, start, err)
	if err != nil {
		return result.ExecResult{}, d.fail(errors.OpExec, err)
	}
	// Not every driver can report both; PostgreSQL has no insert id.
	affected, _ := res.RowsAffected()
	id, _ := res.LastInsertId()
	return result.NewExecResult(affected, id, ""), nil
}

// Store runs query and buffers the first result set. Further sets of a
// multi-statement query are left for StoreNext.
func (d *Driver) Store(ctx context.Context, query string) (*result.Result, error) {
	if err := d.ready(errors.OpStore, query); err != nil {
		return nil, err
	}
	start := d.cfg.Clock.Now()
	rows, err := d.conn.QueryContext(ctx, query)
	if err != nil {
		d.track("store", query, start, err)
		return nil, d.fail(errors.OpStore, err)
	}
	res, err := d.storeSet(rows)
	d.track("store", query, start, err)
	if err != nil {
		return nil, err
	}
	d.keepIfMore(rows)
	return res, nil
}

// MoreResults reports whether a stored multi-statement query has more sets.
func (d *Driver) MoreResults() bool { return d.pending != nil }

// StoreNext buffers the next result set of the last Store.
func (d *Driver) StoreNext(ctx context.Context) (*result.Result, error) {
	d.clearError()
	if d.pending == nil {
		return nil, errors.ErrEndOfResults
	}
	rows := d.pending
	d.pending = nil
	res, err := d.storeSet(rows)
	if err != nil {
		return nil, err
	}
	d.keepIfMore(rows)
	return res, nil
}

func (d *Driver) keepIfMore(rows *sql.Rows) {
	if rows.NextResultSet() {
		d.pending = rows
		return
	}
	rows.Close()
}

func (d *Driver) storeSet(rows *sql.Rows) (*result.Result, error) {
	fields, err := d.fields(rows)
	if err != nil {
		rows.Close()
		return nil, d.fail(errors.OpFetch, err)
	}
	var data [][]value.Adapter
	for rows.Next() {
		if d.cfg.MaxRows > 0 && len(data) >= d.cfg.MaxRows {
			rows.Close()
			return nil, d.fail(errors.OpFetch, errors.New(errors.ErrQueryTooLarge,
				"more than %d rows; stream the result instead", d.cfg.MaxRows))
		}
		vals, err := scanRow(rows, fields)
		if err != nil {
			rows.Close()
			return nil, d.fail(errors.OpFetch, err)
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, d.fail(errors.OpFetch, err)
	}
	res, err := result.New(fields, data)
	if err != nil {
		rows.Close()
		return nil, d.fail(errors.OpFetch, err)
	}
	return res, nil
}

// fields reads column metadata and maps each column onto a value type.
func (d *Driver) fields(rows *sql.Rows) (result.Fields, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	fields := make(result.Fields, len(cols))
	for i, c := range cols {
		f := result.Field{
			Name:         c.Name(),
			DatabaseType: c.DatabaseTypeName(),
			Type:         d.dialect.MapColumnType(c.DatabaseTypeName()),
		}
		if nullable, ok := c.Nullable(); ok && nullable {
			f.Nullable = true
			f.Type = f.Type.Nullable()
		}
		if l, ok := c.Length(); ok {
			f.Length = l
		}
		fields[i] = f
	}
	return fields, nil
}

func scanRow(rows *sql.Rows, fields result.Fields) ([]value.Adapter, error) {
	raw := make([]any, len(fields))
	ptrs := make([]any, len(fields))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	vals := make([]value.Adapter, len(fields))
	for i, src := range raw {
		vals[i] = value.FromColumn(src, fields[i].Type)
	}
	return vals, nil
}

// Use runs query and returns a cursor over its rows. The driver refuses
// other statements until the cursor is closed.
func (d *Driver) Use(ctx context.Context, query string) (*Cursor, error) {
	if err := d.ready(errors.OpUse, query); err != nil {
		return nil, err
	}
	start := d.cfg.Clock.Now()
	rows, err := d.conn.QueryContext(ctx, query)
	d.track("use", query, start, err)
	if err != nil {
		return nil, d.fail(errors.OpUse, err)
	}
	fields, err := d.fields(rows)
	if err != nil {
		rows.Close()
		return nil, d.fail(errors.OpUse, err)
	}
	d.cursor = &Cursor{d: d, rows: rows, fields: fields}
	return d.cursor, nil
}

// EscapeString escapes s for use between single quotes.
func (d *Driver) EscapeString(s string) string { return d.dialect.EscapeString(s) }

// Ping checks the session. With the Reconnect option it makes one attempt
// to re-establish a dropped session before giving up.
func (d *Driver) Ping(ctx context.Context) error {
	d.clearError()
	if !d.Connected() {
		return d.fail(errors.OpPing, errors.ErrNotConnected)
	}
	start := d.cfg.Clock.Now()
	err := d.conn.PingContext(ctx)
	d.metrics.observe("ping", d.cfg.Clock.Since(start), err)
	if err == nil {
		return nil
	}
	if !d.reconnect {
		return d.fail(errors.OpPing, err)
	}
	d.cfg.Logger.Warn("ping failed (%v), reconnecting", err)
	if err := d.Connect(ctx, d.params); err != nil {
		return err
	}
	return nil
}

// SetOption applies opt. Before Connect any option is accepted and later
// options of the same kind win; on a live session only Reconnect and
// Charset are accepted.
func (d *Driver) SetOption(ctx context.Context, opt Option) error {
	d.clearError()
	if d.Connected() {
		if !opt.Kind().postConnect() {
			return d.fail(errors.OpOption, errors.New(errors.ErrBadOption,
				"%s cannot be changed after connecting", opt.Kind()))
		}
		switch o := opt.(type) {
		case Reconnect:
			d.reconnect = bool(o)
		case Charset:
			stmt := d.dialect.CharsetSQL(string(o))
			if stmt == "" {
				return d.fail(errors.OpOption, errors.New(errors.ErrUnsupported, "%s cannot change charset", d.dialect.Name()))
			}
			if _, err := d.Exec(ctx, stmt); err != nil {
				return err
			}
		}
	} else if _, err := resolve(d.params, []Option{opt}); err != nil {
		return d.fail(errors.OpOption, err)
	}
	d.options = append(d.options, opt)
	return nil
}

// SetOptionDefault applies opt only if no option of its kind was applied
// yet. It reports whether opt was applied.
func (d *Driver) SetOptionDefault(ctx context.Context, opt Option) (bool, error) {
	if d.HasOption(opt.Kind()) {
		return false, nil
	}
	if err := d.SetOption(ctx, opt); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Driver) HasOption(kind OptionKind) bool {
	return slices.ContainsFunc(d.options, func(o Option) bool { return o.Kind() == kind })
}

// Options returns the applied options in order.
func (d *Driver) Options() []Option { return slices.Clone(d.options) }

// ThreadAware reports whether sessions may be used from goroutines other
// than the one that created them. database/sql drivers always allow it.
func (d *Driver) ThreadAware() bool { return true }

// ThreadStart registers the calling goroutine. It always succeeds; the
// count feeds the sqlpp_registered_threads gauge.
func (d *Driver) ThreadStart() bool {
	d.threads.Add(1)
	d.metrics.threads.Inc()
	return true
}

// ThreadEnd undoes ThreadStart.
func (d *Driver) ThreadEnd() {
	if d.threads.Add(-1) < 0 {
		d.threads.Store(0)
		return
	}
	d.metrics.threads.Dec()
}

// Threads returns the number of registered goroutines.
func (d *Driver) Threads() int { return int(d.threads.Load()) }

func (d *Driver) admin(ctx context.Context, what, stmt string) error {
	if stmt == "" {
		d.clearError()
		return d.fail(errors.OpAdmin, errors.New(errors.ErrUnsupported, "%s has no %s", d.dialect.Name(), what))
	}
	if err := d.ready(errors.OpAdmin, stmt); err != nil {
		return err
	}
	start := d.cfg.Clock.Now()
	_, err := d.conn.ExecContext(ctx, stmt)
	d.track("admin", stmt, start, err)
	if err != nil {
		return d.fail(errors.OpAdmin, err)
	}
	return nil
}

// Shutdown asks the server to shut down. The local session is untouched.
func (d *Driver) Shutdown(ctx context.Context) error {
	return d.admin(ctx, "shutdown", d.dialect.ShutdownSQL())
}

// Kill terminates the server thread id.
func (d *Driver) Kill(ctx context.Context, id int64) error {
	return d.admin(ctx, "kill", d.dialect.KillSQL(id))
}

// SelectDB makes name the default database of the session.
func (d *Driver) SelectDB(ctx context.Context, name string) error {
	if err := d.admin(ctx, "database switch", d.dialect.SelectDBSQL(name)); err != nil {
		return err
	}
	d.params.Database = name
	return nil
}

func (d *Driver) CreateDB(ctx context.Context, name string) error {
	return d.admin(ctx, "create database", d.dialect.CreateDBSQL(name))
}

func (d *Driver) DropDB(ctx context.Context, name string) error {
	return d.admin(ctx, "drop database", d.dialect.DropDBSQL(name))
}

// scalar runs stmt and returns the first column of its only row.
func (d *Driver) scalar(ctx context.Context, what, stmt string) (value.Adapter, error) {
	if stmt == "" {
		d.clearError()
		return value.Adapter{}, d.fail(errors.OpAdmin, errors.New(errors.ErrUnsupported, "%s has no %s", d.dialect.Name(), what))
	}
	res, err := d.Store(ctx, stmt)
	if err != nil {
		return value.Adapter{}, err
	}
	row, err := res.Row(0)
	if err != nil {
		return value.Adapter{}, d.fail(errors.OpAdmin, err)
	}
	return row.At(0)
}

// ThreadID returns the server's id for this session.
func (d *Driver) ThreadID(ctx context.Context) (int64, error) {
	v, err := d.scalar(ctx, "thread id", d.dialect.ThreadIDSQL())
	if err != nil {
		return 0, err
	}
	id, err := v.Int64()
	if err != nil {
		return 0, d.fail(errors.OpAdmin, err)
	}
	return id, nil
}

// ServerVersion returns the server version string, cached per session.
func (d *Driver) ServerVersion(ctx context.Context) (string, error) {
	if d.version != "" {
		return d.version, nil
	}
	v, err := d.scalar(ctx, "version query", d.dialect.VersionSQL())
	if err != nil {
		return "", err
	}
	d.version = v.String()
	return d.version, nil
}

// ServerInfo returns the cached version string, "" before ServerVersion.
func (d *Driver) ServerInfo() string { return d.version }

// Copy returns a new driver with the same collaborators and options,
// connected with the same parameters if d is connected.
func (d *Driver) Copy(ctx context.Context) (*Driver, error) {
	nd := New(d.dialect, d.cfg)
	nd.options = slices.Clone(d.options)
	nd.reconnect = d.reconnect
	if !d.Connected() {
		return nd, nil
	}
	if err := nd.Connect(ctx, d.params); err != nil {
		return nd, err
	}
	return nd, nil
}

// Cursor streams the rows of a Use query.
type Cursor struct {
	d      *Driver
	rows   *sql.Rows
	fields result.Fields
	closed bool
}

func (c *Cursor) Fields() result.Fields { return c.fields }

// FetchRow returns the next row, or io.EOF after the last one.
func (c *Cursor) FetchRow() ([]value.Adapter, error) {
	if c.closed {
		return nil, io.EOF
	}
	if c.rows.Next() {
		vals, err := scanRow(c.rows, c.fields)
		if err != nil {
			return nil, c.d.fail(errors.OpFetch, err)
		}
		return vals, nil
	}
	if err := c.rows.Err(); err != nil {
		return nil, c.d.fail(errors.OpFetch, err)
	}
	return nil, io.EOF
}

// Close discards unread rows, including any further result sets, and
// frees the driver for the next statement.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.d.cursor == c {
		c.d.cursor = nil
	}
	return c.rows.Close()
}
