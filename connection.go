package sqlpp

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/jmhodges/clock"

	"github.com/carlosnayan/sqlpp/builder"
	"github.com/carlosnayan/sqlpp/internal/cache"
	contextutil "github.com/carlosnayan/sqlpp/internal/context"
	"github.com/carlosnayan/sqlpp/internal/dialect"
	"github.com/carlosnayan/sqlpp/internal/driver"
	"github.com/carlosnayan/sqlpp/internal/errors"
	"github.com/carlosnayan/sqlpp/internal/logger"
	"github.com/carlosnayan/sqlpp/result"
)

// State is where a Connection is in its lifecycle.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Connection is one session with a server. It runs one statement at a
// time: a streamed result keeps it busy until the result is closed.
//
// A Connection is not safe for concurrent use. Use Copy to get a second
// session for another goroutine.
type Connection struct {
	drv   *driver.Driver
	set   settings
	state atomic.Int32
	busy  atomic.Bool
	// lockGen counts lock acquisitions and disconnects; a streamed result
	// only releases the lock it took.
	lockGen atomic.Uint64
	err     error
}

// New returns a disconnected Connection for provider ("mysql",
// "postgresql" or "sqlite").
func New(provider string, opts ...Setting) (*Connection, error) {
	d, ok := dialect.Lookup(provider)
	if !ok {
		return nil, errors.New(errors.ErrBadOption, "unknown provider %q", provider)
	}
	var s settings
	for _, o := range opts {
		o(&s)
	}
	if s.clk == nil {
		s.clk = clock.New()
	}
	if s.log == nil {
		s.log = logger.GetDefaultLogger()
	}
	if s.templates == nil {
		s.templates = cache.DefaultTemplateCache()
	}
	c := &Connection{set: s}
	c.drv = driver.New(d, driver.Config{
		Open:       s.open,
		Clock:      s.clk,
		Registerer: s.registerer,
		Logger:     s.log,
		MaxRows:    s.maxRows,
	})
	for _, o := range s.options {
		if err := c.drv.SetOption(context.Background(), o); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Connect builds a Connection and connects it with p. In sentinel mode a
// failed connect still returns the Connection, in the Failed state.
func Connect(ctx context.Context, provider string, p Params, opts ...Setting) (*Connection, error) {
	c, err := New(provider, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx, p); err != nil {
		return c, err
	}
	return c, nil
}

// Connect opens the session, closing any previous one.
func (c *Connection) Connect(ctx context.Context, p Params) error {
	if !c.Lock() {
		return c.fail(c.set.mode, errors.New(errors.ErrLockFailed, "connection is busy"))
	}
	defer c.Unlock()
	c.err = nil
	c.setState(Connecting)
	if err := c.drv.Connect(ctx, p); err != nil {
		c.setState(Failed)
		return c.fail(c.set.mode, err)
	}
	c.setState(Connected)
	return nil
}

// Disconnect closes the session and frees the connection lock. Open
// results become unusable.
func (c *Connection) Disconnect() {
	c.drv.Disconnect()
	c.setState(Disconnected)
	c.lockGen.Add(1)
	c.busy.Store(false)
}

// Close is Disconnect for use with defer.
func (c *Connection) Close() error {
	c.Disconnect()
	return nil
}

func (c *Connection) setState(s State) { c.state.Store(int32(s)) }

func (c *Connection) State() State { return State(c.state.Load()) }

func (c *Connection) Connected() bool { return c.State() == Connected }

// Lock marks the connection busy. It reports false, without waiting, when
// the connection is already busy.
func (c *Connection) Lock() bool {
	if !c.busy.CompareAndSwap(false, true) {
		return false
	}
	c.lockGen.Add(1)
	return true
}

func (c *Connection) Unlock() { c.busy.Store(false) }

// Locked reports whether a statement or a streamed result holds the
// connection.
func (c *Connection) Locked() bool { return c.busy.Load() }

// fail records err and filters it through mode.
func (c *Connection) fail(mode errors.Mode, err error) error {
	c.err = err
	if c.State() == Connected && !c.drv.Connected() {
		c.setState(Failed)
	}
	return mode.Filter(err)
}

// Error returns the text of the last failure, "" after a success.
func (c *Connection) Error() string {
	if c.err == nil {
		return ""
	}
	return c.err.Error()
}

// Errnum returns the server's error number for the last failure.
func (c *Connection) Errnum() int { return errors.ErrnumOf(c.err) }

// Err returns the last failure.
func (c *Connection) Err() error { return c.err }

func (c *Connection) ErrorMode() ErrorMode { return c.set.mode }

func (c *Connection) SetErrorMode(m ErrorMode) { c.set.mode = m }

// Dialect returns the server kind: "mysql", "postgresql" or "sqlite".
func (c *Connection) Dialect() string { return c.drv.Dialect().Name() }

// Params returns the parameters of the current session.
func (c *Connection) Params() Params { return c.drv.Params() }

// EscapeString escapes s for use between single quotes.
func (c *Connection) EscapeString(s string) string { return c.drv.EscapeString(s) }

// Query returns a new query on this connection, starting with text.
func (c *Connection) Query(text ...string) *builder.Query {
	q := builder.New(session{c}, builder.Config{
		Templates: c.set.templates,
		Logger:    c.set.log,
		Clock:     c.set.clk,
		Repeats:   c.set.repeats,
	})
	for _, t := range text {
		q.WriteString(t)
	}
	return q
}

// acquire takes the lock for one statement.
func (c *Connection) acquire(mode errors.Mode) error {
	c.err = nil
	if !c.Connected() {
		return c.fail(mode, errors.ErrNotConnected)
	}
	if !c.Lock() {
		return c.fail(mode, errors.New(errors.ErrLockFailed, "connection is busy"))
	}
	return nil
}

// failed reports whether the current call has failed. In sentinel mode it
// is the only sign, since no error is returned.
func (c *Connection) failed() bool { return c.err != nil }

func (c *Connection) exec(ctx context.Context, sql string, mode errors.Mode) (result.ExecResult, error) {
	if err := c.acquire(mode); err != nil || c.failed() {
		return result.ExecResult{}, err
	}
	defer c.Unlock()
	res, err := c.drv.Exec(ctx, sql)
	if err != nil {
		return result.ExecResult{}, c.fail(mode, err)
	}
	return res, nil
}

func (c *Connection) store(ctx context.Context, sql string, mode errors.Mode) (*result.Result, error) {
	if err := c.acquire(mode); err != nil || c.failed() {
		return result.Failed(), err
	}
	defer c.Unlock()
	res, err := c.drv.Store(ctx, sql)
	if err != nil {
		return result.Failed(), c.fail(mode, err)
	}
	return res, nil
}

func (c *Connection) use(ctx context.Context, sql string, mode errors.Mode) (*result.UseResult, error) {
	if err := c.acquire(mode); err != nil || c.failed() {
		return result.FailedUse(mode), err
	}
	cur, err := c.drv.Use(ctx, sql)
	if err != nil {
		c.Unlock()
		return result.FailedUse(mode), c.fail(mode, err)
	}
	gen := c.lockGen.Load()
	return result.NewUseResult(cur.Fields(), cur, mode, func() {
		if c.lockGen.Load() == gen {
			c.Unlock()
		}
	}), nil
}

func (c *Connection) storeNext(ctx context.Context, mode errors.Mode) (*result.Result, error) {
	if err := c.acquire(mode); err != nil || c.failed() {
		return result.Failed(), err
	}
	defer c.Unlock()
	res, err := c.drv.StoreNext(ctx)
	if err != nil {
		return result.Failed(), c.fail(mode, err)
	}
	return res, nil
}

// Exec sends sql, which must not return rows.
func (c *Connection) Exec(ctx context.Context, sql string) (result.ExecResult, error) {
	return c.exec(ctx, sql, c.set.mode)
}

// Store sends sql and buffers its first result set.
func (c *Connection) Store(ctx context.Context, sql string) (*result.Result, error) {
	return c.store(ctx, sql, c.set.mode)
}

// Use sends sql and streams its rows. The connection stays locked until
// the result is exhausted or closed.
func (c *Connection) Use(ctx context.Context, sql string) (*result.UseResult, error) {
	return c.use(ctx, sql, c.set.mode)
}

// StoreNext buffers the next result set of a multi-statement Store.
func (c *Connection) StoreNext(ctx context.Context) (*result.Result, error) {
	return c.storeNext(ctx, c.set.mode)
}

// MoreResults reports whether the last Store left result sets unread.
func (c *Connection) MoreResults() bool { return c.drv.MoreResults() }

// Ping checks that the server is alive. A disconnected connection fails at
// once with ErrNotConnected.
func (c *Connection) Ping(ctx context.Context) error {
	if err := c.acquire(c.set.mode); err != nil || c.failed() {
		return err
	}
	defer c.Unlock()
	ctx, cancel := contextutil.WithPingTimeout(ctx)
	defer cancel()
	if err := c.drv.Ping(ctx); err != nil {
		if !c.drv.Connected() {
			c.setState(Failed)
		}
		return c.fail(c.set.mode, err)
	}
	return nil
}

// admin runs one administrative call under the lock with the admin
// timeout.
func (c *Connection) admin(ctx context.Context, fn func(context.Context) error) error {
	if err := c.acquire(c.set.mode); err != nil || c.failed() {
		return err
	}
	defer c.Unlock()
	ctx, cancel := contextutil.WithAdminTimeout(ctx)
	defer cancel()
	if err := fn(ctx); err != nil {
		return c.fail(c.set.mode, err)
	}
	return nil
}

// Shutdown asks the server to shut down.
func (c *Connection) Shutdown(ctx context.Context) error { return c.admin(ctx, c.drv.Shutdown) }

// Kill terminates the server thread id.
func (c *Connection) Kill(ctx context.Context, id int64) error {
	return c.admin(ctx, func(ctx context.Context) error { return c.drv.Kill(ctx, id) })
}

// SelectDB changes the default database of the session.
func (c *Connection) SelectDB(ctx context.Context, name string) error {
	return c.admin(ctx, func(ctx context.Context) error { return c.drv.SelectDB(ctx, name) })
}

func (c *Connection) CreateDB(ctx context.Context, name string) error {
	return c.admin(ctx, func(ctx context.Context) error { return c.drv.CreateDB(ctx, name) })
}

func (c *Connection) DropDB(ctx context.Context, name string) error {
	return c.admin(ctx, func(ctx context.Context) error { return c.drv.DropDB(ctx, name) })
}

// ThreadID returns the server's id for this session, 0 on failure.
func (c *Connection) ThreadID(ctx context.Context) (int64, error) {
	var id int64
	err := c.admin(ctx, func(ctx context.Context) (err error) {
		id, err = c.drv.ThreadID(ctx)
		return err
	})
	return id, err
}

// ServerVersion returns the server's version string, "" on failure.
func (c *Connection) ServerVersion(ctx context.Context) (string, error) {
	var v string
	err := c.admin(ctx, func(ctx context.Context) (err error) {
		v, err = c.drv.ServerVersion(ctx)
		return err
	})
	return v, err
}

// ServerInfo returns the version string cached by ServerVersion.
func (c *Connection) ServerInfo() string { return c.drv.ServerInfo() }

// Status describes the session in one line.
func (c *Connection) Status() string {
	var b strings.Builder
	b.WriteString(c.Dialect())
	b.WriteString(" ")
	b.WriteString(c.State().String())
	if v := c.drv.ServerInfo(); v != "" {
		b.WriteString(", server ")
		b.WriteString(v)
	}
	if db := c.drv.Params().Database; db != "" && c.Connected() {
		b.WriteString(", database ")
		b.WriteString(db)
	}
	return b.String()
}

// ThreadAware reports whether the session may be used from a goroutine
// other than the one that opened it.
func (c *Connection) ThreadAware() bool { return c.drv.ThreadAware() }

// ThreadStart registers the calling goroutine; pair it with ThreadEnd.
func (c *Connection) ThreadStart() bool { return c.drv.ThreadStart() }

func (c *Connection) ThreadEnd() { c.drv.ThreadEnd() }

// SetOption applies a connection option. Before Connect every option is
// accepted; afterwards only Reconnect and Charset.
func (c *Connection) SetOption(ctx context.Context, opt Option) error {
	c.err = nil
	if c.Connected() {
		if !c.Lock() {
			return c.fail(c.set.mode, errors.New(errors.ErrLockFailed, "connection is busy"))
		}
		defer c.Unlock()
	}
	if err := c.drv.SetOption(ctx, opt); err != nil {
		return c.fail(c.set.mode, err)
	}
	return nil
}

// SetOptionDefault applies opt unless an option of its kind is already
// set, and reports whether it did.
func (c *Connection) SetOptionDefault(ctx context.Context, opt Option) (bool, error) {
	if c.drv.HasOption(opt.Kind()) {
		return false, nil
	}
	if err := c.SetOption(ctx, opt); err != nil || c.failed() {
		return false, err
	}
	return true, nil
}

func (c *Connection) HasOption(kind OptionKind) bool { return c.drv.HasOption(kind) }

// Copy returns a new connection with the same settings and options,
// connected to the same server if c is connected.
func (c *Connection) Copy(ctx context.Context) (*Connection, error) {
	nd, err := c.drv.Copy(ctx)
	nc := &Connection{drv: nd, set: c.set}
	if nd.Connected() {
		nc.setState(Connected)
	}
	if err != nil {
		nc.setState(Failed)
		return nc, nc.fail(c.set.mode, err)
	}
	return nc, nil
}

// session adapts a Connection to builder.Session.
type session struct{ c *Connection }

func (s session) EscapeString(str string) string { return s.c.EscapeString(str) }
func (s session) ErrorMode() errors.Mode         { return s.c.set.mode }
func (s session) MoreResults() bool              { return s.c.MoreResults() }
func (s session) Error() string                  { return s.c.Error() }
func (s session) Errnum() int                    { return s.c.Errnum() }

func (s session) Exec(ctx context.Context, sql string, mode errors.Mode) (result.ExecResult, error) {
	return s.c.exec(ctx, sql, mode)
}

func (s session) Store(ctx context.Context, sql string, mode errors.Mode) (*result.Result, error) {
	return s.c.store(ctx, sql, mode)
}

func (s session) Use(ctx context.Context, sql string, mode errors.Mode) (*result.UseResult, error) {
	return s.c.use(ctx, sql, mode)
}

func (s session) StoreNext(ctx context.Context, mode errors.Mode) (*result.Result, error) {
	return s.c.storeNext(ctx, mode)
}

var _ builder.Session = session{}
