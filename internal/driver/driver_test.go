package driver

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/carlosnayan/sqlpp/internal/dialect"
	sqlerrors "github.com/carlosnayan/sqlpp/internal/errors"
	"github.com/carlosnayan/sqlpp/internal/logger"
	sqltest "github.com/carlosnayan/sqlpp/internal/testing"
	"github.com/carlosnayan/sqlpp/value"
)

func newTestDriver(t *testing.T, srv *sqltest.Server, d dialect.Dialect) *Driver {
	t.Helper()
	if d == nil {
		d = &dialect.MySQLDialect{}
	}
	return New(d, Config{
		Open:       srv.Open,
		Clock:      clock.NewFake(),
		Registerer: prometheus.NewRegistry(),
		Logger:     logger.NewLogger(nil, io.Discard),
	})
}

func connected(t *testing.T, srv *sqltest.Server) *Driver {
	t.Helper()
	d := newTestDriver(t, srv, nil)
	if err := d.Connect(context.Background(), dialect.Params{User: "root", Database: sqltest.StockDatabase}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(d.Disconnect)
	return d
}

func TestConnectAndStore(t *testing.T) {
	srv := sqltest.NewServer()
	sqltest.ServeStock(srv, "select * from stock")
	d := connected(t, srv)

	if dsns := srv.DSNs(); len(dsns) != 1 || dsns[0] != "root@tcp(localhost:3306)/sqlpp_sample" {
		t.Fatalf("DSNs = %v", dsns)
	}

	res, err := d.Store(context.Background(), "select * from stock")
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if res.NumRows() != 4 || res.NumFields() != 5 {
		t.Fatalf("stored %d rows x %d fields", res.NumRows(), res.NumFields())
	}
	fields := res.Fields()
	if fields[0].Type != value.TypeString || fields[0].Nullable || fields[0].Length != 20 {
		t.Errorf("item field = %+v", fields[0])
	}
	if fields[1].Type != value.TypeInt64.Nullable() {
		t.Errorf("num type = %s", fields[1].Type)
	}
	if fields[4].Type != value.TypeDate.Nullable() {
		t.Errorf("sdate type = %s", fields[4].Type)
	}

	row, _ := res.Row(2)
	w, _ := row.Field("weight")
	if f, err := w.Float64(); err != nil || f != 0.95 {
		t.Errorf("weight = %v, %v", f, err)
	}
	item, _ := row.At(0)
	if !item.IsColumnData() || item.String() != "Hot Mustard" {
		t.Errorf("item = %q column=%v", item, item.IsColumnData())
	}
	sdate, _ := row.Field("sdate")
	if dt, err := sdate.Date(); err != nil || dt != (value.Date{Year: 1998, Month: 5, Day: 25}) {
		t.Errorf("sdate = %v, %v", dt, err)
	}
	if d.MoreResults() {
		t.Error("single result set reported more results")
	}
	if got := testutil.ToFloat64(d.metrics.queries.WithLabelValues("store")); got != 1 {
		t.Errorf("store counter = %v", got)
	}
}

func TestNotConnected(t *testing.T) {
	d := newTestDriver(t, sqltest.NewServer(), nil)
	_, err := d.Exec(context.Background(), "select 1")
	if !errors.Is(err, sqlerrors.ErrNotConnected) {
		t.Fatalf("Exec before Connect = %v", err)
	}
	if d.Error() == "" {
		t.Error("failure not recorded")
	}
	if err := d.Ping(context.Background()); !errors.Is(err, sqlerrors.ErrNotConnected) {
		t.Errorf("Ping before Connect = %v", err)
	}
}

func TestConnectFailure(t *testing.T) {
	srv := sqltest.NewServer()
	srv.FailConnect(errors.New("dial tcp: connection refused"))
	d := newTestDriver(t, srv, nil)

	err := d.Connect(context.Background(), dialect.Params{})
	if !sqlerrors.IsConnection(err) {
		t.Fatalf("Connect() error = %v, want a connection error", err)
	}
	if d.Connected() {
		t.Error("driver claims to be connected")
	}

	bad := newTestDriver(t, srv, &dialect.SQLiteDialect{})
	if err := bad.Connect(context.Background(), dialect.Params{}); !sqlerrors.IsConnection(err) {
		t.Errorf("SQLite without a path = %v", err)
	}
}

func TestQueryFailureRecordsErrnum(t *testing.T) {
	srv := sqltest.NewServer()
	srv.OnExec("delete from stock", 4, 0)
	d := connected(t, srv)

	_, err := d.Exec(context.Background(), "selec 1")
	if !errors.Is(err, sqlerrors.ErrBadQuery) {
		t.Fatalf("Exec(bad sql) = %v", err)
	}
	if d.Errnum() != 1064 || sqlerrors.ErrnumOf(err) != 1064 {
		t.Errorf("Errnum() = %d, ErrnumOf = %d", d.Errnum(), sqlerrors.ErrnumOf(err))
	}
	if !strings.Contains(d.Error(), "syntax") {
		t.Errorf("Error() = %q", d.Error())
	}

	res, err := d.Exec(context.Background(), "delete from stock")
	if err != nil || res.RowsAffected != 4 || !res.Success() {
		t.Fatalf("Exec() = %+v, %v", res, err)
	}
	if d.Error() != "" || d.Errnum() != 0 {
		t.Errorf("successful call kept stale error %q/%d", d.Error(), d.Errnum())
	}
}

func TestExecInsertID(t *testing.T) {
	srv := sqltest.NewServer()
	srv.OnExec("insert into stock (item) values ('Bratwurst')", 1, 42)
	d := connected(t, srv)

	res, err := d.Exec(context.Background(), "insert into stock (item) values ('Bratwurst')")
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if res.RowsAffected != 1 || res.InsertID != 42 {
		t.Errorf("Exec() = %+v", res)
	}
}

func TestUseHoldsDriver(t *testing.T) {
	srv := sqltest.NewServer()
	sqltest.ServeStock(srv, "select * from stock")
	d := connected(t, srv)
	ctx := context.Background()

	cur, err := d.Use(ctx, "select * from stock")
	if err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if len(cur.Fields()) != 5 {
		t.Errorf("cursor fields = %d", len(cur.Fields()))
	}
	if _, err := d.Exec(ctx, "select 1"); !errors.Is(err, sqlerrors.ErrLockFailed) {
		t.Errorf("Exec during Use = %v", err)
	}

	n := 0
	for {
		vals, err := cur.FetchRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("FetchRow() error = %v", err)
		}
		if len(vals) != 5 {
			t.Fatalf("row %d has %d values", n, len(vals))
		}
		n++
	}
	if n != 4 {
		t.Errorf("fetched %d rows", n)
	}
	if err := cur.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, err := d.Exec(ctx, "select 1"); errors.Is(err, sqlerrors.ErrLockFailed) {
		t.Errorf("driver still busy after Close: %v", err)
	}
}

func TestUseClosedEarly(t *testing.T) {
	srv := sqltest.NewServer()
	sqltest.ServeStock(srv, "select * from stock")
	srv.OnExec("update stock set num = 0", 4, 0)
	d := connected(t, srv)
	ctx := context.Background()

	cur, err := d.Use(ctx, "select * from stock")
	if err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if _, err := cur.FetchRow(); err != nil {
		t.Fatalf("FetchRow() error = %v", err)
	}
	cur.Close()
	if _, err := cur.FetchRow(); err != io.EOF {
		t.Errorf("FetchRow after Close = %v", err)
	}
	if _, err := d.Exec(ctx, "update stock set num = 0"); err != nil {
		t.Errorf("Exec after closing the cursor early = %v", err)
	}
}

func TestMultipleResultSets(t *testing.T) {
	srv := sqltest.NewServer()
	srv.On("call report()", sqltest.Response{Sets: []sqltest.ResultSet{
		{Columns: []sqltest.Column{{Name: "n", Type: "BIGINT"}}, Rows: [][]any{{int64(1)}, {int64(2)}}},
		{Columns: []sqltest.Column{{Name: "name", Type: "VARCHAR"}}, Rows: [][]any{{"a"}}},
	}})
	d := connected(t, srv)
	ctx := context.Background()

	first, err := d.Store(ctx, "call report()")
	if err != nil || first.NumRows() != 2 {
		t.Fatalf("first set = %v rows, %v", first.NumRows(), err)
	}
	if !d.MoreResults() {
		t.Fatal("MoreResults() = false after first set")
	}
	second, err := d.StoreNext(ctx)
	if err != nil || second.NumRows() != 1 || second.FieldNames().Names()[0] != "name" {
		t.Fatalf("second set = %v, %v", second, err)
	}
	if d.MoreResults() {
		t.Error("MoreResults() = true after last set")
	}
	if _, err := d.StoreNext(ctx); !errors.Is(err, sqlerrors.ErrEndOfResults) {
		t.Errorf("StoreNext past the end = %v", err)
	}
}

func TestStoreRowCap(t *testing.T) {
	srv := sqltest.NewServer()
	sqltest.ServeStock(srv, "select * from stock")
	d := New(&dialect.MySQLDialect{}, Config{Open: srv.Open, Logger: logger.NewLogger(nil, io.Discard), MaxRows: 2})
	if err := d.Connect(context.Background(), dialect.Params{}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer d.Disconnect()

	if _, err := d.Store(context.Background(), "select * from stock"); !errors.Is(err, sqlerrors.ErrQueryTooLarge) {
		t.Errorf("Store over the cap = %v", err)
	}
}

func TestOptions(t *testing.T) {
	srv := sqltest.NewServer()
	d := newTestDriver(t, srv, nil)
	ctx := context.Background()

	if err := d.SetOption(ctx, Compress{}); err != nil {
		t.Fatalf("SetOption(Compress) error = %v", err)
	}
	if ok, err := d.SetOptionDefault(ctx, ConnectTimeout(5*time.Second)); !ok || err != nil {
		t.Fatalf("first SetOptionDefault = %v, %v", ok, err)
	}
	if ok, _ := d.SetOptionDefault(ctx, ConnectTimeout(time.Second)); ok {
		t.Error("second SetOptionDefault of the same kind was applied")
	}
	if err := d.Connect(ctx, dialect.Params{Host: "db.example"}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer d.Disconnect()

	dsn := srv.DSNs()[0]
	if !strings.Contains(dsn, "compress=true") || !strings.Contains(dsn, "timeout=5s") {
		t.Errorf("DSN %q does not carry the options", dsn)
	}
	if len(d.Options()) != 2 {
		t.Errorf("Options() = %v", d.Options())
	}

	if err := d.SetOption(ctx, FoundRows(true)); !errors.Is(err, sqlerrors.ErrBadOption) {
		t.Errorf("FoundRows after connect = %v", err)
	}
	if err := d.SetOption(ctx, Charset("utf8mb4")); err != nil {
		t.Errorf("Charset after connect = %v", err)
	}
	if got := srv.LastStatement(); got != "SET NAMES 'utf8mb4'" {
		t.Errorf("charset statement = %q", got)
	}
}

func TestPingReconnect(t *testing.T) {
	srv := sqltest.NewServer()
	d := newTestDriver(t, srv, nil)
	ctx := context.Background()
	d.SetOption(ctx, Reconnect(true))
	if err := d.Connect(ctx, dialect.Params{}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer d.Disconnect()

	srv.FailPing(errors.New("gone away"))
	if err := d.Ping(ctx); err != nil {
		t.Fatalf("Ping() with reconnect = %v", err)
	}
	if len(srv.DSNs()) != 2 {
		t.Errorf("expected one reconnect, opened %d times", len(srv.DSNs()))
	}
	if srv.OpenConns() != 1 {
		t.Errorf("open connections = %d", srv.OpenConns())
	}
}

func TestPingWithoutReconnect(t *testing.T) {
	srv := sqltest.NewServer()
	d := connected(t, srv)

	srv.FailPing(errors.New("gone away"))
	err := d.Ping(context.Background())
	if !sqlerrors.IsConnection(err) {
		t.Fatalf("Ping() = %v, want a connection error", err)
	}
	if len(srv.DSNs()) != 1 {
		t.Errorf("reconnected without the option")
	}
}

func TestAdminCommands(t *testing.T) {
	srv := sqltest.NewServer()
	d := connected(t, srv)
	ctx := context.Background()

	if id, err := d.ThreadID(ctx); err != nil || id != 7 {
		t.Errorf("ThreadID() = %d, %v", id, err)
	}
	if v, err := d.ServerVersion(ctx); err != nil || v != "8.0.36-fake" || d.ServerInfo() != v {
		t.Errorf("ServerVersion() = %q, %v", v, err)
	}
	if err := d.Kill(ctx, 12); err != nil || srv.LastStatement() != "KILL 12" {
		t.Errorf("Kill() = %v, last %q", err, srv.LastStatement())
	}
	if err := d.SelectDB(ctx, "other"); err != nil || d.Params().Database != "other" {
		t.Errorf("SelectDB() = %v, db %q", err, d.Params().Database)
	}
	if err := d.CreateDB(ctx, "scratch"); err != nil {
		t.Errorf("CreateDB() = %v", err)
	}
	if err := d.DropDB(ctx, "scratch"); err != nil {
		t.Errorf("DropDB() = %v", err)
	}
	if err := d.Shutdown(ctx); err != nil || !d.Connected() {
		t.Errorf("Shutdown() = %v, connected %v", err, d.Connected())
	}
}

func TestAdminUnsupported(t *testing.T) {
	srv := sqltest.NewServer()
	d := newTestDriver(t, srv, &dialect.SQLiteDialect{})
	if err := d.Connect(context.Background(), dialect.Params{Database: "stock.db"}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer d.Disconnect()

	if err := d.Shutdown(context.Background()); !errors.Is(err, sqlerrors.ErrUnsupported) {
		t.Errorf("SQLite Shutdown() = %v", err)
	}
	if _, err := d.ThreadID(context.Background()); !errors.Is(err, sqlerrors.ErrUnsupported) {
		t.Errorf("SQLite ThreadID() = %v", err)
	}
	if len(srv.Statements()) != 0 {
		t.Errorf("unsupported commands reached the server: %v", srv.Statements())
	}
}

func TestReadDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my.cnf")
	cnf := `# sample
[mysql]
user = wrong

[client]
user = bob
password = "s3 cret"
host = db.example
port = 3307
default-character-set = latin1
`
	if err := os.WriteFile(path, []byte(cnf), 0o600); err != nil {
		t.Fatal(err)
	}

	srv := sqltest.NewServer()
	d := newTestDriver(t, srv, nil)
	if err := d.SetOption(context.Background(), ReadDefaultFile{Path: path}); err != nil {
		t.Fatalf("SetOption(ReadDefaultFile) error = %v", err)
	}
	if err := d.Connect(context.Background(), dialect.Params{Database: "stock"}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer d.Disconnect()

	dsn := srv.DSNs()[0]
	if !strings.HasPrefix(dsn, "bob:s3 cret@tcp(db.example:3307)/stock") || !strings.Contains(dsn, "charset=latin1") {
		t.Errorf("DSN = %q", dsn)
	}

	missing := newTestDriver(t, srv, nil)
	err := missing.SetOption(context.Background(), ReadDefaultFile{Path: filepath.Join(t.TempDir(), "nope.cnf")})
	if !errors.Is(err, sqlerrors.ErrBadOption) {
		t.Errorf("missing default file = %v", err)
	}
}

func TestCopy(t *testing.T) {
	srv := sqltest.NewServer()
	d := connected(t, srv)
	ctx := context.Background()
	d.SetOption(ctx, Reconnect(true))

	cp, err := d.Copy(ctx)
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	defer cp.Disconnect()
	if !cp.Connected() || cp.Params() != d.Params() {
		t.Errorf("copy connected=%v params=%+v", cp.Connected(), cp.Params())
	}
	if !cp.HasOption(KindReconnect) {
		t.Error("copy lost the option list")
	}
	if srv.OpenConns() != 2 {
		t.Errorf("open connections = %d", srv.OpenConns())
	}
}

func TestThreadHooks(t *testing.T) {
	d := newTestDriver(t, sqltest.NewServer(), nil)
	if !d.ThreadAware() {
		t.Error("ThreadAware() = false")
	}
	d.ThreadStart()
	d.ThreadStart()
	d.ThreadEnd()
	if d.Threads() != 1 || testutil.ToFloat64(d.metrics.threads) != 1 {
		t.Errorf("threads = %d, gauge %v", d.Threads(), testutil.ToFloat64(d.metrics.threads))
	}
	d.ThreadEnd()
	d.ThreadEnd()
	if d.Threads() != 0 {
		t.Errorf("threads went negative: %d", d.Threads())
	}
}

func TestOptionKindString(t *testing.T) {
	if KindReadDefaultFile.String() != "read_default_file" || OptionKind(99).String() != "option(99)" {
		t.Error("unexpected option kind names")
	}
}
