package testing

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
)

// Column describes a column served by the fake server.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Length   int64
}

// ResultSet is one set of rows. Row values must be valid driver.Values.
type ResultSet struct {
	Columns []Column
	Rows    [][]any
}

// Response is what the fake server answers to one statement.
type Response struct {
	Sets         []ResultSet
	RowsAffected int64
	InsertID     int64
	Err          error
}

// Server is an in-memory database/sql backend answering scripted statements.
// Statements with no script get a MySQL syntax error (1064), except for the
// administrative statements the dialects emit, which succeed.
type Server struct {
	mu         sync.Mutex
	responses  map[string]Response
	statements []string
	dsns       []string
	connectErr error
	pingErr    error
	open       int
	threadID   int64
}

func NewServer() *Server {
	return &Server{responses: map[string]Response{}, threadID: 7}
}

// On scripts the response for an exact statement text.
func (s *Server) On(query string, r Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[query] = r
}

// OnQuery scripts a single result set.
func (s *Server) OnQuery(query string, cols []Column, rows ...[]any) {
	s.On(query, Response{Sets: []ResultSet{{Columns: cols, Rows: rows}}})
}

// OnExec scripts a statement returning no rows.
func (s *Server) OnExec(query string, affected, insertID int64) {
	s.On(query, Response{RowsAffected: affected, InsertID: insertID})
}

// OnError scripts a failing statement.
func (s *Server) OnError(query string, err error) {
	s.On(query, Response{Err: err})
}

func (s *Server) FailConnect(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectErr = err
}

// FailPing makes the next ping fail as if the session had dropped.
func (s *Server) FailPing(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
}

// Statements returns every statement received, in order.
func (s *Server) Statements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statements...)
}

// LastStatement returns the most recent statement, or "".
func (s *Server) LastStatement() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statements) == 0 {
		return ""
	}
	return s.statements[len(s.statements)-1]
}

// DSNs returns the DSNs connections were opened with.
func (s *Server) DSNs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.dsns...)
}

// OpenConns returns the number of physical connections currently open.
func (s *Server) OpenConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Open has the signature of sql.Open and hands out handles to this server.
func (s *Server) Open(driverName, dsn string) (*sql.DB, error) {
	s.mu.Lock()
	s.dsns = append(s.dsns, dsn)
	s.mu.Unlock()
	return sql.OpenDB(&connector{srv: s}), nil
}

func (s *Server) respond(query string) Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statements = append(s.statements, query)
	if r, ok := s.responses[query]; ok {
		return r
	}
	return s.builtin(query)
}

func (s *Server) builtin(query string) Response {
	upper := strings.ToUpper(query)
	switch {
	case upper == "SELECT VERSION()":
		return Response{Sets: []ResultSet{{
			Columns: []Column{{Name: "VERSION()", Type: "VARCHAR"}},
			Rows:    [][]any{{[]byte("8.0.36-fake")}},
		}}}
	case upper == "SELECT CONNECTION_ID()":
		return Response{Sets: []ResultSet{{
			Columns: []Column{{Name: "CONNECTION_ID()", Type: "UNSIGNED BIGINT"}},
			Rows:    [][]any{{s.threadID}},
		}}}
	case upper == "SHUTDOWN",
		strings.HasPrefix(upper, "KILL "),
		strings.HasPrefix(upper, "USE "),
		strings.HasPrefix(upper, "CREATE DATABASE "),
		strings.HasPrefix(upper, "DROP DATABASE "),
		strings.HasPrefix(upper, "SET NAMES "):
		return Response{}
	}
	return Response{Err: &mysql.MySQLError{
		Number:  1064,
		Message: fmt.Sprintf("You have an error in your SQL syntax near '%s'", query),
	}}
}

type connector struct {
	srv *Server
}

func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	if c.srv.connectErr != nil {
		return nil, c.srv.connectErr
	}
	c.srv.open++
	return &conn{srv: c.srv}, nil
}

func (c *connector) Driver() driver.Driver { return fakeDriver{srv: c.srv} }

type fakeDriver struct {
	srv *Server
}

func (d fakeDriver) Open(name string) (driver.Conn, error) {
	return (&connector{srv: d.srv}).Connect(context.Background())
}

type conn struct {
	srv    *Server
	closed bool
}

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return &stmt{conn: c, query: query}, nil
}

func (c *conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.srv.mu.Lock()
	c.srv.open--
	c.srv.mu.Unlock()
	return nil
}

func (c *conn) Begin() (driver.Tx, error) {
	return nil, errors.New("fake server: transactions not supported")
}

func (c *conn) Ping(ctx context.Context) error {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	if c.srv.pingErr != nil {
		c.srv.pingErr = nil
		return driver.ErrBadConn
	}
	return nil
}

func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if len(args) > 0 {
		return nil, driver.ErrSkip
	}
	r := c.srv.respond(query)
	if r.Err != nil {
		return nil, r.Err
	}
	return &rows{sets: r.Sets}, nil
}

func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if len(args) > 0 {
		return nil, driver.ErrSkip
	}
	r := c.srv.respond(query)
	if r.Err != nil {
		return nil, r.Err
	}
	return execResult{affected: r.RowsAffected, id: r.InsertID}, nil
}

type stmt struct {
	conn  *conn
	query string
}

func (s *stmt) Close() error  { return nil }
func (s *stmt) NumInput() int { return -1 }

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.conn.ExecContext(context.Background(), s.query, nil)
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.conn.QueryContext(context.Background(), s.query, nil)
}

type execResult struct {
	affected int64
	id       int64
}

func (r execResult) LastInsertId() (int64, error) { return r.id, nil }
func (r execResult) RowsAffected() (int64, error) { return r.affected, nil }

type rows struct {
	sets []ResultSet
	set  int
	pos  int
}

func (r *rows) current() ResultSet {
	if r.set >= len(r.sets) {
		return ResultSet{}
	}
	return r.sets[r.set]
}

func (r *rows) Columns() []string {
	cols := r.current().Columns
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func (r *rows) Close() error { return nil }

func (r *rows) Next(dest []driver.Value) error {
	set := r.current()
	if r.pos >= len(set.Rows) {
		return io.EOF
	}
	for i, v := range set.Rows[r.pos] {
		dest[i] = v
	}
	r.pos++
	return nil
}

func (r *rows) HasNextResultSet() bool { return r.set+1 < len(r.sets) }

func (r *rows) NextResultSet() error {
	if !r.HasNextResultSet() {
		return io.EOF
	}
	r.set++
	r.pos = 0
	return nil
}

func (r *rows) ColumnTypeDatabaseTypeName(index int) string {
	return r.current().Columns[index].Type
}

func (r *rows) ColumnTypeNullable(index int) (nullable, ok bool) {
	return r.current().Columns[index].Nullable, true
}

func (r *rows) ColumnTypeLength(index int) (length int64, ok bool) {
	l := r.current().Columns[index].Length
	return l, l > 0
}
