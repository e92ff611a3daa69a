package dialect

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/carlosnayan/sqlpp/value"
)

// SQLiteDialect implements the SQLite dialect
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string {
	return "sqlite"
}

func (d *SQLiteDialect) GetDriverName() string {
	return "sqlite3"
}

// BuildDSN uses Params.Database as the file path; ":memory:" is accepted.
func (d *SQLiteDialect) BuildDSN(p Params, s Settings) (string, error) {
	if s.Compress || s.TLS != nil || s.LocalFiles || s.FoundRows {
		return "", fmt.Errorf("sqlite: network options are not supported")
	}
	if p.Database == "" {
		return "", fmt.Errorf("sqlite: database path is required")
	}
	q := url.Values{}
	if s.ConnectTimeout > 0 {
		q.Set("_busy_timeout", strconv.FormatInt(s.ConnectTimeout.Milliseconds(), 10))
	}
	dsn := "file:" + p.Database
	if len(q) > 0 {
		dsn += "?" + q.Encode()
	}
	return dsn, nil
}

func (d *SQLiteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *SQLiteDialect) QuoteString(s string) string {
	return "'" + d.EscapeString(s) + "'"
}

func (d *SQLiteDialect) EscapeString(s string) string {
	return value.StandardEscaper.EscapeString(s)
}

func (d *SQLiteDialect) MapColumnType(dbType string) value.Type {
	return mapColumnType(dbType)
}

func (d *SQLiteDialect) ErrorNumber(err error) int {
	return sqliteErrorNumber(err)
}

func (d *SQLiteDialect) ShutdownSQL() string            { return "" }
func (d *SQLiteDialect) KillSQL(id int64) string        { return "" }
func (d *SQLiteDialect) ThreadIDSQL() string            { return "" }
func (d *SQLiteDialect) SelectDBSQL(name string) string { return "" }
func (d *SQLiteDialect) CreateDBSQL(name string) string { return "" }
func (d *SQLiteDialect) DropDBSQL(name string) string   { return "" }
func (d *SQLiteDialect) VersionSQL() string             { return "SELECT sqlite_version()" }
func (d *SQLiteDialect) CharsetSQL(charset string) string {
	return ""
}
