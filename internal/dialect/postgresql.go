package dialect

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carlosnayan/sqlpp/value"
)

// PostgreSQLDialect implements the PostgreSQL dialect
type PostgreSQLDialect struct{}

func (d *PostgreSQLDialect) Name() string {
	return "postgresql"
}

func (d *PostgreSQLDialect) GetDriverName() string {
	return "pgx"
}

func (d *PostgreSQLDialect) BuildDSN(p Params, s Settings) (string, error) {
	if s.Compress || s.LocalFiles || s.FoundRows {
		return "", fmt.Errorf("postgresql: compress, local files and found rows options are not supported")
	}

	u := &url.URL{Scheme: "postgres", Path: "/" + p.Database}
	if p.User != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.User, p.Password)
		} else {
			u.User = url.User(p.User)
		}
	}

	q := url.Values{}
	if p.Socket != "" {
		// pgx takes the socket directory through the host parameter.
		q.Set("host", p.Socket)
	} else {
		host := p.Host
		if host == "" {
			host = "localhost"
		}
		port := p.Port
		if port == 0 {
			port = 5432
		}
		u.Host = net.JoinHostPort(host, strconv.Itoa(port))
	}

	if s.ConnectTimeout > 0 {
		secs := int(s.ConnectTimeout.Seconds())
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	if s.Charset != "" {
		q.Set("client_encoding", s.Charset)
	}
	if s.TLS != nil {
		q.Set("sslmode", "verify-full")
		if s.TLS.Cert != "" {
			q.Set("sslcert", s.TLS.Cert)
		}
		if s.TLS.Key != "" {
			q.Set("sslkey", s.TLS.Key)
		}
		if s.TLS.CA != "" {
			q.Set("sslrootcert", s.TLS.CA)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (d *PostgreSQLDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *PostgreSQLDialect) QuoteString(s string) string {
	return "'" + d.EscapeString(s) + "'"
}

func (d *PostgreSQLDialect) EscapeString(s string) string {
	return value.StandardEscaper.EscapeString(s)
}

func (d *PostgreSQLDialect) MapColumnType(dbType string) value.Type {
	return mapColumnType(dbType)
}

// ErrorNumber returns the numeric part of the SQLSTATE when it has one.
func (d *PostgreSQLDialect) ErrorNumber(err error) int {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		n, convErr := strconv.Atoi(pgErr.Code)
		if convErr == nil {
			return n
		}
	}
	return 0
}

func (d *PostgreSQLDialect) ShutdownSQL() string { return "" }

func (d *PostgreSQLDialect) KillSQL(id int64) string {
	return fmt.Sprintf("SELECT pg_terminate_backend(%d)", id)
}

func (d *PostgreSQLDialect) ThreadIDSQL() string { return "SELECT pg_backend_pid()" }

func (d *PostgreSQLDialect) SelectDBSQL(name string) string { return "" }

func (d *PostgreSQLDialect) CreateDBSQL(name string) string {
	return "CREATE DATABASE " + d.QuoteIdentifier(name)
}

func (d *PostgreSQLDialect) DropDBSQL(name string) string {
	return "DROP DATABASE " + d.QuoteIdentifier(name)
}

func (d *PostgreSQLDialect) VersionSQL() string { return "SHOW server_version" }

func (d *PostgreSQLDialect) CharsetSQL(charset string) string {
	return "SET client_encoding TO " + d.QuoteString(charset)
}
