package dialect

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/carlosnayan/sqlpp/value"
)

// MySQLDialect implements the MySQL dialect
type MySQLDialect struct{}

func (d *MySQLDialect) Name() string {
	return "mysql"
}

func (d *MySQLDialect) GetDriverName() string {
	return "mysql"
}

func (d *MySQLDialect) BuildDSN(p Params, s Settings) (string, error) {
	cfg := mysql.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.DBName = p.Database

	if p.Socket != "" {
		cfg.Net = "unix"
		cfg.Addr = p.Socket
	} else {
		host := p.Host
		if host == "" {
			host = "localhost"
		}
		port := p.Port
		if port == 0 {
			port = 3306
		}
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	}

	cfg.Timeout = s.ConnectTimeout
	cfg.ReadTimeout = s.ReadTimeout
	cfg.WriteTimeout = s.WriteTimeout
	cfg.MultiStatements = s.MultiStatements
	cfg.AllowAllFiles = s.LocalFiles
	cfg.ClientFoundRows = s.FoundRows

	params := map[string]string{}
	if s.Compress {
		params["compress"] = "true"
	}
	if s.Charset != "" {
		params["charset"] = s.Charset
	}
	if len(params) > 0 {
		cfg.Params = params
	}

	if s.TLS != nil {
		tlsConfig, err := buildTLSConfig(s.TLS, hostOnly(cfg.Addr))
		if err != nil {
			return "", err
		}
		name := tlsConfigName(s.TLS)
		if err := mysql.RegisterTLSConfig(name, tlsConfig); err != nil {
			return "", fmt.Errorf("register tls config: %w", err)
		}
		cfg.TLSConfig = name
	}

	return cfg.FormatDSN(), nil
}

func (d *MySQLDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *MySQLDialect) QuoteString(s string) string {
	return "'" + d.EscapeString(s) + "'"
}

func (d *MySQLDialect) EscapeString(s string) string {
	return value.EscapeMySQL(s)
}

func (d *MySQLDialect) MapColumnType(dbType string) value.Type {
	return mapColumnType(dbType)
}

func (d *MySQLDialect) ErrorNumber(err error) int {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return int(me.Number)
	}
	return 0
}

func (d *MySQLDialect) ShutdownSQL() string { return "SHUTDOWN" }

func (d *MySQLDialect) KillSQL(id int64) string { return fmt.Sprintf("KILL %d", id) }

func (d *MySQLDialect) ThreadIDSQL() string { return "SELECT CONNECTION_ID()" }

func (d *MySQLDialect) SelectDBSQL(name string) string {
	return "USE " + d.QuoteIdentifier(name)
}

func (d *MySQLDialect) CreateDBSQL(name string) string {
	return "CREATE DATABASE " + d.QuoteIdentifier(name)
}

func (d *MySQLDialect) DropDBSQL(name string) string {
	return "DROP DATABASE " + d.QuoteIdentifier(name)
}

func (d *MySQLDialect) VersionSQL() string { return "SELECT VERSION()" }

func (d *MySQLDialect) CharsetSQL(charset string) string {
	return "SET NAMES " + d.QuoteString(charset)
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
