package dialect

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carlosnayan/sqlpp/value"
)

func mustLookup(t *testing.T, provider string) Dialect {
	t.Helper()
	d, ok := Lookup(provider)
	if !ok {
		t.Fatalf("Lookup(%q) failed", provider)
	}
	return d
}

// TestDialect_MySQL tests MySQL-specific features
func TestDialect_MySQL(t *testing.T) {
	d := mustLookup(t, "mysql")
	if d.Name() != "mysql" || d.GetDriverName() != "mysql" {
		t.Fatalf("unexpected dialect %s/%s", d.Name(), d.GetDriverName())
	}

	if got := d.QuoteIdentifier("we`ird"); got != "`we``ird`" {
		t.Errorf("QuoteIdentifier() = %s", got)
	}
	if got := d.QuoteString("it's"); got != `'it\'s'` {
		t.Errorf("QuoteString() = %s", got)
	}
	if got := d.KillSQL(42); got != "KILL 42" {
		t.Errorf("KillSQL() = %s", got)
	}
	if got := d.SelectDBSQL("mysql_cpp_data"); got != "USE `mysql_cpp_data`" {
		t.Errorf("SelectDBSQL() = %s", got)
	}
	if got := d.CharsetSQL("utf8mb4"); got != "SET NAMES 'utf8mb4'" {
		t.Errorf("CharsetSQL() = %s", got)
	}
	if got := d.CharsetSQL("x' OR '1"); got != `SET NAMES 'x\' OR \'1'` {
		t.Errorf("CharsetSQL(injection) = %s", got)
	}

	dsn, err := d.BuildDSN(
		Params{Host: "db.local", Port: 3307, User: "root", Password: "pw", Database: "stock"},
		Settings{Compress: true, ConnectTimeout: 5 * time.Second, MultiStatements: true, FoundRows: true, Charset: "utf8mb4"},
	)
	if err != nil {
		t.Fatalf("BuildDSN() error = %v", err)
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN(%q) error = %v", dsn, err)
	}
	if cfg.Addr != "db.local:3307" || cfg.DBName != "stock" || cfg.User != "root" {
		t.Errorf("parsed DSN = %+v", cfg)
	}
	if !cfg.MultiStatements || !cfg.ClientFoundRows || cfg.Timeout != 5*time.Second {
		t.Errorf("options lost in DSN %q", dsn)
	}
	if !strings.Contains(dsn, "compress=true") || !strings.Contains(dsn, "charset=utf8mb4") {
		t.Errorf("DSN %q missing params", dsn)
	}

	sock, err := d.BuildDSN(Params{Socket: "/tmp/mysql.sock", User: "u"}, Settings{})
	if err != nil || !strings.Contains(sock, "unix(/tmp/mysql.sock)") {
		t.Errorf("socket DSN = %q, %v", sock, err)
	}

	myErr := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	if n := d.ErrorNumber(fmt.Errorf("exec: %w", myErr)); n != 1062 {
		t.Errorf("ErrorNumber() = %d", n)
	}
	if n := d.ErrorNumber(errors.New("plain")); n != 0 {
		t.Errorf("ErrorNumber(plain) = %d", n)
	}
}

// TestDialect_PostgreSQL tests PostgreSQL-specific features
func TestDialect_PostgreSQL(t *testing.T) {
	d := mustLookup(t, "postgres")
	if d.Name() != "postgresql" || d.GetDriverName() != "pgx" {
		t.Fatalf("unexpected dialect %s", d.Name())
	}

	if got := d.QuoteString("O'Brien"); got != "'O''Brien'" {
		t.Errorf("QuoteString() = %s", got)
	}
	if d.ShutdownSQL() != "" || d.SelectDBSQL("x") != "" {
		t.Error("postgres has no shutdown or USE statement")
	}

	dsn, err := d.BuildDSN(Params{Host: "pg", User: "app", Password: "p@ss", Database: "stock"},
		Settings{ConnectTimeout: 3 * time.Second, Charset: "UTF8"})
	if err != nil {
		t.Fatalf("BuildDSN() error = %v", err)
	}
	cfg, err := pgconn.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("pgconn.ParseConfig(%q) error = %v", dsn, err)
	}
	if cfg.Host != "pg" || cfg.Port != 5432 || cfg.Database != "stock" || cfg.Password != "p@ss" {
		t.Errorf("parsed config = %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	}
	if cfg.ConnectTimeout != 3*time.Second {
		t.Errorf("ConnectTimeout = %v", cfg.ConnectTimeout)
	}

	if _, err := d.BuildDSN(Params{}, Settings{Compress: true}); err == nil {
		t.Error("compress should be rejected for postgres")
	}

	if n := d.ErrorNumber(&pgconn.PgError{Code: "23505"}); n != 23505 {
		t.Errorf("ErrorNumber() = %d", n)
	}
}

// TestDialect_SQLite tests SQLite-specific features
func TestDialect_SQLite(t *testing.T) {
	d := mustLookup(t, "sqlite3")
	if d.Name() != "sqlite" {
		t.Fatalf("unexpected dialect %s", d.Name())
	}
	dsn, err := d.BuildDSN(Params{Database: "/tmp/x.db"}, Settings{ConnectTimeout: time.Second})
	if err != nil || dsn != "file:/tmp/x.db?_busy_timeout=1000" {
		t.Errorf("BuildDSN() = %q, %v", dsn, err)
	}
	if _, err := d.BuildDSN(Params{}, Settings{}); err == nil {
		t.Error("missing database path should fail")
	}
	if d.KillSQL(1) != "" || d.VersionSQL() == "" {
		t.Error("unexpected admin statements")
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup("oracle"); ok {
		t.Error("Lookup(oracle) should fail")
	}
	if d, ok := Lookup("MariaDB"); !ok || d.Name() != "mysql" {
		t.Error("Lookup(MariaDB) should give the mysql dialect")
	}
}

func TestMapColumnType(t *testing.T) {
	tests := []struct {
		in   string
		want value.Type
	}{
		{"VARCHAR", value.TypeString},
		{"TEXT", value.TypeString},
		{"BPCHAR", value.TypeString},
		{"TINYINT", value.TypeInt8},
		{"UNSIGNED TINYINT", value.TypeUint8},
		{"INT", value.TypeInt32},
		{"UNSIGNED INT", value.TypeUint32},
		{"INT8", value.TypeInt64},
		{"integer", value.TypeInt32},
		{"DECIMAL(10,2)", value.TypeDecimal},
		{"DOUBLE", value.TypeFloat64},
		{"FLOAT4", value.TypeFloat32},
		{"DATE", value.TypeDate},
		{"DATETIME", value.TypeDateTime},
		{"TIMESTAMPTZ", value.TypeDateTime},
		{"TIME", value.TypeTime},
		{"BLOB", value.TypeBlob},
		{"BYTEA", value.TypeBlob},
		{"BOOL", value.TypeBool},
		{"", value.TypeUnknown},
	}
	for _, tt := range tests {
		if got := mapColumnType(tt.in); got != tt.want {
			t.Errorf("mapColumnType(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestCipherSuites(t *testing.T) {
	ids, err := cipherSuites("TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256:TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384")
	if err != nil || len(ids) != 2 {
		t.Errorf("cipherSuites() = %v, %v", ids, err)
	}
	if _, err := cipherSuites("NOPE"); err == nil {
		t.Error("unknown suite should fail")
	}
}
