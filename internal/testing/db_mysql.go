//go:build mysql

package testing

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/carlosnayan/sqlpp/internal/dialect"
)

// SetupMySQLTestDB creates a MySQL scratch database
func SetupMySQLTestDB(t *testing.T) (Target, func()) {
	dsn := GetTestDatabaseURL("mysql")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL_MYSQL not set, skipping MySQL test")
		return Target{}, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("bad MySQL DSN: %v", err)
	}
	cfg.DBName = ""

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		t.Skipf("failed to open MySQL connection: %v", err)
		return Target{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		t.Skipf("MySQL not available: %v", err)
		return Target{}, nil
	}

	name := scratchName()
	if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", name)); err != nil {
		db.Close()
		t.Fatalf("failed to create test database: %v", err)
	}

	params := dialect.Params{User: cfg.User, Password: cfg.Passwd, Database: name}
	if cfg.Net == "unix" {
		params.Socket = cfg.Addr
	} else if host, port, err := net.SplitHostPort(cfg.Addr); err == nil {
		params.Host = host
		params.Port, _ = strconv.Atoi(port)
	}

	cleanup := func() {
		db.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s", name))
		db.Close()
	}
	return Target{Provider: "mysql", Params: params}, cleanup
}
