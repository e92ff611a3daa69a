//go:build pgx

package testing

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver

	"github.com/carlosnayan/sqlpp/internal/dialect"
)

// SetupPostgreSQLTestDB creates a PostgreSQL scratch database
func SetupPostgreSQLTestDB(t *testing.T) (Target, func()) {
	url := GetTestDatabaseURL("postgresql")
	if url == "" {
		t.Skip("TEST_DATABASE_URL_POSTGRESQL not set, skipping PostgreSQL test")
		return Target{}, nil
	}
	cfg, err := pgconn.ParseConfig(url)
	if err != nil {
		t.Fatalf("bad PostgreSQL URL: %v", err)
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		t.Skipf("PostgreSQL not available: %v", err)
		return Target{}, nil
	}

	name := scratchName()
	if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", name)); err != nil {
		db.Close()
		t.Fatalf("failed to create test database: %v", err)
	}

	params := dialect.Params{
		Host:     cfg.Host,
		Port:     int(cfg.Port),
		User:     cfg.User,
		Password: cfg.Password,
		Database: name,
	}
	cleanup := func() {
		db.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s", name))
		db.Close()
	}
	return Target{Provider: "postgresql", Params: params}, cleanup
}
