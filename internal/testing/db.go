package testing

import (
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/carlosnayan/sqlpp/internal/dialect"
)

// Target is a scratch database on a real server.
type Target struct {
	Provider string
	Params   dialect.Params
}

// SetupTestDB creates a scratch database and returns where to reach it plus
// a cleanup function. Driver-specific implementations live in files behind
// build tags; without the tag the test is skipped.
func SetupTestDB(t *testing.T, provider string) (Target, func()) {
	switch provider {
	case "postgresql":
		return SetupPostgreSQLTestDB(t)
	case "mysql":
		return SetupMySQLTestDB(t)
	case "sqlite":
		return SetupSQLiteTestDB(t)
	default:
		t.Fatalf("unsupported provider: %s", provider)
		return Target{}, nil
	}
}

// GetTestDatabaseURL gets the server location for provider from the
// environment. MySQL expects a go-sql-driver DSN, PostgreSQL a URL.
func GetTestDatabaseURL(provider string) string {
	url := os.Getenv("TEST_DATABASE_URL_" + strings.ToUpper(provider))
	if url == "" {
		url = os.Getenv("TEST_DATABASE_URL")
	}
	return url
}

// scratchName returns a database name unlikely to collide with a
// concurrent test run.
//
//nolint:unused // Used by files with build tags
func scratchName() string {
	return "sqlpp_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
