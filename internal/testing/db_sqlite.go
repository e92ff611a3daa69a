//go:build sqlite

package testing

import (
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/carlosnayan/sqlpp/internal/dialect"
)

// SetupSQLiteTestDB points at a database file in the test's temp dir
func SetupSQLiteTestDB(t *testing.T) (Target, func()) {
	path := filepath.Join(t.TempDir(), scratchName()+".db")
	return Target{Provider: "sqlite", Params: dialect.Params{Database: path}}, func() {}
}
