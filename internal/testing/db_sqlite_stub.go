//go:build !sqlite

package testing

import "testing"

// SetupSQLiteTestDB skips the test; build with -tags=sqlite to run it
// against a real server.
func SetupSQLiteTestDB(t *testing.T) (Target, func()) {
	t.Skip("SQLite tests need -tags=sqlite")
	return Target{}, nil
}
