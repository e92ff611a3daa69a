//go:build !pgx

package testing

import "testing"

// SetupPostgreSQLTestDB skips the test; build with -tags=pgx to run it
// against a real server.
func SetupPostgreSQLTestDB(t *testing.T) (Target, func()) {
	t.Skip("PostgreSQL tests need -tags=pgx")
	return Target{}, nil
}
