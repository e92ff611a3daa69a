//go:build !mysql

package testing

import "testing"

// SetupMySQLTestDB skips the test; build with -tags=mysql to run it
// against a real server.
func SetupMySQLTestDB(t *testing.T) (Target, func()) {
	t.Skip("MySQL tests need -tags=mysql")
	return Target{}, nil
}
