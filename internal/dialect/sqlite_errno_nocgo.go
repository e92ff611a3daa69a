//go:build !cgo

package dialect

// Without cgo the sqlite driver is not linked, so it cannot have produced err.
func sqliteErrorNumber(err error) int {
	return 0
}
