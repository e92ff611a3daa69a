//go:build cgo

package dialect

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

func sqliteErrorNumber(err error) int {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return int(se.ExtendedCode)
	}
	return 0
}
