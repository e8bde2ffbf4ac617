package gsqlite

import (
	"database/sql/driver"
	"fmt"
	"sync"

	"modernc.org/sqlite"
)

// Version is the module version string returned by genomicsqlite_version().
const Version = "0.1.0"

var registerVersionOnce sync.Once

// registerVersionFunction installs the genomicsqlite_version() scalar SQL
// function, the host-engine entrypoint named in §6 ("SQL scalar
// genomicsqlite_version() -> TEXT"). It is process-wide and idempotent
// (§5 "No process-wide mutable state beyond the one-time extension
// registration"); the package's init calls it, so it takes effect once at
// package load.
func registerVersionFunction() error {
	var regErr error
	registerVersionOnce.Do(func() {
		regErr = sqlite.RegisterDeterministicScalarFunction(
			"genomicsqlite_version",
			0,
			func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				return Version, nil
			},
		)
	})
	if regErr != nil {
		return fmt.Errorf("gsqlite: registering genomicsqlite_version: %w", regErr)
	}
	return nil
}

func init() {
	if err := registerVersionFunction(); err != nil {
		panic(err)
	}
}
