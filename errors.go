package gsqlite

import (
	"errors"
	"fmt"

	"github.com/vlx-data/gsqlite/internal/sqlident"
)

// Kind classifies a GError the way §7 of the design enumerates them.
type Kind int

const (
	// ConfigError is an unknown config key or an out-of-domain value.
	ConfigError Kind = iota
	// SchemaError is an indexing operation applied to a rowid-less table,
	// or reuse of a _gri_* name.
	SchemaError
	// IntegrityError is a ceiling supplied smaller than the observed max level.
	IntegrityError
	// EngineError wraps any error surfaced by the host engine.
	EngineError
	// ProbeError is a planner probe failure; retry with an explicit ceiling.
	ProbeError
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "config"
	case SchemaError:
		return "schema"
	case IntegrityError:
		return "integrity"
	case EngineError:
		return "engine"
	case ProbeError:
		return "probe"
	default:
		return "unknown"
	}
}

// Common sentinel errors, matched via errors.Is against a GError's Unwrap chain.
var (
	ErrClosed               = errors.New("gsqlite: connection is closed")
	ErrNotEmptyOrCompressed = errors.New("gsqlite: database file is neither empty nor in the compressed layout")
	ErrUnknownConfigKey     = errors.New("gsqlite: unknown config key")
	ErrCeilingTooLow        = errors.New("gsqlite: supplied ceiling is below the observed maximum level")
	// ErrBadIdentifier is sqlident's own sentinel, re-exported here so
	// callers branch on Kind and on this sentinel without importing
	// internal/sqlident directly.
	ErrBadIdentifier = sqlident.ErrBadIdentifier
)

// GError wraps an error with an operation name and a Kind, mirroring the
// teacher's Op/Err wrapping shape but adding the Kind axis this design needs
// to let callers branch on ConfigError vs ProbeError vs EngineError.
type GError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *GError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("gsqlite: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("gsqlite: %s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *GError) Unwrap() error { return e.Err }

func (e *GError) Is(target error) bool { return errors.Is(e.Err, target) }

// wrapErr builds a GError with the given operation and kind, returning nil
// if err is nil so call sites can write `return wrapErr(...)` unconditionally.
func wrapErr(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &GError{Op: op, Kind: kind, Err: err}
}
