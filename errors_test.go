package gsqlite

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapErrNilPassthrough(t *testing.T) {
	assert.NoError(t, wrapErr("op", ConfigError, nil))
}

func TestWrapErrCarriesKindAndOp(t *testing.T) {
	err := wrapErr("config.Validate", ConfigError, ErrUnknownConfigKey)
	require.Error(t, err)

	var gerr *GError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, ConfigError, gerr.Kind)
	assert.Equal(t, "config.Validate", gerr.Op)
	assert.ErrorIs(t, err, ErrUnknownConfigKey)
}

func TestGErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := wrapErr("probe", ProbeError, base)
	assert.Same(t, base, errors.Unwrap(err))
}

func TestKindString(t *testing.T) {
	for _, k := range []Kind{ConfigError, SchemaError, IntegrityError, EngineError, ProbeError} {
		assert.NotEqual(t, "unknown", k.String())
	}
	assert.Equal(t, "unknown", Kind(99).String())
}
