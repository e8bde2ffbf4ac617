package gsqlite

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestGenomicsqliteVersionFunctionIsQueryable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var got string
	err = db.QueryRow("SELECT genomicsqlite_version()").Scan(&got)
	require.NoError(t, err)
	require.Equal(t, Version, got)
}
