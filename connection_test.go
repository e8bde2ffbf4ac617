package gsqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vlx-data/gsqlite/pkg/vfs"
)

func TestOpenPlainConnectionAppliesPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.db")
	conn, err := Open(context.Background(), path, OpenReadWrite|OpenCreate, nil, nil)
	require.NoError(t, err)
	defer conn.Close()

	var journalMode string
	require.NoError(t, conn.DB.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	require.Equal(t, "wal", journalMode)
}

func TestOpenWithCompressedVFSCreatesBlockStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compressed.db")
	mgr := vfs.NewManager()
	codec, err := vfs.NewZstdCodec(6)
	require.NoError(t, err)
	pool := vfs.NewPool(2, 0, nil)
	mgr.Register(vfs.DefaultName, codec, pool, 16, 32)

	conn, err := Open(context.Background(), path, OpenReadWrite|OpenCreate, mgr, nil)
	require.NoError(t, err)
	require.True(t, conn.blockStore)
	require.NotEmpty(t, conn.tempPath)
	require.NoError(t, conn.Close())

	// the temp rehydration file is cleaned up, and the container left
	// behind is the compressed layout, not a plain SQLite file.
	_, err = os.Stat(conn.tempPath)
	require.True(t, os.IsNotExist(err))
	header := make([]byte, 8)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Read(header)
	require.NoError(t, err)
	require.Equal(t, "gsqlzstd", string(header))
}

// TestOpenWithCompressedVFSRoundTripsData writes through the rehydrated
// engine connection, closes it (which dehydrates back into the compressed
// container), reopens, and checks the data survived the round trip through
// BlockStore.WritePages/ReadBlock.
func TestOpenWithCompressedVFSRoundTripsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compressed.db")
	mgr := vfs.NewManager()
	codec, err := vfs.NewZstdCodec(6)
	require.NoError(t, err)
	pool := vfs.NewPool(2, 0, nil)
	mgr.Register(vfs.DefaultName, codec, pool, 16, 32)

	conn, err := Open(context.Background(), path, OpenReadWrite|OpenCreate, mgr, nil)
	require.NoError(t, err)
	_, err = conn.DB.Exec("CREATE TABLE t (v TEXT)")
	require.NoError(t, err)
	_, err = conn.DB.Exec("INSERT INTO t (v) VALUES ('hello')")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	reopened, err := Open(context.Background(), path, OpenReadWrite, mgr, nil)
	require.NoError(t, err)
	defer reopened.Close()

	var v string
	require.NoError(t, reopened.DB.QueryRow("SELECT v FROM t").Scan(&v))
	require.Equal(t, "hello", v)
}

func TestCloseTwiceReturnsErrClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.db")
	conn, err := Open(context.Background(), path, OpenReadWrite|OpenCreate, nil, nil)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	require.ErrorIs(t, conn.Close(), ErrClosed)
}

func TestOpenRejectsUnknownConfigKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.db")
	_, err := Open(context.Background(), path, OpenReadWrite|OpenCreate, nil, map[string]any{"bogus": 1})
	require.Error(t, err)
}
