package vfs

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	return NewPool(2, 0, nil)
}

func TestBlockStoreRoundTripsPages(t *testing.T) {
	dir := t.TempDir()
	codec, err := NewZstdCodec(6)
	require.NoError(t, err)
	pool := newTestPool(t)

	path := filepath.Join(dir, "data.gsqlz")
	bs, err := Open(path, codec, pool, 16, 32)
	require.NoError(t, err)

	page1 := bytes.Repeat([]byte{0xAB}, 16*1024)
	page2 := bytes.Repeat([]byte{0xCD}, 16*1024)
	require.NoError(t, bs.WritePages([][]byte{page1, page2}))

	got, err := bs.ReadBlock(0)
	require.NoError(t, err)
	require.Equal(t, append(append([]byte{}, page1...), page2...), got)
	require.NoError(t, bs.Close())
}

func TestBlockStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	codec, err := NewZstdCodec(3)
	require.NoError(t, err)
	pool := newTestPool(t)
	path := filepath.Join(dir, "data.gsqlz")

	bs, err := Open(path, codec, pool, 16, 32)
	require.NoError(t, err)
	page := bytes.Repeat([]byte{0x42}, 16*1024)
	require.NoError(t, bs.WritePages([][]byte{page}))
	require.NoError(t, bs.Close())

	reopened, err := Open(path, codec, pool, 16, 32)
	require.NoError(t, err)
	require.Equal(t, 1, reopened.BlockCount())
	got, err := reopened.ReadBlock(0)
	require.NoError(t, err)
	require.Equal(t, page, got)
	require.NoError(t, reopened.Close())
}

func TestBlockStoreRehydrateThenDehydrateRoundTrips(t *testing.T) {
	dir := t.TempDir()
	codec, err := NewZstdCodec(3)
	require.NoError(t, err)
	pool := newTestPool(t)
	path := filepath.Join(dir, "data.gsqlz")

	bs, err := Open(path, codec, pool, 16, 32)
	require.NoError(t, err)
	original := bytes.Repeat([]byte{0x11, 0x22}, 50*1024)
	require.NoError(t, bs.WritePages([][]byte{original}))
	require.NoError(t, bs.Flush())

	tempPath, err := bs.Rehydrate(dir)
	require.NoError(t, err)
	defer os.Remove(tempPath)

	rehydrated, err := os.ReadFile(tempPath)
	require.NoError(t, err)
	require.Equal(t, original, rehydrated)

	edited := append(rehydrated, []byte{0x99, 0x99}...)
	require.NoError(t, os.WriteFile(tempPath, edited, 0o644))
	require.NoError(t, bs.Dehydrate(tempPath))
	require.NoError(t, bs.Close())

	reopened, err := Open(path, codec, pool, 16, 32)
	require.NoError(t, err)
	tempPath2, err := reopened.Rehydrate(dir)
	require.NoError(t, err)
	defer os.Remove(tempPath2)
	roundTripped, err := os.ReadFile(tempPath2)
	require.NoError(t, err)
	require.Equal(t, edited, roundTripped)
	require.NoError(t, reopened.Close())
}

func TestOpenRejectsFileWithoutMagicHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.db")
	require.NoError(t, os.WriteFile(path, []byte("SQLite format 3\x00not really"), 0o644))

	codec, err := NewZstdCodec(6)
	require.NoError(t, err)
	_, err = Open(path, codec, newTestPool(t), 16, 32)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestManagerOpenUnregisteredVFSFails(t *testing.T) {
	m := NewManager()
	_, err := m.Open("nope", filepath.Join(t.TempDir(), "x.gsqlz"))
	require.Error(t, err)
}

func TestManagerRegisterAndOpen(t *testing.T) {
	m := NewManager()
	codec, err := NewZstdCodec(6)
	require.NoError(t, err)
	m.Register(DefaultName, codec, newTestPool(t), 16, 32)
	require.True(t, m.Registered(DefaultName))

	bs, err := m.Open(DefaultName, filepath.Join(t.TempDir(), "x.gsqlz"))
	require.NoError(t, err)
	require.NoError(t, bs.Close())
}
