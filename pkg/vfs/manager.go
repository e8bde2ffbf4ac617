package vfs

import (
	"fmt"
	"sync"
)

// DefaultName is the VFS name C5's opener and C6's vacuum-into emitter refer
// to when no other name is configured (§6 "the compressed VFS under a known
// name (e.g. zstd)").
const DefaultName = "zstd"

// Manager is a registry of named VFS configurations. This module creates
// no Manager and registers no name on its own: a caller builds one with
// NewManager, registers DefaultName with Register, and passes it to
// gsqlite.Open.
//
// modernc.org/sqlite, a pure-Go SQLite implementation, does not expose the
// C-level sqlite3_vfs registration table as a public Go API, so Manager
// cannot literally install itself as the engine's VFS the way the contract's
// host-engine extension would. Instead, C5's opener uses Manager to resolve
// a BlockStore for the compressed container file, calls BlockStore.Rehydrate
// to decompress it into a plain temp file, and points the engine at that
// temp file instead of the container; on Close, BlockStore.Dehydrate reads
// the temp file back and recompresses it into the container. The engine
// never opens the container's bytes directly. This keeps the contract
// (callers select a VFS by name, get compressed storage transparently)
// while being honest about where the compression boundary actually sits.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	codec    Codec
	pool     *Pool
	innerKiB int
	outerKiB int
}

// NewManager returns an empty registry.
func NewManager() *Manager {
	return &Manager{entries: make(map[string]*entry)}
}

// Register installs a named VFS configuration. Re-registering the same name
// replaces the prior codec/pool pairing.
func (m *Manager) Register(name string, codec Codec, pool *Pool, innerKiB, outerKiB int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = &entry{codec: codec, pool: pool, innerKiB: innerKiB, outerKiB: outerKiB}
}

// Open opens path as a BlockStore using the named VFS's codec and pool.
func (m *Manager) Open(name, path string) (*BlockStore, error) {
	m.mu.Lock()
	e, ok := m.entries[name]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("vfs.Manager.Open: unregistered VFS %q", name)
	}
	return Open(path, e.codec, e.pool, e.innerKiB, e.outerKiB)
}

// Registered reports whether name has a registered codec/pool pairing.
func (m *Manager) Registered(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[name]
	return ok
}
