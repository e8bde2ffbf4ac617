package gsqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/vlx-data/gsqlite/pkg/vfs"
	_ "modernc.org/sqlite"
)

// OpenFlag mirrors the host engine's open-flag bitmask (§4.5, §6
// "open(path, flags, config)"). Flags combine with bitwise OR.
type OpenFlag int

const (
	OpenReadOnly  OpenFlag = 1 << 0
	OpenReadWrite OpenFlag = 1 << 1
	OpenCreate    OpenFlag = 1 << 2
)

// Connection is the handle returned by Open: a tuned *sql.DB plus the
// resolved Config and, when the compressed VFS is in play, the BlockStore
// backing the database file and the path of the rehydrated plain file the
// engine is actually reading and writing.
type Connection struct {
	DB     *sql.DB
	Config Config

	store      *vfs.BlockStore
	tempPath   string
	blockStore bool

	closeMu sync.Mutex
	closed  bool
}

// Close releases the underlying *sql.DB and, if the compressed VFS is in
// play, dehydrates the engine's edits back into the BlockStore before
// discarding the rehydrated temp file. DB.Close runs first so WAL
// checkpointing and any pending writes land in the temp file before it is
// read back. Close is not idempotent: calling it again returns ErrClosed,
// matching §6's expectation that a closed connection's handle is dead.
func (c *Connection) Close() error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return ErrClosed
	}
	c.closed = true
	c.closeMu.Unlock()

	var errs []error
	if err := c.DB.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.store != nil {
		if err := c.store.Dehydrate(c.tempPath); err != nil {
			errs = append(errs, err)
		}
		if err := c.store.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := os.Remove(c.tempPath); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open implements C5 (§4.5): resolves config, validates the on-disk file is
// either empty or already in the compressed layout, opens the host engine
// through database/sql, applies the derived pragmas, and returns a tuned
// Connection. When the compressed VFS is in play, the engine never opens
// path itself: path holds the compressed container, which Open rehydrates
// into a plain temp file first, and the engine opens that temp file
// instead. Opening the container directly would hand the host engine's own
// page parser the container's magic header and compressed blocks, which are
// not a valid database page 1.
func Open(ctx context.Context, path string, flags OpenFlag, mgr *vfs.Manager, configMap map[string]any) (*Connection, error) {
	cfg, err := FromMap(configMap)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = NopLogger()
	}
	log = log.With("op", "Open", "path", path)

	useCompressed := mgr != nil && mgr.Registered(vfs.DefaultName)
	var store *vfs.BlockStore
	var tempPath string
	dsn := path
	if useCompressed {
		if flags&OpenCreate == 0 {
			if _, err := os.Stat(path); err != nil {
				log.Error("compressed database missing and OpenCreate not set", "err", err)
				return nil, wrapErr("Open", EngineError, err)
			}
		}
		store, err = mgr.Open(vfs.DefaultName, path)
		if err != nil {
			log.Error("failed to open compressed block store", "err", err)
			return nil, wrapErr("Open", EngineError, fmt.Errorf("%w: %w", ErrNotEmptyOrCompressed, err))
		}
		tempPath, err = store.Rehydrate(os.TempDir())
		if err != nil {
			store.Close()
			log.Error("failed to rehydrate compressed block store", "err", err)
			return nil, wrapErr("Open", EngineError, err)
		}
		dsn = tempPath
	}

	if flags&OpenReadOnly != 0 && flags&OpenReadWrite == 0 {
		dsn += "?mode=ro"
	}

	closePartial := func() {
		if store != nil {
			store.Close()
		}
		if tempPath != "" {
			os.Remove(tempPath)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		closePartial()
		return nil, wrapErr("Open", EngineError, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		closePartial()
		return nil, wrapErr("Open", EngineError, err)
	}

	if err := applyPragmas(ctx, db, cfg); err != nil {
		db.Close()
		closePartial()
		return nil, err
	}

	log.Info("connection opened", "threads", cfg.resolvedThreads(), "unsafe_load", cfg.UnsafeLoad, "compressed", useCompressed)
	return &Connection{
		DB:         db,
		Config:     cfg,
		store:      store,
		tempPath:   tempPath,
		blockStore: useCompressed,
	}, nil
}

// applyPragmas implements the config -> pragma mapping of §4.5's table.
func applyPragmas(ctx context.Context, db *sql.DB, cfg Config) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA cache_size = -%d", cfg.PageCacheMiB*1024),
		fmt.Sprintf("PRAGMA page_size = %d", cfg.InnerPageKiB*1024),
	}
	if cfg.UnsafeLoad {
		pragmas = append(pragmas,
			"PRAGMA synchronous = OFF",
			"PRAGMA journal_mode = MEMORY",
			"PRAGMA defer_foreign_keys = OFF",
		)
	} else {
		pragmas = append(pragmas,
			"PRAGMA synchronous = FULL",
			"PRAGMA journal_mode = WAL",
		)
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return wrapErr("Open.applyPragmas", EngineError, fmt.Errorf("%s: %w", p, err))
		}
	}
	return nil
}
