package gsqlite

import (
	"fmt"
	"runtime"

	"github.com/go-playground/validator/v10"
)

var pageSizeDomain = map[int]bool{1: true, 2: true, 4: true, 8: true, 16: true, 32: true, 64: true}

var configValidator = validator.New()

func init() {
	// oneofpagesize enforces the {1,2,4,8,16,32,64} KiB domain shared by
	// InnerPageKiB and OuterPageKiB (spec §4.5).
	_ = configValidator.RegisterValidation("oneofpagesize", func(fl validator.FieldLevel) bool {
		return pageSizeDomain[int(fl.Field().Int())]
	})
}

// Config holds the connection-tuning parameters of §4.5. Fields map 1:1 to
// the config keys an application may pass to Open.
type Config struct {
	// UnsafeLoad disables synchronous writes, journaling, and deferred
	// foreign keys for this connection's lifetime. Data loss risk on crash.
	UnsafeLoad bool `validate:"-"`

	// PageCacheMiB sets the host engine's page-cache size, in MiB.
	PageCacheMiB int `validate:"min=1"`

	// Threads is the worker budget for the compressor and any external
	// merge sort. -1 means min(NumCPU, 8). Open resolves it and logs it; it
	// does not size the compressed VFS worker pool, which keeps the size
	// given to vfs.NewPool, and it is not passed to the engine as a pragma.
	Threads int `validate:"min=-1"`

	// ZstdLevel is the compression level for newly written outer pages.
	ZstdLevel int `validate:"min=-5,max=22"`

	// InnerPageKiB is the host engine's page size, fixed at creation.
	InnerPageKiB int `validate:"oneofpagesize"`

	// OuterPageKiB is the compressed VFS's page size, fixed at creation.
	OuterPageKiB int `validate:"oneofpagesize"`

	// Logger receives structured events from Open. Defaults to NopLogger.
	Logger Logger `validate:"-"`
}

// DefaultConfig returns the §4.5 defaults.
func DefaultConfig() Config {
	return Config{
		UnsafeLoad:   false,
		PageCacheMiB: 1024,
		Threads:      -1,
		ZstdLevel:    6,
		InnerPageKiB: 16,
		OuterPageKiB: 32,
		Logger:       NopLogger(),
	}
}

// resolvedThreads turns the -1 sentinel into min(NumCPU, 8).
func (c Config) resolvedThreads() int {
	if c.Threads >= 0 {
		return c.Threads
	}
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Validate reports a ConfigError if any field is out of its documented
// domain. Unknown keys can't be represented in a typed Config; FromMap
// below is where ErrUnknownConfigKey is raised.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return wrapErr("config.Validate", ConfigError, err)
	}
	return nil
}

// knownConfigKeys mirrors the table in spec §4.5, used by FromMap to reject
// unrecognized keys rather than silently ignoring typos.
var knownConfigKeys = map[string]bool{
	"unsafe_load":    true,
	"page_cache_MiB": true,
	"threads":        true,
	"zstd_level":     true,
	"inner_page_KiB": true,
	"outer_page_KiB": true,
}

// FromMap builds a Config from the language-agnostic map described in
// spec §6 (`open(path, flags, config map) -> connection`). Unknown keys are
// a ConfigError; everything else starts from DefaultConfig.
func FromMap(m map[string]any) (Config, error) {
	cfg := DefaultConfig()
	for k := range m {
		if !knownConfigKeys[k] {
			return Config{}, wrapErr("config.FromMap", ConfigError, fmt.Errorf("%w: %q", ErrUnknownConfigKey, k))
		}
	}
	if v, ok := m["unsafe_load"].(bool); ok {
		cfg.UnsafeLoad = v
	}
	if v, ok := intVal(m["page_cache_MiB"]); ok {
		cfg.PageCacheMiB = v
	}
	if v, ok := intVal(m["threads"]); ok {
		cfg.Threads = v
	}
	if v, ok := intVal(m["zstd_level"]); ok {
		cfg.ZstdLevel = v
	}
	if v, ok := intVal(m["inner_page_KiB"]); ok {
		cfg.InnerPageKiB = v
	}
	if v, ok := intVal(m["outer_page_KiB"]); ok {
		cfg.OuterPageKiB = v
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func intVal(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
