package gsqlite

import (
	"fmt"
	"strings"

	"github.com/vlx-data/gsqlite/internal/sqlident"
	"github.com/vlx-data/gsqlite/pkg/vfs"
)

// EmitVacuumInto implements C6 (§4.6): a VACUUM INTO statement targeting the
// compressed VFS, preceded by the pragmas needed to apply destPath's
// page-size and compression configuration. The returned script must be
// executed against a connection that has the compressed VFS registered and
// was itself opened with URI filenames enabled.
func EmitVacuumInto(destPath string, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if strings.TrimSpace(destPath) == "" {
		return "", wrapErr("EmitVacuumInto", ConfigError, fmt.Errorf("destPath must not be empty"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PRAGMA page_size = %d;\n", cfg.InnerPageKiB*1024)
	fmt.Fprintf(&b, "PRAGMA gsqlite_outer_page_kib = %d;\n", cfg.OuterPageKiB)
	fmt.Fprintf(&b, "PRAGMA gsqlite_zstd_level = %d;\n", cfg.ZstdLevel)
	fmt.Fprintf(&b, "VACUUM INTO %s;\n", sqlident.QuoteLiteral(destURI(destPath)))

	return b.String(), nil
}

// destURI renders destPath as a "file:" URI naming the compressed VFS, per
// §4.6's "VACUUM INTO 'file:dest?vfs=<compressed>'" shape.
func destURI(destPath string) string {
	return fmt.Sprintf("file:%s?vfs=%s", destPath, vfs.DefaultName)
}
