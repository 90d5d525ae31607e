package corpus

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// Backend selects how a corpus file is served.
type Backend string

const (
	BackendAuto   Backend = "auto"   // sqlite for databases, memory for snapshots
	BackendSQLite Backend = "sqlite" // query the database directly
	BackendMemory Backend = "memory" // load everything into tries
)

// ParseBackend maps a config or flag value to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendSQLite, BackendMemory:
		return b, nil
	default:
		return "", fmt.Errorf("%w: unknown backend %q", ErrStoreConfig, s)
	}
}

// Open opens the corpus at path with the given backend. Every failure is
// wrapped in ErrStoreConfig except a snapshot with dangling references,
// which reports ErrMalformed.
func Open(ctx context.Context, path string, backend Backend) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no store path configured", ErrStoreConfig)
	}
	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, err
	}
	if backend == "" {
		backend = BackendAuto
	}
	log.Debug("Opening corpus", "path", path, "format", format, "backend", backend)

	switch {
	case format == FormatSQLite && backend != BackendMemory:
		return OpenSQLite(ctx, path)
	case format == FormatSQLite:
		db, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		snap, err := db.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return NewMemoryStore(snap)
	case format == FormatSnapshot && backend == BackendSQLite:
		return nil, fmt.Errorf("%w: %s is a snapshot, not a database", ErrStoreConfig, path)
	default:
		snap, err := LoadSnapshot(path)
		if err != nil {
			return nil, err
		}
		return NewMemoryStore(snap)
	}
}
