package history

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nixlim/keyprint/internal/config"
)

// NewStore returns the configured history store and whether it persists.
// An empty db_path, or a database that cannot be opened, yields an in-memory
// store.
func NewStore(cfg config.HistoryConfig) (Store, bool, error) {
	if cfg.DBPath == "" {
		return NewMemoryStore(cfg.RecentLimit), false, nil
	}

	dbPath := expandTilde(cfg.DBPath)

	store, err := NewSQLiteStore(dbPath, cfg.RetentionDays, cfg.RecentLimit)
	if err != nil {
		slog.Warn("sqlite history unavailable, falling back to in-memory store", "path", dbPath, "err", err)
		return NewMemoryStore(cfg.RecentLimit), false, nil
	}

	return store, true, nil
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
