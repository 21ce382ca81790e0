package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
)

// Open constructs the backend named by kind rooted at dir.
func Open(kind, dir string) (Database, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case BackendMemory:
		return NewMemDB(), nil
	case "", BackendLevelDB:
		if strings.TrimSpace(dir) == "" {
			return nil, fmt.Errorf("storage: leveldb requires a data directory")
		}
		return NewLevelDB(filepath.Join(dir, "state"))
	case BackendBolt:
		if strings.TrimSpace(dir) == "" {
			return nil, fmt.Errorf("storage: bolt requires a data directory")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create data dir: %w", err)
		}
		return NewBoltDB(filepath.Join(dir, "state.bolt"))
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", kind)
	}
}
