package credential

import (
	"fmt"
	"path/filepath"

	"buylog/internal/config"
)

// NewStorageFromConfig picks the Storage for the credential. db is the open
// database used by the "sqlite" type.
func NewStorageFromConfig(cfg config.StorageConfig, db Storage) (Storage, error) {
	switch cfg.Type {
	case "sqlite":
		if db == nil {
			return nil, fmt.Errorf("sqlite storage requires an open database")
		}
		return db, nil
	case "file":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for file storage")
		}
		return NewFileStorage(filepath.Join(cfg.DataDir, "credentials"))
	case "memory":
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
