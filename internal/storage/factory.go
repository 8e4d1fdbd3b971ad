package storage

import (
	"fmt"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/config"
)

// New opens the backend selected by cfg.DBType.
func New(cfg *config.Config, logger internal.Logger) (Store, error) {
	switch cfg.DBType {
	case "file":
		return NewFileStorage(FilePaths{Food: cfg.FileFood, Stool: cfg.FileStool, Profiles: cfg.FileProfiles}, logger)
	case "postgres":
		return NewPostgresStorage(cfg.DBDSN, logger)
	case "sqlite":
		return NewSQLiteStorage(cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.DBType)
	}
}
