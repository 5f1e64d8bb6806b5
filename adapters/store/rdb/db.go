package rdb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenFromURL opens a GORM DB based on a simple state-url string.
// Supported:
//   - sqlite:<dsn>   e.g., sqlite:./.botpressops/state.db or sqlite::memory:
//   - sqlite3:<dsn>  alias of sqlite
func OpenFromURL(stateURL string) (*gorm.DB, error) {
	var dsn string
	switch {
	case strings.HasPrefix(stateURL, "sqlite:"):
		dsn = strings.TrimPrefix(stateURL, "sqlite:")
	case strings.HasPrefix(stateURL, "sqlite3:"):
		dsn = strings.TrimPrefix(stateURL, "sqlite3:")
	default:
		return nil, fmt.Errorf("unsupported state scheme: %s", stateURL)
	}
	if dsn == "" {
		dsn = "./.botpressops/state.db"
	}
	if !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	// sqlite allows one writer; the engine applies resources concurrently.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("state db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// AutoMigrate applies schema migrations for all RDB models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ResourceRecord{})
}
