package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opensource-finance/harrier/internal/domain"
	_ "modernc.org/sqlite"
)

// defaultSQLitePath mirrors domain.DefaultConfig for hand-built
// configs that leave the path unset.
const defaultSQLitePath = "./harrier.db"

// openSQLite opens the Community tier store. modernc.org/sqlite is a
// pure Go driver, so the single-binary install needs no CGO toolchain.
func openSQLite(cfg domain.RepositoryConfig) (*sql.DB, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = defaultSQLitePath
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// WAL keeps match-result writes from blocking the read-heavy
	// policy and match lookups; the busy timeout covers checkpoint
	// stalls under concurrent matching.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return db, nil
}
