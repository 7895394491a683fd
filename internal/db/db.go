package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the database file created inside the state directory.
const FileName = "carryover.db"

// migrations[i] upgrades the schema from version i to i+1. Append only.
var migrations = []string{
	// watch state, one row per agent holding the serialized baseline
	`CREATE TABLE IF NOT EXISTS watch_state (
	  agent       TEXT PRIMARY KEY,
	  state_json  TEXT NOT NULL,
	  updated_at  INTEGER NOT NULL
	);`,
}

// CurrentSchemaVersion is the version reached after all migrations run.
var CurrentSchemaVersion = len(migrations)

// Init opens the watch-state database at baseDir/carryover.db, creating the
// directory (0700) and applying pending migrations. baseDir is
// process-local, never the shared root.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	// Pragmas in the DSN apply to every pooled connection.
	dbPath := filepath.Join(baseDir, FileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)
	return db, nil
}

// migrate applies every migration above the stored user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	for v := version; v < len(migrations); v++ {
		if _, err := db.Exec(migrations[v]); err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if err := SetUserVersion(db, v+1); err != nil {
			return err
		}
	}
	return nil
}

func verifyWALMode(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", mode)
	}
	return nil
}

// GetUserVersion returns the schema version stored in the user_version pragma.
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion records the schema version.
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
