package nodes

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	name TEXT PRIMARY KEY,
	base TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS node_types (
	name TEXT PRIMARY KEY,
	super_types TEXT NOT NULL DEFAULT '[]',
	fulltext_root INTEGER NOT NULL DEFAULT 0,
	fulltext_fields TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS nodes (
	identifier TEXT NOT NULL,
	workspace TEXT NOT NULL,
	dimensions_hash TEXT NOT NULL,
	dimensions TEXT NOT NULL DEFAULT '{}',
	path TEXT NOT NULL,
	node_type TEXT NOT NULL,
	hidden INTEGER NOT NULL DEFAULT 0,
	removed INTEGER NOT NULL DEFAULT 0,
	hidden_before TEXT,
	hidden_after TEXT,
	properties TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (identifier, workspace, dimensions_hash)
);

CREATE INDEX IF NOT EXISTS nodes_by_path ON nodes (path, workspace, dimensions_hash);
`

func openDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open content tree db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}
