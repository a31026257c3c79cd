// Versioned schema migrations for the wonderlens local database.
// Each step is idempotent and individually testable; steps run exactly
// once, gated by a stored schema-version marker, before any other
// operation on first open after an upgrade.
package store

import (
	"database/sql"
	"fmt"

	"wonderlens/internal/logging"
)

// Schema versions:
// v1: singletons key-value tier plus explorations and cards collections
// v2: conversations collection with session/timestamp indexes
// v3: markdown flag on conversation messages
const CurrentSchemaVersion = 3

// migration is one ordered schema upgrade step.
type migration struct {
	Version     int
	Description string
	Apply       func(db *sql.DB) error
}

var migrations = []migration{
	{1, "singleton tier, explorations, cards", migrateV1},
	{2, "conversations collection", migrateV2},
	{3, "conversation markdown flag", migrateV3},
}

// migrate brings the database to CurrentSchemaVersion, recording each
// applied step in schema_versions.
func (s *LocalStore) migrate() error {
	timer := logging.StartTimer(logging.CategoryStore, "migrate")
	defer timer.Stop()

	if err := ensureVersionTable(s.db); err != nil {
		return err
	}

	current, err := SchemaVersion(s.db)
	if err != nil {
		return err
	}
	logging.Store("Database at schema v%d, target v%d", current, CurrentSchemaVersion)

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		logging.Store("Applying migration v%d: %s", m.Version, m.Description)
		if err := m.Apply(s.db); err != nil {
			return fmt.Errorf("migration v%d (%s): %w", m.Version, m.Description, err)
		}
		if err := recordVersion(s.db, m.Version, m.Description); err != nil {
			return err
		}
	}
	return nil
}

func ensureVersionTable(db *sql.DB) error {
	createTable := `
	CREATE TABLE IF NOT EXISTS schema_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		description TEXT
	)`
	if _, err := db.Exec(createTable); err != nil {
		return unavailable("create schema_versions", err)
	}
	return nil
}

// SchemaVersion returns the highest recorded schema version, or 0 for a
// fresh database.
func SchemaVersion(db *sql.DB) (int, error) {
	var version sql.NullInt64
	err := db.QueryRow("SELECT MAX(version) FROM schema_versions").Scan(&version)
	if err != nil {
		return 0, unavailable("read schema version", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

func recordVersion(db *sql.DB, version int, description string) error {
	_, err := db.Exec(
		"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
		version, description,
	)
	if err != nil {
		return unavailable("record schema version", err)
	}
	logging.Store("Schema version recorded: v%d", version)
	return nil
}

func migrateV1(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS singletons (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS explorations (
			id TEXT PRIMARY KEY,
			timestamp DATETIME NOT NULL,
			object_name TEXT NOT NULL,
			object_category TEXT NOT NULL,
			confidence REAL NOT NULL,
			age INTEGER,
			image_data TEXT,
			cards_json TEXT,
			collected BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_explorations_timestamp ON explorations(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_explorations_category ON explorations(object_category)`,
		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			exploration_id TEXT,
			type TEXT NOT NULL,
			title TEXT,
			content_json TEXT NOT NULL,
			collected_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_exploration ON cards(exploration_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_type ON cards(type)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return unavailable("migrate v1", err)
		}
	}
	return nil
}

func migrateV2(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			type TEXT NOT NULL,
			sender TEXT NOT NULL,
			content_json TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			is_streaming BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_timestamp ON conversations(timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return unavailable("migrate v2", err)
		}
	}
	return nil
}

func migrateV3(db *sql.DB) error {
	if columnExists(db, "conversations", "markdown") {
		logging.StoreDebug("markdown column already exists, skipping")
		return nil
	}
	if _, err := db.Exec("ALTER TABLE conversations ADD COLUMN markdown BOOLEAN NOT NULL DEFAULT FALSE"); err != nil {
		return unavailable("migrate v3", err)
	}
	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		logging.StoreDebug("PRAGMA table_info(%s) failed: %v", table, err)
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

// tableExists checks if a table exists in the database.
func tableExists(db *sql.DB, table string) bool {
	var count int
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
	if err := db.QueryRow(query, table).Scan(&count); err != nil {
		return false
	}
	return count > 0
}
