package metrics

import (
	"database/sql"
	"fmt"
)

// applyMigrations applies all database migrations in order.
func applyMigrations(db *sql.DB) error {
	if err := createMigrationsTable(db); err != nil {
		return err
	}

	migrations := []struct {
		version int
		name    string
		sql     string
	}{
		{1, "create_switch_records_table", createSwitchRecordsTable},
		{2, "create_tiling_records_table", createTilingRecordsTable},
		{3, "create_metrics_indices", createMetricsIndices},
	}

	for _, m := range migrations {
		applied, err := isMigrationApplied(db, m.version)
		if err != nil {
			return fmt.Errorf("could not check migration %d: %w", m.version, err)
		}

		if applied {
			continue
		}

		if _, err := db.Exec(m.sql); err != nil {
			return fmt.Errorf("could not apply migration %d (%s): %w", m.version, m.name, err)
		}

		if err := recordMigration(db, m.version, m.name); err != nil {
			return fmt.Errorf("could not record migration %d: %w", m.version, err)
		}
	}

	return nil
}

// createMigrationsTable creates the migrations tracking table.
func createMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// isMigrationApplied checks if a migration has been applied.
func isMigrationApplied(db *sql.DB, version int) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM migrations WHERE version = ?", version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// recordMigration records that a migration has been applied.
func recordMigration(db *sql.DB, version int, name string) error {
	_, err := db.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", version, name)
	return err
}

// Migration SQL statements

const createSwitchRecordsTable = `
CREATE TABLE switch_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	workspace_id TEXT NOT NULL,
	previous_id TEXT,
	latency_ns INTEGER DEFAULT 0,
	window_count INTEGER DEFAULT 0,
	success BOOLEAN DEFAULT 0,
	reason TEXT,
	switched_at TIMESTAMP NOT NULL
);
`

const createTilingRecordsTable = `
CREATE TABLE tiling_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	workspace_id TEXT NOT NULL,
	algorithm TEXT NOT NULL,
	window_count INTEGER DEFAULT 0,
	duration_ns INTEGER DEFAULT 0,
	success BOOLEAN DEFAULT 0,
	reason TEXT,
	computed_at TIMESTAMP NOT NULL
);
`

const createMetricsIndices = `
CREATE INDEX IF NOT EXISTS idx_switch_records_workspace ON switch_records(workspace_id);
CREATE INDEX IF NOT EXISTS idx_switch_records_switched ON switch_records(switched_at);
CREATE INDEX IF NOT EXISTS idx_switch_records_success ON switch_records(success);
CREATE INDEX IF NOT EXISTS idx_tiling_records_workspace ON tiling_records(workspace_id);
CREATE INDEX IF NOT EXISTS idx_tiling_records_computed ON tiling_records(computed_at);
CREATE INDEX IF NOT EXISTS idx_tiling_records_algorithm ON tiling_records(algorithm);
`
