package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "batches and reports",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS batches (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL CHECK(status IN ('PENDING', 'PROCESSING', 'COMPLETED', 'FAILED')),
    error TEXT,
    document_count INTEGER DEFAULT 0,
    processed_count INTEGER DEFAULT 0,
    rejected_count INTEGER DEFAULT 0,
    started_at TEXT,
    finished_at TEXT,
    stats_json TEXT
);

CREATE TABLE IF NOT EXISTS reports (
    report_id TEXT PRIMARY KEY,
    batch_id TEXT NOT NULL REFERENCES batches(id),
    generated_at TEXT NOT NULL,
    document_count INTEGER DEFAULT 0,
    insight_count INTEGER DEFAULT 0,
    recommendation_count INTEGER DEFAULT 0,
    report_json TEXT NOT NULL,
    markdown TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_batches_started ON batches(started_at);
CREATE INDEX IF NOT EXISTS idx_reports_batch ON reports(batch_id);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "per-document rejections",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS batch_rejections (
    batch_id TEXT NOT NULL REFERENCES batches(id),
    stage TEXT NOT NULL,
    document_id TEXT NOT NULL,
    reason TEXT NOT NULL,
    PRIMARY KEY (batch_id, stage, document_id)
);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
