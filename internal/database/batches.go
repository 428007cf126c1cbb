package database

import "database/sql"

const batchColumns = `id, status, error, document_count, processed_count, rejected_count, started_at, finished_at, stats_json`

// UpsertBatch inserts a batch or updates its status and counters.
func (db *DB) UpsertBatch(b *Batch) error {
	_, err := db.conn.Exec(
		`INSERT INTO batches (`+batchColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status,
		   error = excluded.error,
		   document_count = excluded.document_count,
		   processed_count = excluded.processed_count,
		   rejected_count = excluded.rejected_count,
		   started_at = COALESCE(excluded.started_at, batches.started_at),
		   finished_at = excluded.finished_at,
		   stats_json = COALESCE(excluded.stats_json, batches.stats_json)`,
		b.ID, b.Status, b.Error, b.DocumentCount, b.ProcessedCount, b.RejectedCount,
		b.StartedAt, b.FinishedAt, b.StatsJSON,
	)
	return err
}

// GetBatch returns a batch by ID.
func (db *DB) GetBatch(id string) (*Batch, error) {
	row := db.conn.QueryRow(`SELECT `+batchColumns+` FROM batches WHERE id = ?`, id)
	b, err := scanBatch(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// GetRecentBatches returns the most recently started batches.
func (db *DB) GetRecentBatches(limit int) ([]Batch, error) {
	rows, err := db.conn.Query(
		`SELECT `+batchColumns+` FROM batches ORDER BY started_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	return batches, rows.Err()
}

// InsertRejections records the documents a stage dropped.
func (db *DB) InsertRejections(rejections []Rejection) error {
	if len(rejections) == 0 {
		return nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO batch_rejections (batch_id, stage, document_id, reason) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range rejections {
		if _, err := stmt.Exec(r.BatchID, r.Stage, r.DocumentID, r.Reason); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetRejections returns the rejections recorded for a batch.
func (db *DB) GetRejections(batchID string) ([]Rejection, error) {
	rows, err := db.conn.Query(
		`SELECT batch_id, stage, document_id, reason FROM batch_rejections
		 WHERE batch_id = ? ORDER BY rowid`, batchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rejection
	for rows.Next() {
		var r Rejection
		if err := rows.Scan(&r.BatchID, &r.Stage, &r.DocumentID, &r.Reason); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(s scanner) (*Batch, error) {
	var b Batch
	err := s.Scan(&b.ID, &b.Status, &b.Error, &b.DocumentCount, &b.ProcessedCount,
		&b.RejectedCount, &b.StartedAt, &b.FinishedAt, &b.StatsJSON)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
