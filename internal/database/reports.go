package database

import "database/sql"

const reportColumns = `report_id, batch_id, generated_at, document_count, insight_count, recommendation_count, report_json, markdown`

// InsertReport stores a report. A report with the same ID is replaced.
func (db *DB) InsertReport(r *StoredReport) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO reports (`+reportColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ReportID, r.BatchID, r.GeneratedAt, r.DocumentCount, r.InsightCount,
		r.RecommendationCount, r.ReportJSON, r.Markdown,
	)
	return err
}

// GetReport returns a report by ID.
func (db *DB) GetReport(reportID string) (*StoredReport, error) {
	return db.getReportWhere("report_id = ?", reportID)
}

// GetReportForBatch returns the report generated by a batch.
func (db *DB) GetReportForBatch(batchID string) (*StoredReport, error) {
	return db.getReportWhere("batch_id = ?", batchID)
}

func (db *DB) getReportWhere(cond string, arg any) (*StoredReport, error) {
	row := db.conn.QueryRow(`SELECT `+reportColumns+` FROM reports WHERE `+cond, arg)
	var r StoredReport
	if err := row.Scan(&r.ReportID, &r.BatchID, &r.GeneratedAt, &r.DocumentCount,
		&r.InsightCount, &r.RecommendationCount, &r.ReportJSON, &r.Markdown); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// GetAllReports returns all reports, newest first. The JSON and markdown
// bodies are left empty.
func (db *DB) GetAllReports() ([]StoredReport, error) {
	rows, err := db.conn.Query(
		`SELECT report_id, batch_id, generated_at, document_count, insight_count, recommendation_count
		 FROM reports ORDER BY generated_at DESC, report_id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []StoredReport
	for rows.Next() {
		var r StoredReport
		if err := rows.Scan(&r.ReportID, &r.BatchID, &r.GeneratedAt, &r.DocumentCount,
			&r.InsightCount, &r.RecommendationCount); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM batches", &s.TotalBatches},
		{"SELECT COUNT(*) FROM batches WHERE status = 'COMPLETED'", &s.CompletedBatches},
		{"SELECT COUNT(*) FROM batches WHERE status = 'FAILED'", &s.FailedBatches},
		{"SELECT COUNT(*) FROM reports", &s.Reports},
		{"SELECT COALESCE(SUM(document_count), 0) FROM batches", &s.DocumentsReceived},
		{"SELECT COALESCE(SUM(processed_count), 0) FROM batches", &s.DocumentsProcessed},
		{"SELECT COUNT(*) FROM batch_rejections", &s.Rejections},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}
