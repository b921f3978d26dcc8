package db

import (
	"database/sql"
	"fmt"
)

// Download is the stored outcome of one download task.
type Download struct {
	RunID         string
	ImageID       string
	SourceURL     string
	Status        int
	FailureReason string
	ErrorMessage  string
	HTTPStatus    int
	FilePath      string
	SizeBytes     int64
	ContentHash   string
}

// RecordDownload stores a task outcome. Recording the same image twice for a
// run replaces the earlier row.
func (db *DB) RecordDownload(d Download) error {
	_, err := db.Exec(`
		INSERT INTO downloads (run_id, image_id, source_url, status, failure_reason, error_message,
		                       http_status, file_path, size_bytes, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, image_id) DO UPDATE SET
			source_url = excluded.source_url,
			status = excluded.status,
			failure_reason = excluded.failure_reason,
			error_message = excluded.error_message,
			http_status = excluded.http_status,
			file_path = excluded.file_path,
			size_bytes = excluded.size_bytes,
			content_hash = excluded.content_hash
	`, d.RunID, d.ImageID, d.SourceURL, d.Status, NewNullString(d.FailureReason), NewNullString(d.ErrorMessage),
		d.HTTPStatus, NewNullString(d.FilePath), d.SizeBytes, NewNullString(d.ContentHash))
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// GetRunDownloads retrieves all downloads of a run in insertion order.
func (db *DB) GetRunDownloads(runID string) ([]Download, error) {
	rows, err := db.Query(`
		SELECT run_id, image_id, source_url, status, failure_reason, error_message,
		       http_status, file_path, size_bytes, content_hash
		FROM downloads
		WHERE run_id = ?
		ORDER BY download_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run downloads: %w", err)
	}
	defer rows.Close()

	var downloads []Download
	for rows.Next() {
		var d Download
		var reason, message, filePath, hash sql.NullString
		var httpStatus sql.NullInt64
		if err := rows.Scan(&d.RunID, &d.ImageID, &d.SourceURL, &d.Status, &reason, &message,
			&httpStatus, &filePath, &d.SizeBytes, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		d.FailureReason = reason.String
		d.ErrorMessage = message.String
		d.HTTPStatus = int(httpStatus.Int64)
		d.FilePath = filePath.String
		d.ContentHash = hash.String
		downloads = append(downloads, d)
	}

	return downloads, rows.Err()
}

// NewNullString returns a NULL for empty strings.
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
