package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mmrhub/internal/model"
)

// ErrReportNotFound is returned when the requested archive row is missing.
var ErrReportNotFound = errors.New("report not found")

// ReportRecord is one archive listing row, without the full payload.
type ReportRecord struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	Month      string    `json:"month"`
	Year       int       `json:"year"`
	FileName   string    `json:"fileName"`
	Confidence int       `json:"confidence"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SaveReport archives a parsed report, serializing the full document as JSON.
func (s *Store) SaveReport(ctx context.Context, report *model.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, project_id, month, year, file_name, confidence, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), report.ProjectID, report.Month, report.Year,
		report.Metadata.FileName, report.Metadata.Confidence, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// GetReport loads one archived report by id.
func (s *Store) GetReport(ctx context.Context, id string) (*model.Report, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM reports WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}
	var report model.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report payload: %w", err)
	}
	return &report, nil
}

// ListReports pages the archive newest-first, optionally scoped to a project.
func (s *Store) ListReports(ctx context.Context, projectID string, limit, offset int) ([]ReportRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, project_id, month, year, file_name, confidence, created_at
		FROM reports
	`
	args := []any{}
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	records := make([]ReportRecord, 0, limit)
	for rows.Next() {
		var rec ReportRecord
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.Month, &rec.Year,
			&rec.FileName, &rec.Confidence, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
