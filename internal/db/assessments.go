package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/themobileprof/symptomcheck/internal/report"
)

var ErrNotFound = errors.New("record not found")

// AssessmentSummary is one history row without the full report
type AssessmentSummary struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	TopCondition   *string   `json:"top_condition,omitempty"`
	TopProbability *float64  `json:"top_probability,omitempty"`
	Severity       string    `json:"severity"`
	Emergency      bool      `json:"emergency"`
	Strategy       string    `json:"strategy"`
	CreatedAt      time.Time `json:"created_at"`
}

// SaveAssessment stores an exported report and returns its history ID
func (db *DB) SaveAssessment(ctx context.Context, rec report.Record) (string, error) {
	data, err := rec.JSON()
	if err != nil {
		return "", err
	}

	var topCondition *string
	var topProbability *float64
	if len(rec.Conditions) > 0 {
		topCondition = &rec.Conditions[0].Name
		topProbability = &rec.Conditions[0].Probability
	}

	query := `
		INSERT INTO assessments (session_id, top_condition, top_probability, severity, emergency, strategy, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64
	err = db.QueryRowContext(ctx, query,
		rec.SessionID, topCondition, topProbability, rec.Severity.Level,
		rec.Emergency, rec.Strategy, data, rec.GeneratedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to save assessment: %w", err)
	}

	return strconv.FormatInt(id, 10), nil
}

// ListAssessments returns history rows, newest first. An empty sessionID
// lists every session.
func (db *DB) ListAssessments(ctx context.Context, sessionID string, limit, offset int) ([]AssessmentSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, session_id, top_condition, top_probability, severity, emergency, strategy, created_at
		FROM assessments
		WHERE ($1 = '' OR session_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := db.QueryContext(ctx, query, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	summaries := []AssessmentSummary{}
	for rows.Next() {
		var s AssessmentSummary
		var id int64
		if err := rows.Scan(
			&id, &s.SessionID, &s.TopCondition, &s.TopProbability,
			&s.Severity, &s.Emergency, &s.Strategy, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		s.ID = strconv.FormatInt(id, 10)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	return summaries, nil
}

// GetAssessment loads a stored report by history ID
func (db *DB) GetAssessment(ctx context.Context, id string) (report.Record, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return report.Record{}, ErrNotFound
	}

	var data []byte
	err = db.QueryRowContext(ctx, `SELECT report FROM assessments WHERE id = $1`, n).Scan(&data)
	if err == sql.ErrNoRows {
		return report.Record{}, ErrNotFound
	}
	if err != nil {
		return report.Record{}, fmt.Errorf("failed to get assessment: %w", err)
	}

	rec, err := report.Parse(data)
	if err != nil {
		return report.Record{}, err
	}
	rec.ID = id
	return rec, nil
}

// DeleteSessionAssessments removes the history of one session and returns
// the number of rows deleted
func (db *DB) DeleteSessionAssessments(ctx context.Context, sessionID string) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM assessments WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete assessments: %w", err)
	}
	return res.RowsAffected()
}
