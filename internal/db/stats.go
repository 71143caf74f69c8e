package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"
)

// DefaultStatsTop is how many conditions and symptoms AssessmentStats ranks
const DefaultStatsTop = 5

// NameCount is one ranked entry of the history statistics
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// AssessmentStats aggregates the whole assessment history
type AssessmentStats struct {
	Assessments          int64            `json:"assessments"`
	Sessions             int64            `json:"sessions"`
	Emergencies          int64            `json:"emergencies"`
	SymptomsRecorded     int64            `json:"symptoms_recorded"`
	AvgSymptoms          float64          `json:"average_symptoms_per_assessment"`
	SeverityDistribution map[string]int64 `json:"severity_distribution"`
	TopConditions        []NameCount      `json:"top_conditions"`
	TopSymptoms          []NameCount      `json:"top_symptoms"`
	First                *time.Time       `json:"first_assessment,omitempty"`
	Last                 *time.Time       `json:"last_assessment,omitempty"`
}

// reports saved without symptoms carry a JSON null
const symptomsArray = `CASE WHEN jsonb_typeof(report->'symptoms') = 'array' THEN report->'symptoms' ELSE '[]'::jsonb END`

// AssessmentStats counts assessments, sessions and emergencies, and ranks the
// most frequent top conditions and reported symptoms. top <= 0 uses
// DefaultStatsTop.
func (db *DB) AssessmentStats(ctx context.Context, top int) (AssessmentStats, error) {
	if top <= 0 || top > 100 {
		top = DefaultStatsTop
	}

	stats := AssessmentStats{
		SeverityDistribution: map[string]int64{},
		TopConditions:        []NameCount{},
		TopSymptoms:          []NameCount{},
	}

	var first, last sql.NullTime
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT session_id), COUNT(*) FILTER (WHERE emergency),
			COALESCE(SUM(jsonb_array_length(`+symptomsArray+`)), 0),
			MIN(created_at), MAX(created_at)
		FROM assessments
	`).Scan(&stats.Assessments, &stats.Sessions, &stats.Emergencies, &stats.SymptomsRecorded, &first, &last)
	if err != nil {
		return AssessmentStats{}, fmt.Errorf("failed to count assessments: %w", err)
	}
	if first.Valid {
		stats.First = &first.Time
	}
	if last.Valid {
		stats.Last = &last.Time
	}
	if stats.Assessments == 0 {
		return stats, nil
	}
	stats.AvgSymptoms = math.Round(float64(stats.SymptomsRecorded)/float64(stats.Assessments)*100) / 100

	rows, err := db.QueryContext(ctx, `
		SELECT severity, COUNT(*)
		FROM assessments
		GROUP BY severity
	`)
	if err != nil {
		return AssessmentStats{}, fmt.Errorf("failed to count severities: %w", err)
	}
	for rows.Next() {
		var level string
		var n int64
		if err := rows.Scan(&level, &n); err != nil {
			rows.Close()
			return AssessmentStats{}, fmt.Errorf("failed to scan severity: %w", err)
		}
		stats.SeverityDistribution[level] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return AssessmentStats{}, fmt.Errorf("failed to count severities: %w", err)
	}

	stats.TopConditions, err = db.rank(ctx, `
		SELECT top_condition, COUNT(*) AS n
		FROM assessments
		WHERE top_condition IS NOT NULL
		GROUP BY top_condition
		ORDER BY n DESC, top_condition
		LIMIT $1
	`, top)
	if err != nil {
		return AssessmentStats{}, fmt.Errorf("failed to rank conditions: %w", err)
	}

	stats.TopSymptoms, err = db.rank(ctx, `
		SELECT s->>'name' AS name, COUNT(*) AS n
		FROM assessments, jsonb_array_elements(`+symptomsArray+`) AS s
		GROUP BY name
		ORDER BY n DESC, name
		LIMIT $1
	`, top)
	if err != nil {
		return AssessmentStats{}, fmt.Errorf("failed to rank symptoms: %w", err)
	}

	return stats, nil
}

func (db *DB) rank(ctx context.Context, query string, top int) ([]NameCount, error) {
	rows, err := db.QueryContext(ctx, query, top)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []NameCount{}
	for rows.Next() {
		var nc NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}
