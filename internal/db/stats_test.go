package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
)

func TestAssessmentStats(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(DISTINCT session_id\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sessions", "emergencies", "symptoms", "min", "max"}).
			AddRow(int64(3), int64(2), int64(1), int64(7), created, created.Add(48*time.Hour)))
	mock.ExpectQuery(`SELECT severity, COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"severity", "count"}).
			AddRow("moderate", int64(2)).
			AddRow("severe", int64(1)))
	mock.ExpectQuery(`SELECT top_condition`).WithArgs(DefaultStatsTop).
		WillReturnRows(sqlmock.NewRows([]string{"top_condition", "n"}).
			AddRow("flu", int64(2)).
			AddRow("migraine", int64(1)))
	mock.ExpectQuery(`jsonb_array_elements`).WithArgs(DefaultStatsTop).
		WillReturnRows(sqlmock.NewRows([]string{"name", "n"}).
			AddRow("fever", int64(3)).
			AddRow("headache", int64(2)))

	got, err := db.AssessmentStats(context.Background(), 0)
	if err != nil {
		t.Fatalf("AssessmentStats failed: %v", err)
	}

	last := created.Add(48 * time.Hour)
	want := AssessmentStats{
		Assessments:          3,
		Sessions:             2,
		Emergencies:          1,
		SymptomsRecorded:     7,
		AvgSymptoms:          2.33,
		SeverityDistribution: map[string]int64{"moderate": 2, "severe": 1},
		TopConditions:        []NameCount{{"flu", 2}, {"migraine", 1}},
		TopSymptoms:          []NameCount{{"fever", 3}, {"headache", 2}},
		First:                &created,
		Last:                 &last,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AssessmentStats mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssessmentStatsEmpty(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sessions", "emergencies", "symptoms", "min", "max"}).
			AddRow(int64(0), int64(0), int64(0), int64(0), nil, nil))

	got, err := db.AssessmentStats(context.Background(), 10)
	if err != nil {
		t.Fatalf("AssessmentStats failed: %v", err)
	}
	if got.Assessments != 0 || got.First != nil || got.Last != nil {
		t.Errorf("Expected empty stats, got %+v", got)
	}
	if got.TopConditions == nil || got.TopSymptoms == nil || got.SeverityDistribution == nil {
		t.Error("Expected empty collections instead of nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssessmentStatsError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sessions", "emergencies", "symptoms", "min", "max"}).
			AddRow(int64(1), int64(1), int64(0), int64(1), created, created))
	mock.ExpectQuery(`SELECT severity`).WillReturnError(sql.ErrConnDone)

	if _, err := db.AssessmentStats(context.Background(), 3); err == nil {
		t.Error("Expected error when severity query fails")
	}
}
