package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/themobileprof/symptomcheck/internal/report"
)

var created = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func sampleRecord() report.Record {
	return report.Record{
		Version:     report.FormatVersion,
		SessionID:   "sess-1",
		GeneratedAt: created,
		Strategy:    "deterministic",
		Symptoms:    []report.Symptom{{Name: "fever", Label: "fever", Severity: "severe", FirstMentioned: created}},
		Conditions:  []report.Condition{{Name: "flu", DisplayName: "Flu", Probability: 0.75, Matched: []string{"fever"}}},
		Severity:    report.Severity{Score: 3, Level: "severe"},
	}
}

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return Wrap(sqlDB), mock
}

func TestSaveAssessment(t *testing.T) {
	tests := []struct {
		name      string
		record    func() report.Record
		setupMock func(sqlmock.Sqlmock)
		want      string
		wantErr   bool
	}{
		{
			name:   "stores top condition",
			record: sampleRecord,
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`INSERT INTO assessments`).
					WithArgs("sess-1", "flu", 0.75, "severe", false, "deterministic", sqlmock.AnyArg(), created).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
			},
			want: "7",
		},
		{
			name: "empty assessment stores nulls",
			record: func() report.Record {
				rec := sampleRecord()
				rec.Conditions = nil
				return rec
			},
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`INSERT INTO assessments`).
					WithArgs("sess-1", nil, nil, "severe", false, "deterministic", sqlmock.AnyArg(), created).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
			},
			want: "8",
		},
		{
			name:   "insert error",
			record: sampleRecord,
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`INSERT INTO assessments`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			tt.setupMock(mock)

			got, err := db.SaveAssessment(context.Background(), tt.record())
			if (err != nil) != tt.wantErr {
				t.Fatalf("SaveAssessment error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SaveAssessment = %q, want %q", got, tt.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestListAssessments(t *testing.T) {
	db, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"id", "session_id", "top_condition", "top_probability", "severity", "emergency", "strategy", "created_at"}).
		AddRow(int64(2), "sess-1", "flu", 0.75, "moderate", false, "statistical", created).
		AddRow(int64(1), "sess-1", nil, nil, "none", false, "deterministic", created.Add(-time.Hour))
	mock.ExpectQuery(`SELECT id, session_id`).WithArgs("sess-1", 50, 0).WillReturnRows(rows)

	got, err := db.ListAssessments(context.Background(), "sess-1", 0, -3)
	if err != nil {
		t.Fatalf("ListAssessments failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(got))
	}
	if got[0].ID != "2" || got[0].TopCondition == nil || *got[0].TopCondition != "flu" {
		t.Errorf("Unexpected first row: %+v", got[0])
	}
	if got[1].TopCondition != nil || got[1].TopProbability != nil {
		t.Errorf("Expected NULL top condition, got %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetAssessment(t *testing.T) {
	rec := sampleRecord()
	data, err := rec.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	tests := []struct {
		name      string
		id        string
		setupMock func(sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "found",
			id:   "7",
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT report FROM assessments`).WithArgs(int64(7)).
					WillReturnRows(sqlmock.NewRows([]string{"report"}).AddRow(data))
			},
		},
		{
			name: "missing",
			id:   "9",
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT report FROM assessments`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:      "malformed id",
			id:        "abc",
			setupMock: func(m sqlmock.Sqlmock) {},
			wantErr:   ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			tt.setupMock(mock)

			got, err := db.GetAssessment(context.Background(), tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
			} else {
				if err != nil {
					t.Fatalf("GetAssessment failed: %v", err)
				}
				if got.ID != tt.id || got.SessionID != "sess-1" || got.Conditions[0].Name != "flu" {
					t.Errorf("Unexpected record: %+v", got)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestDeleteSessionAssessments(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM assessments`).WithArgs("sess-1").WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := db.DeleteSessionAssessments(context.Background(), "sess-1")
	if err != nil || n != 3 {
		t.Errorf("Expected 3 rows deleted, got %d (%v)", n, err)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		t.Fatalf("iofs.New: %v", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected first migration version 1, got %d", version)
	}

	up, _, err := src.ReadUp(version)
	if err != nil {
		t.Fatalf("ReadUp: %v", err)
	}
	up.Close()
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "localhost", Port: 5432, User: "app", Password: "pw", Database: "symptoms", SSLMode: "disable"}
	want := "host=localhost port=5432 user=app password=pw dbname=symptoms sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestConfigDSNPrefersURL(t *testing.T) {
	cfg := Config{URL: "postgres://app@db/symptoms", Host: "localhost"}
	if got := cfg.DSN(); got != cfg.URL {
		t.Errorf("DSN() = %q, want %q", got, cfg.URL)
	}
}
