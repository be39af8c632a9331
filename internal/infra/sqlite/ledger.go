// Package sqlite persists attempt records in a local SQLite file, the
// service-side counterpart of the browser-local result store it replaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"admission-quiz-service/internal/app"
	"admission-quiz-service/internal/domain"
	sqlite3 "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
	record_id            TEXT PRIMARY KEY,
	schema_version       INTEGER NOT NULL,
	student_id           TEXT NOT NULL,
	student_id_norm      TEXT NOT NULL UNIQUE,
	student_name         TEXT NOT NULL,
	quiz_name            TEXT NOT NULL,
	total_questions      INTEGER NOT NULL,
	correct_count        INTEGER NOT NULL,
	percent_score        INTEGER NOT NULL,
	time_taken_seconds   INTEGER NOT NULL,
	completed_at_utc     TEXT NOT NULL,
	completed_at_display TEXT NOT NULL,
	answers              TEXT NOT NULL,
	status               TEXT NOT NULL
);`

// Ledger is a SQLite-backed implementation of app.Ledger. The UNIQUE
// student_id_norm column enforces the one-attempt-per-identity invariant at
// the store itself.
type Ledger struct {
	db   *sql.DB
	feed app.ResultFeed
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create attempts table: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) HasAttempted(ctx context.Context, studentID string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM attempts WHERE student_id_norm = ?)`,
		domain.NormalizeStudentID(studentID),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query attempts: %w", err)
	}
	return exists, nil
}

func (l *Ledger) Append(ctx context.Context, record domain.AttemptRecord) error {
	answers, err := json.Marshal(record.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO attempts (
			record_id, schema_version, student_id, student_id_norm, student_name,
			quiz_name, total_questions, correct_count, percent_score,
			time_taken_seconds, completed_at_utc, completed_at_display, answers, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RecordID,
		record.SchemaVersion,
		record.StudentID,
		domain.NormalizeStudentID(record.StudentID),
		record.StudentName,
		record.QuizName,
		record.TotalQuestions,
		record.CorrectCount,
		record.PercentScore,
		record.TimeTakenSeconds,
		record.CompletedAtUTC.Format(time.RFC3339),
		record.CompletedAtDisplay,
		string(answers),
		record.Status,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return domain.ErrDuplicateAttempt
		}
		return fmt.Errorf("insert attempt: %w", err)
	}

	l.feed.Publish(record)
	return nil
}

func (l *Ledger) ListAll(ctx context.Context) ([]domain.AttemptRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT record_id, schema_version, student_id, student_name, quiz_name,
			total_questions, correct_count, percent_score, time_taken_seconds,
			completed_at_utc, completed_at_display, answers, status
		 FROM attempts`)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var records []domain.AttemptRecord
	for rows.Next() {
		var (
			rec         domain.AttemptRecord
			completedAt string
			answers     string
		)
		if err := rows.Scan(
			&rec.RecordID, &rec.SchemaVersion, &rec.StudentID, &rec.StudentName,
			&rec.QuizName, &rec.TotalQuestions, &rec.CorrectCount, &rec.PercentScore,
			&rec.TimeTakenSeconds, &completedAt, &rec.CompletedAtDisplay,
			&answers, &rec.Status,
		); err != nil {
			// Malformed rows are skipped rather than failing the whole read.
			log.Printf("skipping unreadable attempt row: %v", err)
			continue
		}
		if ts, err := time.Parse(time.RFC3339, completedAt); err == nil {
			rec.CompletedAtUTC = ts
		}
		if err := json.Unmarshal([]byte(answers), &rec.Answers); err != nil {
			log.Printf("skipping attempt %s with unreadable answers: %v", rec.RecordID, err)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return records, fmt.Errorf("iterate attempts: %w", err)
	}
	return records, nil
}

func (l *Ledger) Subscribe() (<-chan domain.AttemptRecord, func()) {
	return l.feed.Subscribe()
}
