package memory

import (
	"context"
	"sync"

	"admission-quiz-service/internal/app"
	"admission-quiz-service/internal/domain"
)

// Ledger is an in-memory implementation of app.Ledger, useful for tests and
// for running without any configured store. Records live only as long as the
// process.
type Ledger struct {
	feed app.ResultFeed

	mu      sync.RWMutex
	records []domain.AttemptRecord
	byID    map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{byID: make(map[string]struct{})}
}

func (l *Ledger) HasAttempted(_ context.Context, studentID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.byID[domain.NormalizeStudentID(studentID)]
	return ok, nil
}

func (l *Ledger) Append(_ context.Context, record domain.AttemptRecord) error {
	norm := domain.NormalizeStudentID(record.StudentID)

	l.mu.Lock()
	if _, exists := l.byID[norm]; exists {
		l.mu.Unlock()
		return domain.ErrDuplicateAttempt
	}
	l.records = append(l.records, record)
	l.byID[norm] = struct{}{}
	l.mu.Unlock()

	l.feed.Publish(record)
	return nil
}

func (l *Ledger) ListAll(_ context.Context) ([]domain.AttemptRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.AttemptRecord, len(l.records))
	copy(out, l.records)
	return out, nil
}

func (l *Ledger) Subscribe() (<-chan domain.AttemptRecord, func()) {
	return l.feed.Subscribe()
}
