// Package redis stores attempt records in Redis so multiple views (quiz
// sessions, dashboards, the results CLI) share one ledger and a change feed.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"admission-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	// resultsKey holds the full ledger as a list of JSON records.
	resultsKey = "admission:results"
	// shadowKeyPrefix stores each record under its own key for direct lookup.
	shadowKeyPrefix = "admission:result:"
	// pendingKey is the single-slot handoff of the most recent record; the
	// dashboard reader drains and clears it.
	pendingKey = "admission:results:pending"
	// changeChannel carries the change notification after every append.
	changeChannel = "admission:results:changed"
)

// Ledger is a Redis-backed implementation of app.Ledger. Writers are assumed
// single per browsing context; the gap between the HasAttempted check and
// Append is an accepted limitation rather than something to lock around.
type Ledger struct {
	client *redis.Client
}

func NewLedger(client *redis.Client) *Ledger {
	return &Ledger{client: client}
}

func (l *Ledger) HasAttempted(ctx context.Context, studentID string) (bool, error) {
	norm := domain.NormalizeStudentID(studentID)
	for _, rec := range l.readAll(ctx) {
		if domain.NormalizeStudentID(rec.StudentID) == norm {
			return true, nil
		}
	}
	return false, nil
}

func (l *Ledger) Append(ctx context.Context, record domain.AttemptRecord) error {
	attempted, err := l.HasAttempted(ctx, record.StudentID)
	if err == nil && attempted {
		return domain.ErrDuplicateAttempt
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}

	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, resultsKey, payload)
	pipe.Set(ctx, shadowKeyPrefix+record.RecordID, payload, 0)
	pipe.Set(ctx, pendingKey, payload, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}

	// Change signal for other open views; delivery is best effort.
	if err := l.client.Publish(ctx, changeChannel, payload).Err(); err != nil {
		log.Printf("publish ledger change: %v", err)
	}
	return nil
}

func (l *Ledger) ListAll(ctx context.Context) ([]domain.AttemptRecord, error) {
	return l.readAll(ctx), nil
}

// readAll degrades to an empty slice on read failure and skips records that
// no longer unmarshal, so an unreadable store never blocks a session.
func (l *Ledger) readAll(ctx context.Context) []domain.AttemptRecord {
	raw, err := l.client.LRange(ctx, resultsKey, 0, -1).Result()
	if err != nil && err != redis.Nil {
		log.Printf("read ledger: %v", err)
		return nil
	}
	records := make([]domain.AttemptRecord, 0, len(raw))
	for _, item := range raw {
		var rec domain.AttemptRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			log.Printf("skipping unreadable ledger entry: %v", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// TakePending drains and clears the single-slot handoff of the most recent
// record, returning false when the slot is empty.
func (l *Ledger) TakePending(ctx context.Context) (domain.AttemptRecord, bool, error) {
	payload, err := l.client.GetDel(ctx, pendingKey).Result()
	if err == redis.Nil {
		return domain.AttemptRecord{}, false, nil
	}
	if err != nil {
		return domain.AttemptRecord{}, false, fmt.Errorf("take pending: %w", err)
	}
	var rec domain.AttemptRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return domain.AttemptRecord{}, false, fmt.Errorf("unmarshal pending: %w", err)
	}
	return rec, true, nil
}

// Subscribe listens on the Redis change channel, so appends from any process
// sharing the store reach this subscriber.
func (l *Ledger) Subscribe() (<-chan domain.AttemptRecord, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := l.client.Subscribe(ctx, changeChannel)
	ch := make(chan domain.AttemptRecord, 8)

	go func() {
		defer close(ch)
		for {
			msg, err := sub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			var rec domain.AttemptRecord
			if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
				log.Printf("skipping unreadable change notification: %v", err)
				continue
			}
			select {
			case ch <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func() {
		cancel()
		_ = sub.Close()
	}
	return ch, stop
}
