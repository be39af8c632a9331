package app

import (
	"testing"

	"admission-quiz-service/internal/domain"
)

func TestResultFeedPublishAndCancel(t *testing.T) {
	var feed ResultFeed

	ch, cancel := feed.Subscribe()
	feed.Publish(domain.AttemptRecord{RecordID: "r1"})

	rec := <-ch
	if rec.RecordID != "r1" {
		t.Fatalf("expected r1, got %q", rec.RecordID)
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}
	// A second cancel must be a no-op.
	cancel()

	// Publishing with no subscribers must not block or panic.
	feed.Publish(domain.AttemptRecord{RecordID: "r2"})
}

func TestResultFeedDropsOldestForSlowSubscriber(t *testing.T) {
	var feed ResultFeed

	ch, cancel := feed.Subscribe()
	defer cancel()

	// Overfill the subscriber buffer; the feed keeps the newest records.
	for i := 0; i < 20; i++ {
		feed.Publish(domain.AttemptRecord{RecordID: "r"})
	}

	drained := 0
	for {
		select {
		case <-ch:
			drained++
			continue
		default:
		}
		break
	}
	if drained == 0 || drained > 8 {
		t.Fatalf("expected between 1 and 8 buffered records, got %d", drained)
	}
}
