package app

import (
	"sync"

	"admission-quiz-service/internal/domain"
)

// ResultFeed is an in-process publish/subscribe helper for ledger change
// notifications. Ledger backends that have no native change feed embed it and
// call Publish after every successful append.
//
// The zero value is ready to use.
type ResultFeed struct {
	mu   sync.Mutex
	subs map[chan domain.AttemptRecord]struct{}
}

// Subscribe registers a listener. The cancel function removes it and closes
// the channel; calling cancel twice is a no-op.
func (f *ResultFeed) Subscribe() (<-chan domain.AttemptRecord, func()) {
	ch := make(chan domain.AttemptRecord, 8)

	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[chan domain.AttemptRecord]struct{})
	}
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a record to every subscriber. A full subscriber drops its
// oldest pending record so a slow reader cannot block the append path.
func (f *ResultFeed) Publish(record domain.AttemptRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- record:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- record
		}
	}
}
