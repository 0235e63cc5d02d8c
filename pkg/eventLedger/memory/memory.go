package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Layr-Labs/factory-event-indexer/pkg/eventLedger"
)

// InMemoryEventLedger keeps admitted keys in a map guarded by a mutex
type InMemoryEventLedger struct {
	mu      sync.Mutex
	closed  bool
	records map[eventLedger.EventKey]*eventLedger.LedgerRecord
}

func NewInMemoryEventLedger() *InMemoryEventLedger {
	return &InMemoryEventLedger{
		records: make(map[eventLedger.EventKey]*eventLedger.LedgerRecord),
	}
}

func (l *InMemoryEventLedger) AdmitIfNew(ctx context.Context, key eventLedger.EventKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, eventLedger.ErrLedgerClosed
	}
	if _, exists := l.records[key]; exists {
		return false, nil
	}

	now := time.Now().UTC()
	l.records[key] = &eventLedger.LedgerRecord{
		ID:        uuid.NewString(),
		EventKey:  key,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return true, nil
}

// Records returns a snapshot of every admitted record
func (l *InMemoryEventLedger) Records() []eventLedger.LedgerRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]eventLedger.LedgerRecord, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, *r)
	}
	return out
}

func (l *InMemoryEventLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return eventLedger.ErrLedgerClosed
	}
	l.closed = true
	l.records = nil
	return nil
}
