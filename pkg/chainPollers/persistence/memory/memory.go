package memory

import (
	"context"
	"sync"

	chainPoller "github.com/Layr-Labs/factory-event-indexer/pkg/chainPollers"
	"github.com/Layr-Labs/factory-event-indexer/pkg/chainPollers/persistence"
)

// InMemoryChainCursorStore implements IChainCursorStore with in-memory storage
type InMemoryChainCursorStore struct {
	mu      sync.RWMutex
	closed  bool
	cursors map[string]chainPoller.ChainCursor
}

// NewInMemoryChainCursorStore creates a new in-memory cursor store
func NewInMemoryChainCursorStore() *InMemoryChainCursorStore {
	return &InMemoryChainCursorStore{
		cursors: make(map[string]chainPoller.ChainCursor),
	}
}

// GetCursor returns a copy of the stored cursor, or defaults when absent
func (s *InMemoryChainCursorStore) GetCursor(ctx context.Context, contractId string, chainType string) (*chainPoller.ChainCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, persistence.ErrStoreClosed
	}

	cursor := s.cursors[persistence.CursorKey(contractId, chainType)]
	if cursor.LastScannedBlock != nil {
		last := *cursor.LastScannedBlock
		cursor.LastScannedBlock = &last
	}
	return &cursor, nil
}

// SetInProgress sets the flag, keeping the last scanned block
func (s *InMemoryChainCursorStore) SetInProgress(ctx context.Context, contractId string, chainType string, inProgress bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrStoreClosed
	}

	key := persistence.CursorKey(contractId, chainType)
	cursor := s.cursors[key]
	cursor.InProgress = inProgress
	s.cursors[key] = cursor
	return nil
}

// AdvanceCursor overwrites the last scanned block, keeping the flag
func (s *InMemoryChainCursorStore) AdvanceCursor(ctx context.Context, contractId string, chainType string, lastBlock uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrStoreClosed
	}

	key := persistence.CursorKey(contractId, chainType)
	cursor := s.cursors[key]
	cursor.LastScannedBlock = &lastBlock
	s.cursors[key] = cursor
	return nil
}

// Close closes the store
func (s *InMemoryChainCursorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrStoreClosed
	}

	s.closed = true
	s.cursors = nil

	return nil
}
