package eventLedger

import (
	"context"
	"errors"
	"time"
)

var ErrLedgerClosed = errors.New("event ledger is closed")

// EventKey identifies one on-chain log. Two logs with the same key are the
// same event.
type EventKey struct {
	Contract        string
	ChainType       string
	TransactionHash string
	LogIndex        uint64
	BlockNumber     uint64
}

type LedgerRecord struct {
	ID string
	EventKey
	CreatedAt time.Time
	UpdatedAt time.Time
}

type IEventLedger interface {
	// AdmitIfNew records the key and returns true the first time it is seen.
	// Every later call for the same key returns false without error.
	AdmitIfNew(ctx context.Context, key EventKey) (bool, error)
	Close() error
}
