package chainPoller

import (
	"context"
)

type IChainPoller interface {
	Start(ctx context.Context) error
}

// ChainCursor is the scan position of one (contract, chain) pair. A nil
// LastScannedBlock means the chain has never been scanned.
type ChainCursor struct {
	LastScannedBlock *uint64
	InProgress       bool
}

type IChainCursorStore interface {
	GetCursor(ctx context.Context, contractId string, chainType string) (*ChainCursor, error)
	SetInProgress(ctx context.Context, contractId string, chainType string, inProgress bool) error
	AdvanceCursor(ctx context.Context, contractId string, chainType string, lastBlock uint64) error
	Close() error
}

// DispatchedEvent is a newly admitted event enriched for downstream consumers.
type DispatchedEvent struct {
	EventName       string
	ChainType       string
	ContractAddress string
	TransactionHash string
	ExplorerUrl     string
	BlockNumber     uint64
	LogIndex        uint64
	// UserAddress is empty when the receipt lookup failed.
	UserAddress string
	Args        map[string]any
}

type IEventHandler interface {
	HandleEvent(ctx context.Context, event *DispatchedEvent) error
}
