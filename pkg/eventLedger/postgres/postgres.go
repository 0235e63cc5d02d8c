package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Layr-Labs/factory-event-indexer/pkg/eventLedger"
)

const uniqueViolation = pq.ErrorCode("23505")

type PostgresEventLedger struct {
	db     *DB
	logger *zap.Logger
	closed atomic.Bool
}

func NewPostgresEventLedger(db *DB, logger *zap.Logger) *PostgresEventLedger {
	return &PostgresEventLedger{
		db:     db,
		logger: logger,
	}
}

// AdmitIfNew looks the key up first and inserts only when absent. A concurrent
// writer that wins the insert race surfaces as a unique violation, which is
// reported as a duplicate.
func (l *PostgresEventLedger) AdmitIfNew(ctx context.Context, key eventLedger.EventKey) (bool, error) {
	if l.closed.Load() {
		return false, eventLedger.ErrLedgerClosed
	}
	if key.BlockNumber > math.MaxInt64 || key.LogIndex > math.MaxInt64 {
		return false, fmt.Errorf("event key out of range: block %d log %d", key.BlockNumber, key.LogIndex)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var exists bool
	err := l.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM event_ledger
			WHERE contract = $1 AND chain_type = $2 AND transaction_hash = $3
			  AND log_index = $4 AND block_number = $5
		)`,
		key.Contract, key.ChainType, key.TransactionHash, int64(key.LogIndex), int64(key.BlockNumber),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup event: %w", err)
	}
	if exists {
		return false, nil
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO event_ledger (id, contract, chain_type, transaction_hash, log_index, block_number)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), key.Contract, key.ChainType, key.TransactionHash, int64(key.LogIndex), int64(key.BlockNumber),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			l.logger.Sugar().Debugw("Event admitted concurrently",
				zap.String("chainType", key.ChainType),
				zap.String("transactionHash", key.TransactionHash),
				zap.Uint64("logIndex", key.LogIndex),
			)
			return false, nil
		}
		return false, fmt.Errorf("insert event: %w", err)
	}
	return true, nil
}

func (l *PostgresEventLedger) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return eventLedger.ErrLedgerClosed
	}
	return l.db.Close()
}
