package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/factory-event-indexer/pkg/eventLedger"
	"github.com/Layr-Labs/factory-event-indexer/pkg/eventLedger/memory"
)

func Test_InMemoryEventLedger(t *testing.T) {
	suite := &eventLedger.TestSuite{
		NewLedger: func() (eventLedger.IEventLedger, error) {
			return memory.NewInMemoryEventLedger(), nil
		},
	}
	suite.Run(t)
}

func TestInMemoryEventLedger_Records(t *testing.T) {
	ledger := memory.NewInMemoryEventLedger()
	key := eventLedger.EventKey{Contract: "factory", ChainType: "sepolia", TransactionHash: "0xab", LogIndex: 1, BlockNumber: 2}

	_, err := ledger.AdmitIfNew(context.Background(), key)
	require.NoError(t, err)
	_, err = ledger.AdmitIfNew(context.Background(), key)
	require.NoError(t, err)

	records := ledger.Records()
	require.Len(t, records, 1)
	assert.Equal(t, key, records[0].EventKey)
	assert.NotEmpty(t, records[0].ID)
	assert.False(t, records[0].CreatedAt.IsZero())
}
