package eventLedger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSuite defines a test suite that all ledger implementations must pass
type TestSuite struct {
	NewLedger func() (IEventLedger, error)
}

// Run executes all ledger compliance tests
func (s *TestSuite) Run(t *testing.T) {
	t.Run("AdmitOnce", s.testAdmitOnce)
	t.Run("KeyComponents", s.testKeyComponents)
	t.Run("ConcurrentAdmission", s.testConcurrentAdmission)
	t.Run("Lifecycle", s.testLifecycle)
}

func suiteKey() EventKey {
	return EventKey{
		Contract:        "factory",
		ChainType:       "sepolia",
		TransactionHash: "0x00000000000000000000000000000000000000000000000000000000000000ab",
		LogIndex:        3,
		BlockNumber:     501,
	}
}

func (s *TestSuite) testAdmitOnce(t *testing.T) {
	ledger, err := s.NewLedger()
	require.NoError(t, err)
	// nolint:errcheck
	defer ledger.Close()

	ctx := context.Background()

	admitted, err := ledger.AdmitIfNew(ctx, suiteKey())
	require.NoError(t, err)
	assert.True(t, admitted)

	admitted, err = ledger.AdmitIfNew(ctx, suiteKey())
	require.NoError(t, err)
	assert.False(t, admitted)
}

func (s *TestSuite) testKeyComponents(t *testing.T) {
	ledger, err := s.NewLedger()
	require.NoError(t, err)
	// nolint:errcheck
	defer ledger.Close()

	ctx := context.Background()
	_, err = ledger.AdmitIfNew(ctx, suiteKey())
	require.NoError(t, err)

	// Changing any one component yields a distinct event
	variants := []func(k *EventKey){
		func(k *EventKey) { k.Contract = "other" },
		func(k *EventKey) { k.ChainType = "base" },
		func(k *EventKey) { k.TransactionHash = "0x00000000000000000000000000000000000000000000000000000000000000cd" },
		func(k *EventKey) { k.LogIndex = 4 },
		func(k *EventKey) { k.BlockNumber = 502 },
	}
	for _, mutate := range variants {
		key := suiteKey()
		mutate(&key)
		admitted, err := ledger.AdmitIfNew(ctx, key)
		require.NoError(t, err)
		assert.True(t, admitted, "key %+v should be new", key)
	}
}

func (s *TestSuite) testConcurrentAdmission(t *testing.T) {
	ledger, err := s.NewLedger()
	require.NoError(t, err)
	// nolint:errcheck
	defer ledger.Close()

	ctx := context.Background()
	var admittedCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admitted, err := ledger.AdmitIfNew(ctx, suiteKey())
			assert.NoError(t, err)
			if admitted {
				admittedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), admittedCount.Load())
}

func (s *TestSuite) testLifecycle(t *testing.T) {
	ledger, err := s.NewLedger()
	require.NoError(t, err)

	require.NoError(t, ledger.Close())

	_, err = ledger.AdmitIfNew(context.Background(), suiteKey())
	assert.ErrorIs(t, err, ErrLedgerClosed)
}
