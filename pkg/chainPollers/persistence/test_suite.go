package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	chainPoller "github.com/Layr-Labs/factory-event-indexer/pkg/chainPollers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSuite defines a test suite that all cursor store implementations must pass
type TestSuite struct {
	NewStore func() (chainPoller.IChainCursorStore, error)
}

// Run executes all cursor store compliance tests
func (s *TestSuite) Run(t *testing.T) {
	t.Run("CursorState", s.testCursorState)
	t.Run("FlagPreservesCursor", s.testFlagPreservesCursor)
	t.Run("Lifecycle", s.testLifecycle)
	t.Run("ConcurrentAccess", s.testConcurrentAccess)
}

const suiteContract = "factory"

func (s *TestSuite) testCursorState(t *testing.T) {
	store, err := s.NewStore()
	require.NoError(t, err)
	// nolint:errcheck
	defer store.Close()

	ctx := context.Background()

	// Absent cursor yields defaults
	cursor, err := store.GetCursor(ctx, suiteContract, "sepolia")
	require.NoError(t, err)
	assert.Nil(t, cursor.LastScannedBlock)
	assert.False(t, cursor.InProgress)

	err = store.AdvanceCursor(ctx, suiteContract, "sepolia", 501)
	require.NoError(t, err)

	cursor, err = store.GetCursor(ctx, suiteContract, "sepolia")
	require.NoError(t, err)
	require.NotNil(t, cursor.LastScannedBlock)
	assert.Equal(t, uint64(501), *cursor.LastScannedBlock)

	// Overwrites are unconditional
	err = store.AdvanceCursor(ctx, suiteContract, "sepolia", 100)
	require.NoError(t, err)
	cursor, err = store.GetCursor(ctx, suiteContract, "sepolia")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), *cursor.LastScannedBlock)

	// Other chains and contracts are independent
	cursor, err = store.GetCursor(ctx, suiteContract, "base")
	require.NoError(t, err)
	assert.Nil(t, cursor.LastScannedBlock)

	cursor, err = store.GetCursor(ctx, "other", "sepolia")
	require.NoError(t, err)
	assert.Nil(t, cursor.LastScannedBlock)

	// Large block numbers survive the round trip
	err = store.AdvanceCursor(ctx, suiteContract, "base", 1<<62)
	require.NoError(t, err)
	cursor, err = store.GetCursor(ctx, suiteContract, "base")
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<62), *cursor.LastScannedBlock)
}

func (s *TestSuite) testFlagPreservesCursor(t *testing.T) {
	store, err := s.NewStore()
	require.NoError(t, err)
	// nolint:errcheck
	defer store.Close()

	ctx := context.Background()

	// Flag on a fresh key does not invent a cursor
	require.NoError(t, store.SetInProgress(ctx, suiteContract, "sepolia", true))
	cursor, err := store.GetCursor(ctx, suiteContract, "sepolia")
	require.NoError(t, err)
	assert.True(t, cursor.InProgress)
	assert.Nil(t, cursor.LastScannedBlock)

	require.NoError(t, store.AdvanceCursor(ctx, suiteContract, "sepolia", 42))
	cursor, err = store.GetCursor(ctx, suiteContract, "sepolia")
	require.NoError(t, err)
	assert.True(t, cursor.InProgress)
	assert.Equal(t, uint64(42), *cursor.LastScannedBlock)

	// Idempotent
	require.NoError(t, store.SetInProgress(ctx, suiteContract, "sepolia", false))
	require.NoError(t, store.SetInProgress(ctx, suiteContract, "sepolia", false))
	cursor, err = store.GetCursor(ctx, suiteContract, "sepolia")
	require.NoError(t, err)
	assert.False(t, cursor.InProgress)
	assert.Equal(t, uint64(42), *cursor.LastScannedBlock)
}

func (s *TestSuite) testLifecycle(t *testing.T) {
	store, err := s.NewStore()
	require.NoError(t, err)

	ctx := context.Background()

	err = store.AdvanceCursor(ctx, suiteContract, "sepolia", 12345)
	require.NoError(t, err)

	err = store.Close()
	require.NoError(t, err)

	// Operations after close should fail
	err = store.AdvanceCursor(ctx, suiteContract, "sepolia", 12346)
	assert.ErrorIs(t, err, ErrStoreClosed)

	err = store.SetInProgress(ctx, suiteContract, "sepolia", true)
	assert.ErrorIs(t, err, ErrStoreClosed)

	_, err = store.GetCursor(ctx, suiteContract, "sepolia")
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func (s *TestSuite) testConcurrentAccess(t *testing.T) {
	store, err := s.NewStore()
	require.NoError(t, err)

	// nolint:errcheck
	defer store.Close()

	ctx := context.Background()
	done := make(chan bool)
	errors := make(chan error, 10)

	// Concurrent writes to different chains
	for i := 0; i < 5; i++ {
		go func(chainType string) {
			for j := 0; j < 10; j++ {
				if err := store.AdvanceCursor(ctx, suiteContract, chainType, uint64(j)); err != nil {
					errors <- err
					return
				}
				if err := store.SetInProgress(ctx, suiteContract, chainType, j%2 == 0); err != nil {
					errors <- err
					return
				}
			}
			done <- true
		}(fmt.Sprintf("chain-%d", i))
	}

	// Concurrent reads
	for i := 0; i < 5; i++ {
		go func(chainType string) {
			for j := 0; j < 10; j++ {
				if _, err := store.GetCursor(ctx, suiteContract, chainType); err != nil {
					errors <- err
					return
				}
			}
			done <- true
		}(fmt.Sprintf("chain-%d", i))
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		select {
		case <-done:
		case err := <-errors:
			t.Fatalf("Concurrent access error: %v", err)
		case <-time.After(5 * time.Second):
			t.Fatal("Timeout waiting for concurrent operations")
		}
	}

	for i := 0; i < 5; i++ {
		cursor, err := store.GetCursor(ctx, suiteContract, fmt.Sprintf("chain-%d", i))
		require.NoError(t, err)
		assert.Equal(t, uint64(9), *cursor.LastScannedBlock)
		assert.False(t, cursor.InProgress)
	}
}
