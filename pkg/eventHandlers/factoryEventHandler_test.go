package eventHandlers

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	chainPoller "github.com/Layr-Labs/factory-event-indexer/pkg/chainPollers"
	"github.com/Layr-Labs/factory-event-indexer/pkg/contracts"
)

func tokenDeployedEvent() *chainPoller.DispatchedEvent {
	return &chainPoller.DispatchedEvent{
		EventName:       contracts.EventTokenDeployed,
		ChainType:       "sepolia",
		TransactionHash: "0xab",
		ExplorerUrl:     "https://sepolia.etherscan.io/tx/0xab",
		BlockNumber:     10,
		UserAddress:     "0x00000000000000000000000000000000000000d1",
		Args: map[string]any{
			"tokenAddress": common.HexToAddress("0xaa"),
			"deployer":     common.HexToAddress("0xbb"),
			"timestamp":    big.NewInt(1700000000),
		},
	}
}

func TestFactoryEventHandler_TokenDeployed(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := NewFactoryEventHandler(zap.New(core))

	var got *TokenDeployment
	handler.OnTokenDeployed = func(_ context.Context, d *TokenDeployment) error {
		got = d
		return nil
	}

	require.NoError(t, handler.HandleEvent(context.Background(), tokenDeployedEvent()))

	require.NotNil(t, got)
	assert.Equal(t, common.HexToAddress("0xaa"), got.TokenAddress)
	assert.Equal(t, common.HexToAddress("0xbb"), got.Deployer)
	assert.Equal(t, int64(1700000000), got.Timestamp.Int64())
	assert.Equal(t, "0x00000000000000000000000000000000000000d1", got.UserAddress)

	assert.Equal(t, 1, logs.FilterMessage("Token deployed").Len())
}

func TestFactoryEventHandler_MalformedArgs(t *testing.T) {
	handler := NewFactoryEventHandler(zap.NewNop())
	event := tokenDeployedEvent()
	event.Args["timestamp"] = "not a number"

	err := handler.HandleEvent(context.Background(), event)
	assert.ErrorContains(t, err, "timestamp")
}

func TestFactoryEventHandler_OtherEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	handler := NewFactoryEventHandler(zap.New(core))

	require.NoError(t, handler.HandleEvent(context.Background(), &chainPoller.DispatchedEvent{
		EventName: contracts.EventOwnershipTransferred,
		Args:      map[string]any{},
	}))
	require.NoError(t, handler.HandleEvent(context.Background(), &chainPoller.DispatchedEvent{EventName: "Unknown"}))

	assert.Equal(t, 1, logs.FilterMessage("Factory ownership transferred").Len())
	assert.Equal(t, 1, logs.FilterMessage("Ignoring factory event").Len())
}
