package inMemoryNetworkRegistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Layr-Labs/factory-event-indexer/pkg/config"
	"github.com/Layr-Labs/factory-event-indexer/pkg/networkRegistry"
)

func testNetworks() *config.NetworksConfig {
	return &config.NetworksConfig{
		EventBatchSize: 500,
		Networks: []*config.NetworkConfig{
			{
				ChainType:              "sepolia",
				ChainId:                config.ChainId(11155111),
				Currency:               "ETH",
				RpcUrl:                 "https://rpc.sepolia.example",
				ExplorerUrl:            "https://sepolia.etherscan.io/",
				FactoryContractAddress: "0x00000000000000000000000000000000000000F1",
				FactoryStartBlock:      1,
			},
			{
				ChainType:              "base",
				ChainId:                config.ChainId(8453),
				RpcUrl:                 "https://rpc.base.example",
				FactoryContractAddress: "0x00000000000000000000000000000000000000f2",
			},
		},
	}
}

func TestNewInMemoryNetworkRegistry(t *testing.T) {
	registry, err := NewInMemoryNetworkRegistry(testNetworks(), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, uint64(500), registry.GetConfig().EventBatchSize)
	assert.Equal(t, []string{"sepolia", "base"}, registry.ListChainTypes())

	network, err := registry.GetNetwork("sepolia")
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000f1", network.FactoryContractAddress)
	assert.Equal(t, "ETH", network.Currency)

	network, err = registry.GetNetwork("base")
	require.NoError(t, err)
	assert.Equal(t, config.ChainId(8453), network.ChainId)
}

func TestInMemoryNetworkRegistry_NotFound(t *testing.T) {
	registry, err := NewInMemoryNetworkRegistry(testNetworks(), zap.NewNop())
	require.NoError(t, err)

	_, err = registry.GetNetwork("polygon")
	assert.ErrorIs(t, err, networkRegistry.ErrNetworkNotFound)
}

func TestInMemoryNetworkRegistry_IsASnapshot(t *testing.T) {
	cfg := testNetworks()
	registry, err := NewInMemoryNetworkRegistry(cfg, zap.NewNop())
	require.NoError(t, err)

	cfg.Networks[0].RpcUrl = "https://changed.example"

	network, err := registry.GetNetwork("sepolia")
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.sepolia.example", network.RpcUrl)
}

func TestNewInMemoryNetworkRegistry_InvalidConfig(t *testing.T) {
	_, err := NewInMemoryNetworkRegistry(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewInMemoryNetworkRegistry(&config.NetworksConfig{}, zap.NewNop())
	assert.Error(t, err)

	cfg := testNetworks()
	cfg.Networks[1].ChainType = "sepolia"
	_, err = NewInMemoryNetworkRegistry(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "duplicate chainType")
}

func TestInMemoryNetworkRegistry_ImplementsInterface(t *testing.T) {
	var _ networkRegistry.INetworkRegistry = (*InMemoryNetworkRegistry)(nil)
}
