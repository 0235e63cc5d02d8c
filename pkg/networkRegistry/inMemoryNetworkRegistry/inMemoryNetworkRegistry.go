package inMemoryNetworkRegistry

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Layr-Labs/factory-event-indexer/pkg/config"
	"github.com/Layr-Labs/factory-event-indexer/pkg/networkRegistry"
)

// InMemoryNetworkRegistry is built once at startup and never mutated.
type InMemoryNetworkRegistry struct {
	config      *config.NetworksConfig
	byChainType map[string]*config.NetworkConfig
	logger      *zap.Logger
}

func NewInMemoryNetworkRegistry(cfg *config.NetworksConfig, logger *zap.Logger) (*InMemoryNetworkRegistry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("networks config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid networks config: %w", err)
	}

	snapshot := &config.NetworksConfig{
		Networks:       make([]*config.NetworkConfig, 0, len(cfg.Networks)),
		EventBatchSize: cfg.EventBatchSize,
	}
	byChainType := make(map[string]*config.NetworkConfig, len(cfg.Networks))
	for _, n := range cfg.Networks {
		network := *n
		network.FactoryContractAddress = strings.ToLower(network.FactoryContractAddress)
		snapshot.Networks = append(snapshot.Networks, &network)
		byChainType[network.ChainType] = &network

		logger.Sugar().Infow("Registered network",
			zap.String("chainType", network.ChainType),
			zap.Uint("chainId", uint(network.ChainId)),
			zap.String("factory", network.FactoryContractAddress),
			zap.Uint64("factoryStartBlock", network.FactoryStartBlock),
		)
	}

	return &InMemoryNetworkRegistry{
		config:      snapshot,
		byChainType: byChainType,
		logger:      logger,
	}, nil
}

func (r *InMemoryNetworkRegistry) GetConfig() *config.NetworksConfig {
	return r.config
}

func (r *InMemoryNetworkRegistry) GetNetwork(chainType string) (*config.NetworkConfig, error) {
	network, ok := r.byChainType[chainType]
	if !ok {
		return nil, fmt.Errorf("%w: chainType=%s", networkRegistry.ErrNetworkNotFound, chainType)
	}
	return network, nil
}

// ListChainTypes returns chain types in configuration order.
func (r *InMemoryNetworkRegistry) ListChainTypes() []string {
	out := make([]string, 0, len(r.config.Networks))
	for _, network := range r.config.Networks {
		out = append(out, network.ChainType)
	}
	return out
}
