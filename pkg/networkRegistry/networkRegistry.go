package networkRegistry

import (
	"errors"

	"github.com/Layr-Labs/factory-event-indexer/pkg/config"
)

var ErrNetworkNotFound = errors.New("network not found")

type INetworkRegistry interface {
	GetConfig() *config.NetworksConfig
	GetNetwork(chainType string) (*config.NetworkConfig, error)
	ListChainTypes() []string
}
