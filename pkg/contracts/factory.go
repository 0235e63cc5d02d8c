package contracts

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	EventTokenDeployed        = "TokenDeployed"
	EventOwnershipTransferred = "OwnershipTransferred"
)

// FactoryEvents are the events the indexer subscribes to on the factory contract.
var FactoryEvents = []string{
	EventTokenDeployed,
	EventOwnershipTransferred,
}

const FactoryAbiJson = `[
	{
		"type": "event",
		"name": "TokenDeployed",
		"anonymous": false,
		"inputs": [
			{"name": "tokenAddress", "type": "address", "indexed": true},
			{"name": "deployer", "type": "address", "indexed": true},
			{"name": "timestamp", "type": "uint256", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "OwnershipTransferred",
		"anonymous": false,
		"inputs": [
			{"name": "previousOwner", "type": "address", "indexed": true},
			{"name": "newOwner", "type": "address", "indexed": true}
		]
	},
	{
		"type": "function",
		"name": "deployToken",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "name", "type": "string"},
			{"name": "symbol", "type": "string"},
			{"name": "totalSupply", "type": "uint256"}
		],
		"outputs": [{"name": "", "type": "address"}]
	}
]`

func FactoryAbi() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(FactoryAbiJson))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse factory abi: %w", err)
	}
	return parsed, nil
}

// NewFactoryEventCatalog builds the catalog for FactoryEvents.
func NewFactoryEventCatalog() (*EventCatalog, error) {
	parsed, err := FactoryAbi()
	if err != nil {
		return nil, err
	}
	return NewEventCatalog(parsed, FactoryEvents)
}
