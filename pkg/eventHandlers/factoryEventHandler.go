package eventHandlers

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	chainPoller "github.com/Layr-Labs/factory-event-indexer/pkg/chainPollers"
	"github.com/Layr-Labs/factory-event-indexer/pkg/contracts"
)

type TokenDeployment struct {
	ChainType       string
	TokenAddress    common.Address
	Deployer        common.Address
	Timestamp       *big.Int
	TransactionHash string
	ExplorerUrl     string
	UserAddress     string
	BlockNumber     uint64
}

// FactoryEventHandler switches on the event name of every admitted factory
// event. Unknown names are ignored.
type FactoryEventHandler struct {
	logger *zap.Logger

	// OnTokenDeployed is optional and runs after the deployment is logged.
	OnTokenDeployed func(ctx context.Context, deployment *TokenDeployment) error
}

func NewFactoryEventHandler(logger *zap.Logger) *FactoryEventHandler {
	return &FactoryEventHandler{logger: logger}
}

func (h *FactoryEventHandler) HandleEvent(ctx context.Context, event *chainPoller.DispatchedEvent) error {
	switch event.EventName {
	case contracts.EventTokenDeployed:
		return h.handleTokenDeployed(ctx, event)
	case contracts.EventOwnershipTransferred:
		h.logger.Sugar().Infow("Factory ownership transferred",
			zap.String("chainType", event.ChainType),
			zap.String("transactionHash", event.TransactionHash),
			zap.Any("previousOwner", event.Args["previousOwner"]),
			zap.Any("newOwner", event.Args["newOwner"]),
		)
		return nil
	default:
		h.logger.Sugar().Debugw("Ignoring factory event",
			zap.String("eventName", event.EventName),
			zap.String("chainType", event.ChainType),
		)
		return nil
	}
}

func (h *FactoryEventHandler) handleTokenDeployed(ctx context.Context, event *chainPoller.DispatchedEvent) error {
	deployment, err := decodeTokenDeployment(event)
	if err != nil {
		return err
	}

	h.logger.Sugar().Infow("Token deployed",
		zap.String("chainType", deployment.ChainType),
		zap.String("tokenAddress", deployment.TokenAddress.Hex()),
		zap.String("deployer", deployment.Deployer.Hex()),
		zap.String("userAddress", deployment.UserAddress),
		zap.String("timestamp", deployment.Timestamp.String()),
		zap.Uint64("blockNumber", deployment.BlockNumber),
		zap.String("transactionHash", deployment.TransactionHash),
		zap.String("explorerUrl", deployment.ExplorerUrl),
	)

	if h.OnTokenDeployed != nil {
		return h.OnTokenDeployed(ctx, deployment)
	}
	return nil
}

func decodeTokenDeployment(event *chainPoller.DispatchedEvent) (*TokenDeployment, error) {
	token, ok := event.Args["tokenAddress"].(common.Address)
	if !ok {
		return nil, fmt.Errorf("TokenDeployed: tokenAddress has type %T", event.Args["tokenAddress"])
	}
	deployer, ok := event.Args["deployer"].(common.Address)
	if !ok {
		return nil, fmt.Errorf("TokenDeployed: deployer has type %T", event.Args["deployer"])
	}
	timestamp, ok := event.Args["timestamp"].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("TokenDeployed: timestamp has type %T", event.Args["timestamp"])
	}

	return &TokenDeployment{
		ChainType:       event.ChainType,
		TokenAddress:    token,
		Deployer:        deployer,
		Timestamp:       timestamp,
		TransactionHash: event.TransactionHash,
		ExplorerUrl:     event.ExplorerUrl,
		UserAddress:     event.UserAddress,
		BlockNumber:     event.BlockNumber,
	}, nil
}
