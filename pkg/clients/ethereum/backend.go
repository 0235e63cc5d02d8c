package ethereum

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/Layr-Labs/factory-event-indexer/pkg/config"
)

// Backend is the subset of JSON-RPC the indexer consumes from one chain.
type Backend interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, query goethereum.FilterQuery) ([]types.Log, error)
	TransactionSender(ctx context.Context, txHash common.Hash) (common.Address, error)
	Close()
}

type rpcBackend struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

type receiptSender struct {
	From common.Address `json:"from"`
}

func DialBackend(ctx context.Context, rpcUrl string, timeout time.Duration) (Backend, error) {
	httpClient := &http.Client{Timeout: timeout}
	rpcClient, err := rpc.DialOptions(ctx, rpcUrl, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc %s: %w", rpcUrl, err)
	}
	return &rpcBackend{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

func (b *rpcBackend) BlockNumber(ctx context.Context) (uint64, error) {
	return b.ethClient.BlockNumber(ctx)
}

func (b *rpcBackend) FilterLogs(ctx context.Context, query goethereum.FilterQuery) ([]types.Log, error) {
	return b.ethClient.FilterLogs(ctx, query)
}

// TransactionSender reads `from` off eth_getTransactionReceipt; go-ethereum's
// typed Receipt does not carry it.
func (b *rpcBackend) TransactionSender(ctx context.Context, txHash common.Hash) (common.Address, error) {
	var receipt *receiptSender
	if err := b.rpcClient.CallContext(ctx, &receipt, "eth_getTransactionReceipt", txHash); err != nil {
		return common.Address{}, err
	}
	if receipt == nil {
		return common.Address{}, goethereum.NotFound
	}
	return receipt.From, nil
}

func (b *rpcBackend) Close() {
	b.rpcClient.Close()
}

// DialBackends builds the chainType -> Backend map once at startup.
func DialBackends(ctx context.Context, networks []*config.NetworkConfig, timeout time.Duration, logger *zap.Logger) (map[string]Backend, error) {
	backends := make(map[string]Backend, len(networks))
	for _, network := range networks {
		backend, err := DialBackend(ctx, network.RpcUrl, timeout)
		if err != nil {
			for _, b := range backends {
				b.Close()
			}
			return nil, fmt.Errorf("network %s: %w", network.ChainType, err)
		}
		logger.Sugar().Infow("Dialed RPC backend",
			zap.String("chainType", network.ChainType),
			zap.Uint("chainId", uint(network.ChainId)),
		)
		backends[network.ChainType] = backend
	}
	return backends, nil
}
