package ethereum

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math/big"
	"strings"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/Layr-Labs/factory-event-indexer/pkg/contracts"
)

var (
	ErrChainUnavailable = errors.New("chain unavailable")
	ErrLogFetchFailed   = errors.New("log fetch failed")
	ErrInvalidRange     = errors.New("invalid block range")
	ErrUnknownChain     = errors.New("unknown chain type")
)

type Client interface {
	GetHeadBlock(ctx context.Context, chainType string) (uint64, error)
	GetLogs(ctx context.Context, chainType string, contractAddress string, eventNames []string, fromBlock uint64, toBlock uint64) ([]*RawEvent, error)
	GetTransactionSender(ctx context.Context, chainType string, txHash string) (string, error)
}

// RawEvent is one decoded log from a scan window.
type RawEvent struct {
	EventName       string
	TransactionHash string
	LogIndex        uint64
	BlockNumber     uint64
	ContractAddress string
	Args            map[string]any
}

type EthereumClientConfig struct {
	HeadRetryPolicy RetryPolicy
	LogsRetryPolicy RetryPolicy
	// Sleeper overrides the backoff wait; nil uses a context-aware timer.
	Sleeper Sleeper
}

func DefaultEthereumClientConfig() *EthereumClientConfig {
	return &EthereumClientConfig{
		HeadRetryPolicy: DefaultHeadRetryPolicy,
		LogsRetryPolicy: DefaultLogsRetryPolicy,
	}
}

type EthereumClient struct {
	backends map[string]Backend
	catalog  *contracts.EventCatalog
	config   *EthereumClientConfig
	sleep    Sleeper
	logger   *zap.Logger
}

func NewEthereumClient(
	backends map[string]Backend,
	catalog *contracts.EventCatalog,
	cfg *EthereumClientConfig,
	logger *zap.Logger,
) *EthereumClient {
	if cfg == nil {
		cfg = DefaultEthereumClientConfig()
	}
	sleep := cfg.Sleeper
	if sleep == nil {
		sleep = sleepContext
	}
	return &EthereumClient{
		backends: maps.Clone(backends),
		catalog:  catalog,
		config:   cfg,
		sleep:    sleep,
		logger:   logger,
	}
}

func (ec *EthereumClient) backendFor(chainType string) (Backend, error) {
	backend, ok := ec.backends[chainType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChain, chainType)
	}
	return backend, nil
}

func (ec *EthereumClient) GetHeadBlock(ctx context.Context, chainType string) (uint64, error) {
	backend, err := ec.backendFor(chainType)
	if err != nil {
		return 0, err
	}

	head, err := withRetry(ctx, ec.config.HeadRetryPolicy, ec.sleep, ec.logger.With(zap.String("chainType", chainType)), "eth_blockNumber",
		func(ctx context.Context) (uint64, error) {
			return backend.BlockNumber(ctx)
		},
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrChainUnavailable, chainType, err)
	}
	return head, nil
}

func (ec *EthereumClient) GetLogs(
	ctx context.Context,
	chainType string,
	contractAddress string,
	eventNames []string,
	fromBlock uint64,
	toBlock uint64,
) ([]*RawEvent, error) {
	if fromBlock > toBlock {
		return nil, fmt.Errorf("%w: fromBlock %d is after toBlock %d", ErrInvalidRange, fromBlock, toBlock)
	}
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddress)
	}
	backend, err := ec.backendFor(chainType)
	if err != nil {
		return nil, err
	}

	topics, err := ec.catalog.TopicsFor(eventNames)
	if err != nil {
		return nil, err
	}

	query := goethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{common.HexToAddress(contractAddress)},
		Topics:    [][]common.Hash{topics},
	}

	chainLogger := ec.logger.With(zap.String("chainType", chainType))
	logs, err := withRetry(ctx, ec.config.LogsRetryPolicy, ec.sleep, chainLogger, "eth_getLogs",
		func(ctx context.Context) ([]*RawEvent, error) {
			raw, err := backend.FilterLogs(ctx, query)
			if err != nil {
				return nil, err
			}
			return ec.decodeLogs(chainLogger, raw), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s [%d, %d]: %w", ErrLogFetchFailed, chainType, fromBlock, toBlock, err)
	}

	chainLogger.Sugar().Debugw("Fetched logs",
		zap.Uint64("fromBlock", fromBlock),
		zap.Uint64("toBlock", toBlock),
		zap.Int("logCount", len(logs)),
	)
	return logs, nil
}

func (ec *EthereumClient) decodeLogs(logger *zap.Logger, raw []types.Log) []*RawEvent {
	events := make([]*RawEvent, 0, len(raw))
	for i := range raw {
		log := &raw[i]
		if log.Removed {
			continue
		}
		def, args, err := ec.catalog.DecodeLog(log)
		if err != nil {
			logger.Sugar().Warnw("Failed to decode log",
				zap.String("transactionHash", log.TxHash.Hex()),
				zap.Uint("logIndex", log.Index),
				zap.Uint64("blockNumber", log.BlockNumber),
				zap.Error(err),
			)
			continue
		}
		events = append(events, &RawEvent{
			EventName:       def.Name,
			TransactionHash: log.TxHash.Hex(),
			LogIndex:        uint64(log.Index),
			BlockNumber:     log.BlockNumber,
			ContractAddress: strings.ToLower(log.Address.Hex()),
			Args:            args,
		})
	}
	return events
}

func (ec *EthereumClient) GetTransactionSender(ctx context.Context, chainType string, txHash string) (string, error) {
	backend, err := ec.backendFor(chainType)
	if err != nil {
		return "", err
	}
	from, err := backend.TransactionSender(ctx, common.HexToHash(txHash))
	if err != nil {
		return "", fmt.Errorf("failed to get receipt for %s: %w", txHash, err)
	}
	return from.Hex(), nil
}

func (ec *EthereumClient) Close() {
	for _, backend := range ec.backends {
		backend.Close()
	}
}
