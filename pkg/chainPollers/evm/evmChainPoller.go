package EVMChainPoller

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	chainPoller "github.com/Layr-Labs/factory-event-indexer/pkg/chainPollers"
	"github.com/Layr-Labs/factory-event-indexer/pkg/clients/ethereum"
	"github.com/Layr-Labs/factory-event-indexer/pkg/config"
	"github.com/Layr-Labs/factory-event-indexer/pkg/eventLedger"
	"github.com/Layr-Labs/factory-event-indexer/pkg/metrics"
	"github.com/Layr-Labs/factory-event-indexer/pkg/networkRegistry"
)

type EVMChainPollerConfig struct {
	// ContractId keys cursors and ledger rows, e.g. "factory".
	ContractId      string
	PollingInterval time.Duration
	EventNames      []string
}

type EVMChainPoller struct {
	ethClient ethereum.Client
	registry  networkRegistry.INetworkRegistry
	store     chainPoller.IChainCursorStore
	ledger    eventLedger.IEventLedger
	handler   chainPoller.IEventHandler
	metrics   *metrics.Metrics
	config    *EVMChainPollerConfig
	logger    *zap.Logger
}

func NewEVMChainPoller(
	ethClient ethereum.Client,
	registry networkRegistry.INetworkRegistry,
	store chainPoller.IChainCursorStore,
	ledger eventLedger.IEventLedger,
	handler chainPoller.IEventHandler,
	pollerMetrics *metrics.Metrics,
	cfg *EVMChainPollerConfig,
	logger *zap.Logger,
) *EVMChainPoller {
	if store == nil {
		panic("store is required")
	}
	if ledger == nil {
		panic("ledger is required")
	}

	if pollerMetrics == nil {
		pollerMetrics = metrics.NewMetrics(prometheus.NewRegistry())
	}
	if cfg.PollingInterval == 0 {
		cfg.PollingInterval = config.DefaultPollInterval
	}
	if cfg.ContractId == "" {
		cfg.ContractId = config.FactoryContract
	}

	return &EVMChainPoller{
		ethClient: ethClient,
		registry:  registry,
		store:     store,
		ledger:    ledger,
		handler:   handler,
		metrics:   pollerMetrics,
		config:    cfg,
		logger:    logger.With(zap.String("contractId", cfg.ContractId)),
	}
}

// Start clears in-progress flags left by a previous crash and then starts the
// poll loop. It returns once the sweep has finished.
func (ecp *EVMChainPoller) Start(ctx context.Context) error {
	ecp.logger.Sugar().Infow("Starting factory event poller",
		zap.Strings("chains", ecp.registry.ListChainTypes()),
		zap.Strings("events", ecp.config.EventNames),
		zap.Duration("pollingInterval", ecp.config.PollingInterval),
	)

	if err := ecp.ClearStaleFlags(ctx); err != nil {
		ecp.logger.Sugar().Warnw("Failed to clear some in-progress flags", zap.Error(err))
	}

	go ecp.pollForBlocks(ctx)

	return nil
}

func (ecp *EVMChainPoller) pollForBlocks(ctx context.Context) {
	ecp.logger.Sugar().Infow("Starting poll loop")
	ticker := time.NewTicker(ecp.config.PollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ecp.logger.Sugar().Infow("Polling loop context cancelled, stopping")
			return
		case <-ticker.C:
			// ticks run detached and may overlap
			go func() {
				if err := ecp.Tick(ctx); err != nil {
					ecp.logger.Sugar().Errorw("Tick finished with errors", zap.Error(err))
				}
			}()
		}
	}
}

// ClearStaleFlags resets the in-progress flag of the given chains, or of every
// configured chain when none are named. Unknown chain types fail before any
// flag is touched.
func (ecp *EVMChainPoller) ClearStaleFlags(ctx context.Context, chainTypes ...string) error {
	if len(chainTypes) == 0 {
		chainTypes = ecp.registry.ListChainTypes()
	}
	for _, chainType := range chainTypes {
		if _, err := ecp.registry.GetNetwork(chainType); err != nil {
			return err
		}
	}

	errs := make([]error, len(chainTypes))

	var wg sync.WaitGroup
	for i, chainType := range chainTypes {
		wg.Add(1)
		go func(i int, chainType string) {
			defer wg.Done()
			if err := ecp.store.SetInProgress(ctx, ecp.config.ContractId, chainType, false); err != nil {
				ecp.logger.Sugar().Warnw("Failed to clear in-progress flag",
					zap.String("chainType", chainType),
					zap.Error(err),
				)
				errs[i] = fmt.Errorf("chain %s: %w", chainType, err)
			}
		}(i, chainType)
	}
	wg.Wait()

	return multierr.Combine(errs...)
}

// Tick scans every configured chain once, concurrently. A failing chain does
// not affect the others; their errors are combined.
func (ecp *EVMChainPoller) Tick(ctx context.Context) error {
	runLogger := ecp.logger.With(zap.String("runId", uuid.NewString()))

	chainsConfig := ecp.registry.GetConfig()
	errs := make([]error, len(chainsConfig.Networks))

	var wg sync.WaitGroup
	for i, network := range chainsConfig.Networks {
		wg.Add(1)
		go func(i int, network *config.NetworkConfig) {
			defer wg.Done()
			chainLogger := runLogger.With(zap.String("chainType", network.ChainType))
			if err := ecp.processChain(ctx, chainLogger, network, chainsConfig.EventBatchSize); err != nil {
				chainLogger.Sugar().Errorw("Failed to process chain", zap.Error(err))
				errs[i] = fmt.Errorf("chain %s: %w", network.ChainType, err)
			}
		}(i, network)
	}
	wg.Wait()

	return multierr.Combine(errs...)
}

func (ecp *EVMChainPoller) processChain(
	ctx context.Context,
	logger *zap.Logger,
	network *config.NetworkConfig,
	batchSize uint64,
) error {
	chainType := network.ChainType
	contractId := ecp.config.ContractId

	started := time.Now()
	outcome := metrics.OutcomeScanned
	defer func() {
		ecp.metrics.ObserveTick(chainType, outcome, started)
	}()

	cursor, err := ecp.store.GetCursor(ctx, contractId, chainType)
	if err != nil {
		outcome = metrics.OutcomeCursorError
		return fmt.Errorf("read cursor: %w", err)
	}
	if cursor.InProgress {
		outcome = metrics.OutcomeSkipped
		logger.Sugar().Debugw("Scan already in progress, skipping")
		return nil
	}

	head, err := ecp.ethClient.GetHeadBlock(ctx, chainType)
	if err != nil {
		outcome = metrics.OutcomeHeadError
		return err
	}
	ecp.metrics.HeadBlock.WithLabelValues(chainType).Set(float64(head))

	window := chainPoller.ComputeScanWindow(cursor.LastScannedBlock, network.FactoryStartBlock, head, batchSize)
	if window.Empty {
		outcome = metrics.OutcomeEmpty
		if err := ecp.advanceEmptyWindow(ctx, logger, chainType, cursor, head); err != nil {
			outcome = metrics.OutcomeCursorError
			return err
		}
		return nil
	}

	if err := ecp.store.SetInProgress(ctx, contractId, chainType, true); err != nil {
		outcome = metrics.OutcomeCursorError
		return fmt.Errorf("set in-progress flag: %w", err)
	}
	defer func() {
		// cleared even when ctx was cancelled mid-scan
		clearCtx := context.WithoutCancel(ctx)
		if err := ecp.store.SetInProgress(clearCtx, contractId, chainType, false); err != nil {
			logger.Sugar().Warnw("Failed to clear in-progress flag", zap.Error(err))
		}
	}()

	logger.Sugar().Debugw("Scanning window",
		zap.Uint64("startBlock", window.StartBlock),
		zap.Uint64("endBlock", window.EndBlock),
		zap.Uint64("head", head),
	)

	events, err := ecp.ethClient.GetLogs(ctx, chainType, network.FactoryContractAddress, ecp.config.EventNames, window.StartBlock, window.EndBlock)
	if err != nil {
		outcome = metrics.OutcomeFetchError
		return err
	}

	admitted := 0
	for _, event := range events {
		isNew, err := ecp.admitAndDispatch(ctx, logger, network, event)
		if err != nil {
			outcome = metrics.OutcomeLedgerError
			return err
		}
		if isNew {
			admitted++
		}
	}

	if err := ecp.store.AdvanceCursor(ctx, contractId, chainType, window.EndBlock); err != nil {
		outcome = metrics.OutcomeCursorError
		return fmt.Errorf("advance cursor to %d: %w", window.EndBlock, err)
	}
	ecp.metrics.LastScannedBlock.WithLabelValues(chainType).Set(float64(window.EndBlock))

	logger.Sugar().Infow("Scanned window",
		zap.Uint64("startBlock", window.StartBlock),
		zap.Uint64("endBlock", window.EndBlock),
		zap.Int("eventCount", len(events)),
		zap.Int("admittedCount", admitted),
	)
	return nil
}

// advanceEmptyWindow moves the cursor up to the head without fetching. A chain
// that has never been scanned and whose start block is beyond the head is left
// untouched.
func (ecp *EVMChainPoller) advanceEmptyWindow(
	ctx context.Context,
	logger *zap.Logger,
	chainType string,
	cursor *chainPoller.ChainCursor,
	head uint64,
) error {
	if cursor.LastScannedBlock == nil {
		logger.Sugar().Debugw("Start block is beyond head, waiting", zap.Uint64("head", head))
		return nil
	}

	target := max(*cursor.LastScannedBlock, head)
	if err := ecp.store.AdvanceCursor(ctx, ecp.config.ContractId, chainType, target); err != nil {
		return fmt.Errorf("advance cursor to %d: %w", target, err)
	}
	ecp.metrics.LastScannedBlock.WithLabelValues(chainType).Set(float64(target))

	logger.Sugar().Debugw("No new blocks",
		zap.Uint64("lastScannedBlock", *cursor.LastScannedBlock),
		zap.Uint64("head", head),
	)
	return nil
}

// admitAndDispatch returns an error only when the ledger fails. Sender lookup
// and handler failures are logged and do not stop the window.
func (ecp *EVMChainPoller) admitAndDispatch(
	ctx context.Context,
	logger *zap.Logger,
	network *config.NetworkConfig,
	event *ethereum.RawEvent,
) (bool, error) {
	chainType := network.ChainType
	txHash := chainPoller.NormalizeTransactionHash(event.TransactionHash)

	isNew, err := ecp.ledger.AdmitIfNew(ctx, eventLedger.EventKey{
		Contract:        ecp.config.ContractId,
		ChainType:       chainType,
		TransactionHash: txHash,
		LogIndex:        event.LogIndex,
		BlockNumber:     event.BlockNumber,
	})
	if err != nil {
		return false, fmt.Errorf("admit event %s:%d: %w", txHash, event.LogIndex, err)
	}
	if !isNew {
		ecp.metrics.EventsDuplicate.WithLabelValues(chainType, event.EventName).Inc()
		logger.Sugar().Debugw("Event already processed",
			zap.String("transactionHash", txHash),
			zap.Uint64("logIndex", event.LogIndex),
		)
		return false, nil
	}
	ecp.metrics.EventsAdmitted.WithLabelValues(chainType, event.EventName).Inc()

	sender, err := ecp.ethClient.GetTransactionSender(ctx, chainType, txHash)
	if err != nil {
		logger.Sugar().Warnw("Failed to resolve transaction sender",
			zap.String("transactionHash", txHash),
			zap.Error(err),
		)
		sender = ""
	}

	args := maps.Clone(event.Args)
	if args == nil {
		args = make(map[string]any, 2)
	}
	args["transactionHash"] = txHash
	args["userAddress"] = sender

	dispatched := &chainPoller.DispatchedEvent{
		EventName:       event.EventName,
		ChainType:       chainType,
		ContractAddress: event.ContractAddress,
		TransactionHash: txHash,
		ExplorerUrl:     chainPoller.ExplorerTxUrl(network.ExplorerUrl, txHash),
		BlockNumber:     event.BlockNumber,
		LogIndex:        event.LogIndex,
		UserAddress:     sender,
		Args:            args,
	}

	if ecp.handler == nil {
		return true, nil
	}
	if err := ecp.handler.HandleEvent(ctx, dispatched); err != nil {
		ecp.metrics.HandlerErrors.WithLabelValues(chainType, event.EventName).Inc()
		logger.Sugar().Errorw("Event handler failed",
			zap.String("eventName", event.EventName),
			zap.String("transactionHash", txHash),
			zap.Error(err),
		)
	}
	return true, nil
}
