package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	chainPoller "github.com/Layr-Labs/factory-event-indexer/pkg/chainPollers"
	EVMChainPoller "github.com/Layr-Labs/factory-event-indexer/pkg/chainPollers/evm"
	"github.com/Layr-Labs/factory-event-indexer/pkg/chainPollers/persistence/redis"
	"github.com/Layr-Labs/factory-event-indexer/pkg/clients/ethereum"
	"github.com/Layr-Labs/factory-event-indexer/pkg/config"
	"github.com/Layr-Labs/factory-event-indexer/pkg/contracts"
	"github.com/Layr-Labs/factory-event-indexer/pkg/eventHandlers"
	"github.com/Layr-Labs/factory-event-indexer/pkg/eventLedger"
	"github.com/Layr-Labs/factory-event-indexer/pkg/eventLedger/postgres"
	"github.com/Layr-Labs/factory-event-indexer/pkg/metrics"
	"github.com/Layr-Labs/factory-event-indexer/pkg/networkRegistry"
	"github.com/Layr-Labs/factory-event-indexer/pkg/networkRegistry/inMemoryNetworkRegistry"
	"github.com/Layr-Labs/factory-event-indexer/pkg/opsServer"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the indexer until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := loadConfig()
		if err != nil {
			return err
		}
		defer l.Sync() // nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg, l)
	},
}

func run(ctx context.Context, cfg *config.Config, l *zap.Logger) error {
	registry, err := inMemoryNetworkRegistry.NewInMemoryNetworkRegistry(&cfg.Chains, l)
	if err != nil {
		return err
	}

	catalog, err := contracts.NewFactoryEventCatalog()
	if err != nil {
		return fmt.Errorf("build event catalog: %w", err)
	}

	backends, err := ethereum.DialBackends(ctx, cfg.Chains.Networks, cfg.RpcTimeout, l)
	if err != nil {
		return err
	}
	ethClient := ethereum.NewEthereumClient(backends, catalog, ethereum.DefaultEthereumClientConfig(), l)
	defer ethClient.Close()

	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		return err
	}
	store := redis.NewRedisChainCursorStore(redisClient, l)
	defer store.Close() // nolint:errcheck

	// an unreachable Redis pauses ingestion; ticks report cursor errors until it returns
	if err := store.Ping(ctx); err != nil {
		l.Sugar().Errorw("Redis is unreachable, ingestion paused until it recovers", zap.Error(err))
	}

	db, err := postgres.Open(ctx, &cfg.DB, l)
	if err != nil {
		return err
	}
	if err := db.RunMigrations(ctx); err != nil {
		// nolint:errcheck
		db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}
	ledger := postgres.NewPostgresEventLedger(db, l)
	defer ledger.Close() // nolint:errcheck

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pollerMetrics := metrics.NewMetrics(reg)

	handler := eventHandlers.NewFactoryEventHandler(l)
	poller := newPoller(ethClient, registry, store, ledger, handler, pollerMetrics, catalog.Names(), cfg, l)

	ops := opsServer.NewOpsServer(&opsServer.OpsServerConfig{Port: cfg.MetricsPort}, reg, map[string]opsServer.HealthCheck{
		"redis":    store.Ping,
		"postgres": db.PingContext,
	}, l)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ops.Run(gCtx)
	})
	g.Go(func() error {
		if err := poller.Start(gCtx); err != nil {
			return err
		}
		<-gCtx.Done()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	l.Sugar().Infow("Indexer shut down gracefully")
	return nil
}

func newPoller(
	ethClient ethereum.Client,
	registry networkRegistry.INetworkRegistry,
	store chainPoller.IChainCursorStore,
	ledger eventLedger.IEventLedger,
	handler chainPoller.IEventHandler,
	pollerMetrics *metrics.Metrics,
	eventNames []string,
	cfg *config.Config,
	l *zap.Logger,
) *EVMChainPoller.EVMChainPoller {
	return EVMChainPoller.NewEVMChainPoller(ethClient, registry, store, ledger, handler, pollerMetrics, &EVMChainPoller.EVMChainPollerConfig{
		ContractId:      config.FactoryContract,
		PollingInterval: cfg.PollInterval,
		EventNames:      eventNames,
	}, l)
}
