package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Layr-Labs/factory-event-indexer/pkg/chainPollers/persistence/redis"
	ledgerMemory "github.com/Layr-Labs/factory-event-indexer/pkg/eventLedger/memory"
	"github.com/Layr-Labs/factory-event-indexer/pkg/networkRegistry/inMemoryNetworkRegistry"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [chainType...]",
	Short: "Clear in-progress flags left by a crashed indexer and exit",
	Long:  "Clear in-progress flags for the named chain types, or for every configured chain when none are given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := loadConfig()
		if err != nil {
			return err
		}
		defer l.Sync() // nolint:errcheck

		registry, err := inMemoryNetworkRegistry.NewInMemoryNetworkRegistry(&cfg.Chains, l)
		if err != nil {
			return err
		}

		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			return err
		}
		store := redis.NewRedisChainCursorStore(redisClient, l)
		defer store.Close() // nolint:errcheck

		if err := store.Ping(cmd.Context()); err != nil {
			return err
		}

		// no events are admitted during a sweep
		poller := newPoller(nil, registry, store, ledgerMemory.NewInMemoryEventLedger(), nil, nil, nil, cfg, l)
		if err := poller.ClearStaleFlags(cmd.Context(), args...); err != nil {
			return fmt.Errorf("clear in-progress flags: %w", err)
		}
		chains := args
		if len(chains) == 0 {
			chains = registry.ListChainTypes()
		}
		l.Sugar().Infow("Cleared in-progress flags", zap.Strings("chains", chains))
		return nil
	},
}
