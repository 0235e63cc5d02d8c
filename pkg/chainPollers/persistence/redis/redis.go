package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"

	chainPoller "github.com/Layr-Labs/factory-event-indexer/pkg/chainPollers"
	"github.com/Layr-Labs/factory-event-indexer/pkg/chainPollers/persistence"
	"github.com/Layr-Labs/factory-event-indexer/pkg/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// storedCursor is the JSON document kept under block_info:{contract}:{chain}.
// lastBlock is a decimal string; older writers may have stored a bare number.
type storedCursor struct {
	LastBlock     json.RawMessage `json:"lastBlock,omitempty"`
	CronInProcess bool            `json:"cronInProcess"`
}

type RedisChainCursorStore struct {
	client *redis.Client
	logger *zap.Logger
	closed atomic.Bool
}

// NewRedisClient builds a client from REDIS_URL when set, otherwise from host,
// port and password.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password: cfg.Password,
	}), nil
}

func NewRedisChainCursorStore(client *redis.Client, logger *zap.Logger) *RedisChainCursorStore {
	return &RedisChainCursorStore{
		client: client,
		logger: logger,
	}
}

// Ping checks connectivity. Failures are reported as ErrStorageDegraded so the
// caller can keep running with ingestion paused.
func (s *RedisChainCursorStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping redis: %w", persistence.ErrStorageDegraded, err)
	}
	return nil
}

func (s *RedisChainCursorStore) load(ctx context.Context, key string) (*storedCursor, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return &storedCursor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", persistence.ErrStorageDegraded, key, err)
	}

	var stored storedCursor
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.logger.Sugar().Warnw("Ignoring unreadable cursor value",
			zap.String("key", key),
			zap.Error(err),
		)
		return &storedCursor{}, nil
	}
	return &stored, nil
}

func (s *RedisChainCursorStore) save(ctx context.Context, key string, stored *storedCursor) error {
	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal cursor: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", persistence.ErrStorageDegraded, key, err)
	}
	return nil
}

func parseLastBlock(raw json.RawMessage) (*uint64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	text := strings.Trim(string(raw), `"`)
	if text == "" {
		return nil, nil
	}
	block, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", persistence.ErrInvalidRange, text)
	}
	return &block, nil
}

func (s *RedisChainCursorStore) GetCursor(ctx context.Context, contractId string, chainType string) (*chainPoller.ChainCursor, error) {
	if s.closed.Load() {
		return nil, persistence.ErrStoreClosed
	}

	stored, err := s.load(ctx, persistence.CursorKey(contractId, chainType))
	if err != nil {
		return nil, err
	}
	last, err := parseLastBlock(stored.LastBlock)
	if err != nil {
		return nil, err
	}
	return &chainPoller.ChainCursor{
		LastScannedBlock: last,
		InProgress:       stored.CronInProcess,
	}, nil
}

// SetInProgress is a read-modify-write; concurrent writers race and the last
// write wins.
func (s *RedisChainCursorStore) SetInProgress(ctx context.Context, contractId string, chainType string, inProgress bool) error {
	if s.closed.Load() {
		return persistence.ErrStoreClosed
	}

	key := persistence.CursorKey(contractId, chainType)
	stored, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	stored.CronInProcess = inProgress
	return s.save(ctx, key, stored)
}

func (s *RedisChainCursorStore) AdvanceCursor(ctx context.Context, contractId string, chainType string, lastBlock uint64) error {
	if s.closed.Load() {
		return persistence.ErrStoreClosed
	}

	key := persistence.CursorKey(contractId, chainType)
	stored, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	stored.LastBlock, err = json.Marshal(strconv.FormatUint(lastBlock, 10))
	if err != nil {
		return fmt.Errorf("marshal last block: %w", err)
	}
	return s.save(ctx, key, stored)
}

func (s *RedisChainCursorStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return persistence.ErrStoreClosed
	}
	return s.client.Close()
}
