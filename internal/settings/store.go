package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	indexKey    = "settings:index"
	valuePrefix = "settings:"
)

type RedisStore struct {
	client     redis.Cmdable
	defaultBps uint16
}

func NewRedisStore(client redis.Cmdable, defaultBps uint16) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if err := ValidateSlippage(defaultBps); err != nil {
		return nil, err
	}
	return &RedisStore{client: client, defaultBps: defaultBps}, nil
}

func (s *RedisStore) Get(ctx context.Context, wallet string) (*Settings, error) {
	wallet, err := normalizeWallet(wallet)
	if err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, settingsKey(wallet)).Result()
	if err == redis.Nil {
		return &Settings{Wallet: wallet, SlippageBps: s.defaultBps}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	var st Settings
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return &st, nil
}

func (s *RedisStore) SetSlippage(ctx context.Context, wallet string, bps uint16) (*Settings, error) {
	wallet, err := normalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	if err := ValidateSlippage(bps); err != nil {
		return nil, err
	}

	st := &Settings{Wallet: wallet, SlippageBps: bps, UpdatedAt: time.Now().UTC()}
	b, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, settingsKey(wallet), b, 0)
	pipe.SAdd(ctx, indexKey, wallet)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("set settings: %w", err)
	}
	return st, nil
}

// Wallets lists the wallets with stored settings.
func (s *RedisStore) Wallets(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list settings index: %w", err)
	}
	return keys, nil
}

func settingsKey(wallet string) string {
	return valuePrefix + wallet
}

// MemoryStore is the in-process Store used when Redis is not configured.
type MemoryStore struct {
	defaultBps uint16

	mu    sync.RWMutex
	items map[string]Settings
}

func NewMemoryStore(defaultBps uint16) (*MemoryStore, error) {
	if err := ValidateSlippage(defaultBps); err != nil {
		return nil, err
	}
	return &MemoryStore{defaultBps: defaultBps, items: make(map[string]Settings)}, nil
}

func (s *MemoryStore) Get(_ context.Context, wallet string) (*Settings, error) {
	wallet, err := normalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.items[wallet]; ok {
		return &st, nil
	}
	return &Settings{Wallet: wallet, SlippageBps: s.defaultBps}, nil
}

func (s *MemoryStore) SetSlippage(_ context.Context, wallet string, bps uint16) (*Settings, error) {
	wallet, err := normalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	if err := ValidateSlippage(bps); err != nil {
		return nil, err
	}
	st := Settings{Wallet: wallet, SlippageBps: bps, UpdatedAt: time.Now().UTC()}
	s.mu.Lock()
	s.items[wallet] = st
	s.mu.Unlock()
	return &st, nil
}
