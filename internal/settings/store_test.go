package settings

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())
	return client
}

func cleanupTestRedis(client *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = client.FlushDB(ctx).Err()
	_ = client.Close()
}

func testStores(t *testing.T) map[string]Store {
	mem, err := NewMemoryStore(50)
	require.NoError(t, err)
	stores := map[string]Store{"memory": mem}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 1})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if client.Ping(ctx).Err() == nil {
		require.NoError(t, client.FlushDB(ctx).Err())
		rs, err := NewRedisStore(client, 50)
		require.NoError(t, err)
		stores["redis"] = rs
		t.Cleanup(func() { cleanupTestRedis(client) })
	} else {
		_ = client.Close()
	}
	return stores
}

func TestStore_DefaultAndSet(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			st, err := store.Get(ctx, "wallet1")
			require.NoError(t, err)
			assert.Equal(t, uint16(50), st.SlippageBps)
			assert.Equal(t, "wallet1", st.Wallet)
			assert.True(t, st.UpdatedAt.IsZero())

			set, err := store.SetSlippage(ctx, "wallet1", 100)
			require.NoError(t, err)
			assert.Equal(t, uint16(100), set.SlippageBps)
			assert.False(t, set.UpdatedAt.IsZero())

			st, err = store.Get(ctx, "wallet1")
			require.NoError(t, err)
			assert.Equal(t, uint16(100), st.SlippageBps)

			st, err = store.Get(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, DefaultWallet, st.Wallet)
			assert.Equal(t, uint16(50), st.SlippageBps)
		})
	}
}

func TestStore_Validation(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.SetSlippage(ctx, "wallet1", 0)
			assert.Error(t, err)
			_, err = store.SetSlippage(ctx, "wallet1", MaxSlippageBps+1)
			assert.Error(t, err)
			_, err = store.SetSlippage(ctx, "bad key!", 10)
			assert.Error(t, err)
			_, err = store.Get(ctx, "bad key!")
			assert.Error(t, err)

			_, err = store.SetSlippage(ctx, "wallet1", MaxSlippageBps)
			assert.NoError(t, err)
		})
	}
}

func TestRedisStore_Wallets(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewRedisStore(client, 50)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.SetSlippage(ctx, "a", 10)
	require.NoError(t, err)
	_, err = store.SetSlippage(ctx, "b", 20)
	require.NoError(t, err)

	wallets, err := store.Wallets(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, wallets)
}

func TestNewStores_InvalidDefault(t *testing.T) {
	_, err := NewMemoryStore(0)
	assert.Error(t, err)
	_, err = NewRedisStore(nil, 50)
	assert.Error(t, err)
}
