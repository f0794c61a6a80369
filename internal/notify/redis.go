package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	recentPrefix  = "notifications:recent:"
	channelPrefix = "notifications:"
	allWallets    = "all"
)

// Redis keeps a capped list of recent notifications per wallet and publishes
// each one on the wallet's channel.
type Redis struct {
	client redis.Cmdable
	keep   int64
}

func NewRedis(client redis.Cmdable, keep int) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if keep <= 0 {
		keep = 100
	}
	return &Redis{client: client, keep: int64(keep)}, nil
}

func walletKey(wallet string) string {
	if wallet == "" {
		return allWallets
	}
	return wallet
}

func (r *Redis) Notify(ctx context.Context, n Notification) error {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	keys := []string{allWallets}
	if key := walletKey(n.Wallet); key != allWallets {
		keys = append(keys, key)
	}

	pipe := r.client.TxPipeline()
	for _, k := range keys {
		pipe.LPush(ctx, recentPrefix+k, data)
		pipe.LTrim(ctx, recentPrefix+k, 0, r.keep-1)
		pipe.Publish(ctx, channelPrefix+k, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Recent returns notifications newest first. An empty wallet reads the list of all wallets.
func (r *Redis) Recent(ctx context.Context, wallet string, limit int) ([]Notification, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	vals, err := r.client.LRange(ctx, recentPrefix+walletKey(wallet), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	out := make([]Notification, 0, len(vals))
	for _, v := range vals {
		var n Notification
		if err := json.Unmarshal([]byte(v), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Subscribe delivers notifications published for wallet until ctx ends. An
// empty wallet follows every wallet.
func Subscribe(ctx context.Context, client *redis.Client, wallet string, handler func(Notification)) error {
	pubsub := client.Subscribe(ctx, channelPrefix+walletKey(wallet))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var n Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				continue
			}
			handler(n)
		}
	}
}
