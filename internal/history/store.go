package history

import (
	"context"
	"sort"
	"sync"

	"github.com/aman-zulfiqar/onesol-trade/internal/models"
)

// Store records confirmed trades.
type Store interface {
	InsertTrade(ctx context.Context, trade *models.Trade) error
	Recent(ctx context.Context, wallet string, limit int) ([]*models.Trade, error)
}

// Nop discards trades. It is used when no history backend is configured.
type Nop struct{}

func (Nop) InsertTrade(context.Context, *models.Trade) error { return nil }

func (Nop) Recent(context.Context, string, int) ([]*models.Trade, error) {
	return []*models.Trade{}, nil
}

// Memory keeps trades in process.
type Memory struct {
	mu     sync.Mutex
	trades []*models.Trade
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) InsertTrade(_ context.Context, trade *models.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := *trade
	m.trades = append(m.trades, &t)
	return nil
}

// Recent returns the newest trades first. An empty wallet matches all trades.
func (m *Memory) Recent(_ context.Context, wallet string, limit int) ([]*models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Trade, 0, len(m.trades))
	for _, t := range m.trades {
		if wallet == "" || t.Wallet == wallet {
			c := *t
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
