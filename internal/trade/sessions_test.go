package trade

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/onesol-trade/internal/currency"
)

type closeCounter struct {
	closed atomic.Int32
}

func (c *closeCounter) Close() { c.closed.Add(1) }

func TestSessions_AddGetDelete(t *testing.T) {
	s := NewSessions[*closeCounter](time.Minute, quietLogger())
	page := &closeCounter{}

	id := s.Add(page)
	require.NotEmpty(t, id)
	assert.Equal(t, 1, s.Len())

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Same(t, page, got)

	_, ok = s.Get("missing")
	assert.False(t, ok)

	assert.True(t, s.Delete(id))
	assert.False(t, s.Delete(id))
	assert.Equal(t, int32(1), page.closed.Load())
	assert.Zero(t, s.Len())
}

func TestSessions_Sweep(t *testing.T) {
	s := NewSessions[*closeCounter](time.Minute, quietLogger())
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	idle, active := &closeCounter{}, &closeCounter{}
	s.Add(idle)
	activeID := s.Add(active)

	now = now.Add(45 * time.Second)
	_, ok := s.Get(activeID)
	require.True(t, ok)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, int32(1), idle.closed.Load())
	assert.Zero(t, active.closed.Load())

	_, ok = s.Get(activeID)
	assert.True(t, ok)
}

func TestSessions_RunClosesOnCancel(t *testing.T) {
	s := NewSessions[*closeCounter](time.Minute, quietLogger())
	page := &closeCounter{}
	s.Add(page)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()
	<-done

	assert.Equal(t, int32(1), page.closed.Load())
	assert.Zero(t, s.Len())
}

func TestActionLabel(t *testing.T) {
	fx := newFixture(t, false, 0)
	reg := fx.page.cfg.Tokens
	funded := &currency.TokenAccount{Mint: fx.sol, Amount: 2_000_000_000, Decimals: 9}

	tests := []struct {
		name      string
		connected bool
		a, b      currency.Leg
		ignoreTo  bool
		want      string
	}{
		{"disconnected", false, currency.Leg{}, currency.Leg{}, true, ConnectLabel},
		{"no source mint", true, currency.Leg{}, currency.Leg{}, true, SelectTokenLabel},
		{"no amount", true, currency.Leg{MintAddress: fx.sol}, currency.Leg{}, true, EnterAmountLabel},
		{"no destination mint", true, currency.Leg{MintAddress: fx.sol, Amount: "1"}, currency.Leg{}, true, SelectTokenLabel},
		{"no destination amount", true, currency.Leg{MintAddress: fx.sol, Amount: "1"}, currency.Leg{MintAddress: fx.bbb}, true, EnterAmountLabel},
		{"source short", true, currency.Leg{MintAddress: fx.sol, Amount: "3", Account: funded}, currency.Leg{MintAddress: fx.bbb, Amount: "1"}, true, "Insufficient SOL funds"},
		{"ready", true, currency.Leg{MintAddress: fx.sol, Amount: "1", Account: funded}, currency.Leg{MintAddress: fx.bbb, Amount: "1"}, true, SwapLabel},
		{"destination short", true, currency.Leg{MintAddress: fx.sol, Amount: "1", Account: funded}, currency.Leg{MintAddress: fx.bbb, Amount: "1"}, false, "Insufficient BBB funds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActionLabel(SwapLabel, tt.connected, reg, &tt.a, &tt.b, tt.ignoreTo))
		})
	}
}
