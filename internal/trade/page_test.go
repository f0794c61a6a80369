package trade

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/onesol-trade/internal/currency"
	"github.com/aman-zulfiqar/onesol-trade/internal/distribution"
	"github.com/aman-zulfiqar/onesol-trade/internal/notify"
	"github.com/aman-zulfiqar/onesol-trade/internal/pools"
	"github.com/aman-zulfiqar/onesol-trade/internal/settings"
	"github.com/aman-zulfiqar/onesol-trade/internal/swap"
	"github.com/aman-zulfiqar/onesol-trade/internal/tokens"
	"github.com/aman-zulfiqar/onesol-trade/internal/wallet"
)

type fakeQuoter struct {
	mu    sync.Mutex
	calls []distribution.Request
}

func (q *fakeQuoter) Distribution(_ context.Context, req distribution.Request) (*distribution.Response, error) {
	q.mu.Lock()
	q.calls = append(q.calls, req)
	q.mu.Unlock()
	return &distribution.Response{
		AmountOut: 2000000,
		Distributions: []distribution.Distribution{
			{ProviderType: pools.KindTokenSwap, AmountIn: req.AmountIn, AmountOut: 2000000},
		},
	}, nil
}

func (q *fakeQuoter) last() (distribution.Request, int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.calls) == 0 {
		return distribution.Request{}, 0
	}
	return q.calls[len(q.calls)-1], len(q.calls)
}

type fakeWallet struct {
	mu        sync.Mutex
	connected bool
	addr      string
	accounts  []currency.TokenAccount
	loads     int
}

func (w *fakeWallet) Connected() bool { return w.connected }
func (w *fakeWallet) Address() string {
	if !w.connected {
		return ""
	}
	return w.addr
}

func (w *fakeWallet) TokenAccounts(context.Context) ([]currency.TokenAccount, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loads++
	return append([]currency.TokenAccount(nil), w.accounts...), nil
}

type fakeSwapper struct {
	mu        sync.Mutex
	orders    []swap.Order
	created   []solana.PublicKey
	swapErr   error
	createErr error
	started   chan struct{}
	unblock   chan struct{}
}

func (s *fakeSwapper) Swap(_ context.Context, order swap.Order) (*swap.Result, error) {
	s.mu.Lock()
	s.orders = append(s.orders, order)
	started, unblock := s.started, s.unblock
	s.mu.Unlock()
	if started != nil {
		close(started)
		<-unblock
	}
	if s.swapErr != nil {
		return nil, s.swapErr
	}
	return &swap.Result{Signature: "sig1", Instructions: 1}, nil
}

func (s *fakeSwapper) CreateTokenAccount(_ context.Context, mint solana.PublicKey) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, mint)
	if s.createErr != nil {
		return "", s.createErr
	}
	return "sig2", nil
}

type fixture struct {
	page     *Page
	quoter   *fakeQuoter
	wallet   *fakeWallet
	swapper  *fakeSwapper
	notes    *notify.Recorder
	settings *settings.MemoryStore
	sol      string
	bbb      string
	ccc      string
	solAcct  solana.PublicKey
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newFixture builds a SOL/BBB page. solBalance is in lamports; a zero
// balance leaves the wallet without accounts.
func newFixture(t *testing.T, connected bool, solBalance uint64) *fixture {
	t.Helper()
	sol := solana.MustPublicKeyFromBase58(tokens.WrappedSOLMint)
	bbb := solana.NewWallet().PublicKey()
	ccc := solana.NewWallet().PublicKey()

	reg, err := tokens.New([]tokens.TokenInfo{
		{Address: sol.String(), Symbol: "SOL", Decimals: 9},
		{Address: bbb.String(), Symbol: "BBB", Decimals: 6},
		{Address: ccc.String(), Symbol: "CCC", Decimals: 2},
	})
	require.NoError(t, err)

	providers := pools.NewRegistry([]pools.TokenSwapPool{{
		Name:           "SOL-BBB",
		SwapAccount:    solana.NewWallet().PublicKey(),
		TokenMintA:     sol,
		TokenMintB:     bbb,
		FeeNumerator:   30,
		FeeDenominator: 10000,
	}}, nil)

	owner := solana.NewWallet().PublicKey()
	w := &fakeWallet{connected: connected, addr: owner.String()}
	if solBalance > 0 {
		w.accounts = []currency.TokenAccount{{Address: owner, Mint: sol.String(), Amount: solBalance, Decimals: 9}}
	}

	store, err := settings.NewMemoryStore(50)
	require.NoError(t, err)

	fx := &fixture{
		quoter:   &fakeQuoter{},
		wallet:   w,
		swapper:  &fakeSwapper{},
		notes:    notify.NewRecorder(10),
		settings: store,
		sol:      sol.String(),
		bbb:      bbb.String(),
		ccc:      ccc.String(),
		solAcct:  owner,
	}
	fx.page, err = NewPage(context.Background(), Config{
		Tokens:    reg,
		Providers: providers,
		Quoter:    fx.quoter,
		ChainID:   101,
		Wallet:    w,
		Swapper:   fx.swapper,
		Settings:  store,
		Notifier:  fx.notes,
		MintA:     "SOL",
		MintB:     bbb.String(),
		Logger:    quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(fx.page.Close)

	require.NoError(t, fx.page.RefreshAccounts(context.Background()))
	return fx
}

func (fx *fixture) quote(t *testing.T, amount string) View {
	t.Helper()
	fx.page.InputA(amount)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fx.page.Wait(ctx))
	return fx.page.View()
}

func TestNewPage_Disconnected(t *testing.T) {
	fx := newFixture(t, false, 0)
	v := fx.page.View()

	assert.Equal(t, fx.sol, v.A.MintAddress)
	assert.Equal(t, "SOL", v.A.Symbol)
	assert.Equal(t, fx.bbb, v.B.MintAddress)
	assert.Equal(t, currency.ZeroAmount, v.B.Amount)
	assert.Equal(t, "SOL-BBB", v.Pool)
	assert.False(t, v.PoolNotAvailable)
	assert.Equal(t, ConnectLabel, v.Label)
	assert.False(t, v.Disabled)
	assert.False(t, v.HasTokenAccount)

	_, calls := fx.quoter.last()
	assert.Zero(t, calls)
}

func TestNewPage_UnknownMint(t *testing.T) {
	fx := newFixture(t, false, 0)
	_, err := NewPage(context.Background(), Config{
		Tokens:    fx.page.cfg.Tokens,
		Providers: fx.page.cfg.Providers,
		Quoter:    fx.quoter,
		Wallet:    fx.wallet,
		Swapper:   fx.swapper,
		MintA:     "NOPE",
	})
	assert.ErrorIs(t, err, ErrUnknownMint)
}

func TestInputA_QuotesDestination(t *testing.T) {
	fx := newFixture(t, true, 5_000_000_000)

	v := fx.quote(t, "1.5")

	req, calls := fx.quoter.last()
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(1_500_000_000), req.AmountIn)
	assert.Equal(t, fx.sol, req.SourceTokenMintKey)
	assert.Equal(t, fx.bbb, req.DestinationTokenMintKey)

	assert.Equal(t, "2.0", v.B.Amount)
	require.Len(t, v.Routes, 1)
	assert.Equal(t, "Token Swap", v.Routes[0].Name)
	assert.Equal(t, "5.0", v.A.Balance)
	assert.Equal(t, SwapLabel, v.Label)
	assert.False(t, v.Disabled)
	assert.False(t, v.Loading)
}

func TestInputA_SameValueDoesNotRequote(t *testing.T) {
	fx := newFixture(t, true, 5_000_000_000)
	fx.quote(t, "1")
	fx.quote(t, "1")

	_, calls := fx.quoter.last()
	assert.Equal(t, 1, calls)
}

func TestInputB_DoesNotQuote(t *testing.T) {
	fx := newFixture(t, true, 5_000_000_000)
	fx.page.InputB("7")

	v := fx.page.View()
	assert.Equal(t, "7", v.B.Amount)
	assert.Equal(t, currency.SideB, v.Driving.Leg)
	_, calls := fx.quoter.last()
	assert.Zero(t, calls)
}

func TestPoolNotAvailable(t *testing.T) {
	fx := newFixture(t, true, 5_000_000_000)
	require.NoError(t, fx.page.SelectMintB("CCC"))

	v := fx.quote(t, "1")
	assert.True(t, v.PoolNotAvailable)
	assert.Equal(t, "Pool SOL/CCC doesn't exist", v.Label)
	assert.True(t, v.Disabled)
	_, calls := fx.quoter.last()
	assert.Zero(t, calls)
}

func TestInsufficientFunds(t *testing.T) {
	fx := newFixture(t, true, 1_000_000_000)

	v := fx.quote(t, "2")
	assert.Equal(t, "Insufficient SOL funds", v.Label)
	assert.True(t, v.Disabled)
}

func TestConnectedWithoutAccountIsDisabled(t *testing.T) {
	fx := newFixture(t, true, 0)

	v := fx.quote(t, "1")
	assert.Nil(t, v.A.Account)
	assert.True(t, v.Disabled)
}

func TestSelectMint_Unknown(t *testing.T) {
	fx := newFixture(t, true, 0)
	assert.ErrorIs(t, fx.page.SelectMintA("ZZZ"), ErrUnknownMint)
}

func TestMaxA(t *testing.T) {
	t.Run("wrapped SOL keeps the fee reserve", func(t *testing.T) {
		fx := newFixture(t, true, 1_000_000_000)
		assert.Equal(t, "0.95", fx.page.MaxA())
		assert.Equal(t, "0.95", fx.page.View().A.Amount)
	})

	t.Run("wrapped SOL below the reserve clamps to zero", func(t *testing.T) {
		fx := newFixture(t, true, 10_000_000)
		assert.Equal(t, "0.0", fx.page.MaxA())
	})

	t.Run("other mints use the full balance", func(t *testing.T) {
		fx := newFixture(t, true, 1_000_000_000)
		fx.wallet.accounts = append(fx.wallet.accounts, currency.TokenAccount{
			Address:  solana.NewWallet().PublicKey(),
			Mint:     fx.bbb,
			Amount:   3_000_000,
			Decimals: 6,
		})
		require.NoError(t, fx.page.RefreshAccounts(context.Background()))
		fx.page.Flip()
		assert.Equal(t, "3.0", fx.page.MaxA())
	})
}

func TestFlip(t *testing.T) {
	fx := newFixture(t, true, 5_000_000_000)
	fx.quote(t, "1.5")

	fx.page.Flip()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fx.page.Wait(ctx))

	v := fx.page.View()
	assert.Equal(t, fx.bbb, v.A.MintAddress)
	assert.Equal(t, fx.sol, v.B.MintAddress)
	assert.Equal(t, currency.SwapGivenProceeds, v.Driving.Mode)

	req, calls := fx.quoter.last()
	assert.Equal(t, 2, calls)
	assert.Equal(t, fx.bbb, req.SourceTokenMintKey)
	assert.Equal(t, uint64(2_000_000), req.AmountIn)

	// The destination leg shows the new quote, not the amount typed before the flip.
	assert.Equal(t, "2.0", v.A.Amount)
	assert.Equal(t, "0.002", v.B.Amount)

	_, err := fx.page.HandleSwap(context.Background())
	require.NoError(t, err)
	require.Len(t, fx.swapper.orders, 1)
	order := fx.swapper.orders[0]
	assert.Equal(t, fx.bbb, order.InputMint.String())
	assert.Equal(t, uint64(2_000_000), order.AmountIn)
	assert.Equal(t, uint64(2_000_000), order.AmountOut)
	require.NotNil(t, order.Split.TokenSwap)
	assert.Equal(t, order.Split.TokenSwap.AmountOut, order.AmountOut)
}

func TestHasTokenAccount(t *testing.T) {
	fx := newFixture(t, true, 1_000_000_000)
	assert.False(t, fx.page.View().HasTokenAccount)

	fx.wallet.accounts = append(fx.wallet.accounts, currency.TokenAccount{
		Address:  solana.NewWallet().PublicKey(),
		Mint:     fx.bbb,
		Amount:   1,
		Decimals: 6,
	})
	require.NoError(t, fx.page.RefreshAccounts(context.Background()))
	assert.True(t, fx.page.View().HasTokenAccount)

	require.NoError(t, fx.page.SelectMintB("CCC"))
	assert.False(t, fx.page.View().HasTokenAccount)
}

func TestHandleSwap(t *testing.T) {
	fx := newFixture(t, true, 5_000_000_000)
	_, err := fx.settings.SetSlippage(context.Background(), fx.wallet.addr, 100)
	require.NoError(t, err)
	fx.quote(t, "1.5")

	res, err := fx.page.HandleSwap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sig1", res.Signature)

	require.Len(t, fx.swapper.orders, 1)
	order := fx.swapper.orders[0]
	assert.Equal(t, fx.sol, order.InputMint.String())
	assert.Equal(t, fx.bbb, order.OutputMint.String())
	assert.Equal(t, uint64(1_500_000_000), order.AmountIn)
	assert.Equal(t, uint64(2_000_000), order.AmountOut)
	assert.Equal(t, uint16(100), order.SlippageBps)
	require.NotNil(t, order.Pool)
	assert.Nil(t, order.Market)
	require.NotNil(t, order.Split.TokenSwap)
	require.NotNil(t, order.InputAccount)
	assert.Equal(t, fx.solAcct, *order.InputAccount)

	last, ok := fx.notes.Last()
	require.True(t, ok)
	assert.Equal(t, notify.TypeSuccess, last.Type)
	assert.Equal(t, "sig1", last.TxID)
	assert.Equal(t, fx.wallet.addr, last.Wallet)

	assert.Equal(t, 2, fx.wallet.loads)
	assert.False(t, fx.page.View().Pending)
}

func TestHandleSwap_FailureNotifies(t *testing.T) {
	fx := newFixture(t, true, 5_000_000_000)
	fx.swapper.swapErr = errors.New("user rejected")
	fx.quote(t, "1")

	_, err := fx.page.HandleSwap(context.Background())
	assert.EqualError(t, err, "user rejected")

	last, ok := fx.notes.Last()
	require.True(t, ok)
	assert.Equal(t, notify.TypeError, last.Type)
	assert.Equal(t, "Swap trade cancelled.", last.Message)
	assert.Equal(t, "Please try again and approve transactions from your wallet", last.Description)
	assert.False(t, fx.page.View().Pending)
}

func TestHandleSwap_Preconditions(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		fx := newFixture(t, false, 0)
		_, err := fx.page.HandleSwap(context.Background())
		assert.ErrorIs(t, err, wallet.ErrNotConnected)
	})

	t.Run("no amount", func(t *testing.T) {
		fx := newFixture(t, true, 5_000_000_000)
		_, err := fx.page.HandleSwap(context.Background())
		assert.ErrorIs(t, err, ErrNotReady)
	})

	t.Run("no pool", func(t *testing.T) {
		fx := newFixture(t, true, 5_000_000_000)
		require.NoError(t, fx.page.SelectMintB("CCC"))
		fx.quote(t, "1")
		_, err := fx.page.HandleSwap(context.Background())
		assert.ErrorIs(t, err, ErrNotReady)
		assert.Empty(t, fx.swapper.orders)

		_, ok := fx.notes.Last()
		assert.False(t, ok)
	})
}

func TestHandleSwap_Pending(t *testing.T) {
	fx := newFixture(t, true, 5_000_000_000)
	fx.swapper.started = make(chan struct{})
	fx.swapper.unblock = make(chan struct{})
	fx.quote(t, "1")

	done := make(chan error, 1)
	go func() {
		_, err := fx.page.HandleSwap(context.Background())
		done <- err
	}()
	<-fx.swapper.started

	v := fx.page.View()
	assert.True(t, v.Pending)
	assert.True(t, v.Disabled)

	_, err := fx.page.HandleSwap(context.Background())
	assert.ErrorIs(t, err, swap.ErrPending)

	close(fx.swapper.unblock)
	require.NoError(t, <-done)
	assert.False(t, fx.page.View().Pending)
}

func TestHandleCreateTokenAccount(t *testing.T) {
	fx := newFixture(t, true, 1_000_000_000)

	sig, err := fx.page.HandleCreateTokenAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sig2", sig)
	require.Len(t, fx.swapper.created, 1)
	assert.Equal(t, fx.bbb, fx.swapper.created[0].String())
	assert.True(t, fx.page.View().HasTokenAccount)
}

func TestHandleCreateTokenAccount_FailureNotifies(t *testing.T) {
	fx := newFixture(t, true, 1_000_000_000)
	fx.swapper.createErr = errors.New("rejected")

	_, err := fx.page.HandleCreateTokenAccount(context.Background())
	assert.Error(t, err)

	last, ok := fx.notes.Last()
	require.True(t, ok)
	assert.Equal(t, "Create account cancelled.", last.Message)
	assert.Equal(t, "Please try again", last.Description)
	assert.False(t, fx.page.View().HasTokenAccount)
	assert.False(t, fx.page.View().Pending)
}

func TestHandleCreateTokenAccount_NeedsSourceAccount(t *testing.T) {
	fx := newFixture(t, true, 0)
	_, err := fx.page.HandleCreateTokenAccount(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
}
