package swap

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/onesol-trade/internal/dex"
	"github.com/aman-zulfiqar/onesol-trade/internal/distribution"
	"github.com/aman-zulfiqar/onesol-trade/internal/history"
	"github.com/aman-zulfiqar/onesol-trade/internal/metrics"
	"github.com/aman-zulfiqar/onesol-trade/internal/pools"
	"github.com/aman-zulfiqar/onesol-trade/internal/tokens"
	"github.com/aman-zulfiqar/onesol-trade/internal/wallet"
)

type fakeSigner struct {
	mu        sync.Mutex
	owner     solana.PublicKey
	connected bool
	existing  map[solana.PublicKey]bool
	simErr    error
	sendErr   error

	built     [][]solana.Instruction
	sent      int
	simulated int
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{
		owner:     solana.NewWallet().PublicKey(),
		connected: true,
		existing:  map[solana.PublicKey]bool{},
	}
}

func (f *fakeSigner) Connected() bool             { return f.connected }
func (f *fakeSigner) PublicKey() solana.PublicKey { return f.owner }

func (f *fakeSigner) AccountExists(_ context.Context, pk solana.PublicKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[pk], nil
}

func (f *fakeSigner) ata(mint solana.PublicKey) solana.PublicKey {
	a, _, err := solana.FindAssociatedTokenAddress(f.owner, mint)
	if err != nil {
		panic(err)
	}
	return a
}

func (f *fakeSigner) BuildTransaction(_ context.Context, ixs []solana.Instruction) (*solana.Transaction, error) {
	f.mu.Lock()
	f.built = append(f.built, ixs)
	f.mu.Unlock()
	return solana.NewTransaction(ixs, solana.Hash{1}, solana.TransactionPayer(f.owner))
}

func (f *fakeSigner) SignTx(*solana.Transaction) error { return nil }

func (f *fakeSigner) SimulateTransaction(context.Context, *solana.Transaction) (*wallet.SimulationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simulated++
	if f.simErr != nil {
		return &wallet.SimulationResult{Error: f.simErr.Error()}, f.simErr
	}
	return &wallet.SimulationResult{Success: true}, nil
}

func (f *fakeSigner) SendTx(context.Context, *solana.Transaction, *wallet.SendOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent++
	return "5sig", nil
}

func (f *fakeSigner) ConfirmTransaction(context.Context, string, string, time.Duration) error {
	return nil
}

func (f *fakeSigner) lastBuilt() []solana.Instruction {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.built) == 0 {
		return nil
	}
	return f.built[len(f.built)-1]
}

func key() solana.PublicKey { return solana.NewWallet().PublicKey() }

type fixture struct {
	signer  *fakeSigner
	history *history.Memory
	exec    *Executor
	usdc    solana.PublicKey
	wsol    solana.PublicKey
	pool    *pools.TokenSwapPool
	market  *pools.SerumMarket
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	wsol := solana.MustPublicKeyFromBase58(tokens.WrappedSOLMint)
	usdc := key()
	reg, err := tokens.New([]tokens.TokenInfo{
		{Address: wsol.String(), Symbol: "SOL", Decimals: 9},
		{Address: usdc.String(), Symbol: "USDC", Decimals: 6},
	})
	require.NoError(t, err)

	oo := key()
	fx := &fixture{
		signer:  newFakeSigner(),
		history: history.NewMemory(),
		usdc:    usdc,
		wsol:    wsol,
		pool: &pools.TokenSwapPool{
			Name: "SOL-USDC", ProgramID: key(), SwapAccount: key(), Authority: key(),
			TokenMintA: wsol, TokenMintB: usdc, VaultA: key(), VaultB: key(),
			PoolMint: key(), FeeAccount: key(), FeeNumerator: 30, FeeDenominator: 10000,
		},
		market: &pools.SerumMarket{
			Name: "SOL/USDC", ProgramID: key(), Market: key(), BaseMint: wsol, QuoteMint: usdc,
			Bids: key(), Asks: key(), EventQueue: key(), RequestQueue: key(),
			BaseVault: key(), QuoteVault: key(), VaultSigner: key(), OpenOrders: &oo,
		},
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	fx.exec = NewExecutor(fx.signer, reg, fx.history, Config{RequireSimulation: true, Logger: logger})
	return fx
}

func programs(ixs []solana.Instruction) []solana.PublicKey {
	out := make([]solana.PublicKey, len(ixs))
	for i, ix := range ixs {
		out[i] = ix.ProgramID()
	}
	return out
}

func TestSwap_TokenSwapCreatesOutputAccount(t *testing.T) {
	fx := newFixture(t)
	in := key()
	fx.signer.existing[in] = true

	// USDC -> SOL through the pool; the wSOL output account does not exist yet.
	res, err := fx.exec.Swap(context.Background(), Order{
		InputMint:    fx.usdc,
		OutputMint:   fx.wsol,
		InputAccount: &in,
		AmountIn:     2000000,
		AmountOut:    1500000000,
		Pool:         fx.pool,
		Split:        distribution.Split{TokenSwap: &distribution.TokenSwapRoute{AmountIn: 2000000, AmountOut: 1500000000}},
		SlippageBps:  100,
	})
	require.NoError(t, err)
	assert.Equal(t, "5sig", res.Signature)

	ixs := fx.signer.lastBuilt()
	assert.Equal(t, []solana.PublicKey{
		solana.SPLAssociatedTokenAccountProgramID,
		fx.pool.ProgramID,
		solana.TokenProgramID,
	}, programs(ixs))

	data, err := ixs[1].Data()
	require.NoError(t, err)
	assert.Equal(t, uint64(2000000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, uint64(1485000000), binary.LittleEndian.Uint64(data[9:17]))

	accts := ixs[1].Accounts()
	assert.Equal(t, in, accts[3].PublicKey)
	assert.Equal(t, fx.pool.VaultB, accts[4].PublicKey)
	assert.Equal(t, fx.signer.ata(fx.wsol), accts[6].PublicKey)

	trades, err := fx.history.Recent(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "USDC-SOL", trades[0].Pair)
	assert.Equal(t, []string{"token_swap_pool"}, trades[0].Providers)
	assert.Equal(t, uint64(1485000000), trades[0].MinOut)
	assert.Equal(t, 1, fx.signer.simulated)
}

func TestSwap_WrapsSOLInput(t *testing.T) {
	fx := newFixture(t)
	fx.signer.existing[fx.signer.ata(fx.usdc)] = true

	_, err := fx.exec.Swap(context.Background(), Order{
		InputMint:  fx.wsol,
		OutputMint: fx.usdc,
		AmountIn:   1500000000,
		Pool:       fx.pool,
		Split:      distribution.Split{TokenSwap: &distribution.TokenSwapRoute{AmountIn: 1500000000, AmountOut: 2000000}},
	})
	require.NoError(t, err)

	ixs := fx.signer.lastBuilt()
	assert.Equal(t, []solana.PublicKey{
		solana.SPLAssociatedTokenAccountProgramID, // create wSOL account
		solana.SystemProgramID,                    // fund it
		solana.TokenProgramID,                     // sync native
		fx.pool.ProgramID,
		solana.TokenProgramID, // close wSOL account
	}, programs(ixs))

	transfer := ixs[1].Accounts()
	assert.Equal(t, fx.signer.owner, transfer[0].PublicKey)
	assert.Equal(t, fx.signer.ata(fx.wsol), transfer[1].PublicKey)
}

func TestSwap_SplitAcrossPoolAndMarket(t *testing.T) {
	fx := newFixture(t)
	fx.signer.existing[fx.signer.ata(fx.usdc)] = true
	fx.signer.existing[fx.signer.ata(fx.wsol)] = true

	res, err := fx.exec.Swap(context.Background(), Order{
		InputMint:  fx.wsol,
		OutputMint: fx.usdc,
		AmountIn:   3000000000,
		Pool:       fx.pool,
		Market:     fx.market,
		Split: distribution.Split{
			TokenSwap: &distribution.TokenSwapRoute{AmountIn: 1000000000, AmountOut: 1300000},
			Serum:     &distribution.SerumRoute{AmountIn: 2000000000, AmountOut: 2700000, LimitPrice: 1300, MaxCoinQty: 20, MaxPcQty: 2700000},
		},
		SlippageBps: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"token_swap_pool", "serum_dex_market"}, res.Trade.Providers)

	ixs := fx.signer.lastBuilt()
	assert.Equal(t, []solana.PublicKey{
		solana.SystemProgramID,
		solana.TokenProgramID,
		fx.pool.ProgramID,
		fx.market.ProgramID,
		fx.market.ProgramID,
	}, programs(ixs))

	// Selling the base mint is an ask paid from the wSOL account.
	order, err := ixs[3].Data()
	require.NoError(t, err)
	assert.Equal(t, uint32(dex.Ask), binary.LittleEndian.Uint32(order[5:9]))
	assert.Equal(t, fx.signer.ata(fx.wsol), ixs[3].Accounts()[6].PublicKey)

	settle := ixs[4].Accounts()
	assert.Equal(t, fx.signer.ata(fx.wsol), settle[5].PublicKey)
	assert.Equal(t, fx.signer.ata(fx.usdc), settle[6].PublicKey)
}

func TestSwap_Errors(t *testing.T) {
	fx := newFixture(t)
	base := Order{
		InputMint:  fx.wsol,
		OutputMint: fx.usdc,
		AmountIn:   1,
		Pool:       fx.pool,
		Split:      distribution.Split{TokenSwap: &distribution.TokenSwapRoute{AmountIn: 1, AmountOut: 1}},
	}
	ctx := context.Background()

	noRoute := base
	noRoute.Split = distribution.Split{}
	_, err := fx.exec.Swap(ctx, noRoute)
	assert.ErrorIs(t, err, ErrNoRoute)

	zero := base
	zero.AmountIn = 0
	_, err = fx.exec.Swap(ctx, zero)
	assert.Error(t, err)

	same := base
	same.OutputMint = fx.wsol
	_, err = fx.exec.Swap(ctx, same)
	assert.Error(t, err)

	noOO := base
	noOO.Pool = nil
	noOO.Market = &pools.SerumMarket{Name: "x", BaseMint: fx.wsol, QuoteMint: fx.usdc}
	noOO.Split = distribution.Split{Serum: &distribution.SerumRoute{AmountIn: 1, MaxCoinQty: 1, MaxPcQty: 1}}
	_, err = fx.exec.Swap(ctx, noOO)
	assert.ErrorIs(t, err, dex.ErrNoOpenOrders)

	fx.signer.connected = false
	_, err = fx.exec.Swap(ctx, base)
	assert.ErrorIs(t, err, wallet.ErrNotConnected)
	assert.Equal(t, 0, fx.signer.sent)
}

func TestSwap_MissingInputAccount(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.exec.Swap(context.Background(), Order{
		InputMint:  fx.usdc,
		OutputMint: fx.wsol,
		AmountIn:   1,
		Pool:       fx.pool,
		Split:      distribution.Split{TokenSwap: &distribution.TokenSwapRoute{AmountIn: 1, AmountOut: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token account for input mint")
}

func TestSwap_SimulationFailureStopsSend(t *testing.T) {
	fx := newFixture(t)
	fx.signer.simErr = errors.New("simulation failed: InsufficientFunds")
	failed := testutil.ToFloat64(metrics.SwapsTotal.WithLabelValues("failed"))

	_, err := fx.exec.Swap(context.Background(), Order{
		InputMint:  fx.wsol,
		OutputMint: fx.usdc,
		AmountIn:   1,
		Pool:       fx.pool,
		Split:      distribution.Split{TokenSwap: &distribution.TokenSwapRoute{AmountIn: 1, AmountOut: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, 0, fx.signer.sent)
	assert.Equal(t, failed+1, testutil.ToFloat64(metrics.SwapsTotal.WithLabelValues("failed")))

	trades, _ := fx.history.Recent(context.Background(), "", 0)
	assert.Empty(t, trades)
}

func TestCreateTokenAccount(t *testing.T) {
	fx := newFixture(t)

	sig, err := fx.exec.CreateTokenAccount(context.Background(), fx.usdc)
	require.NoError(t, err)
	assert.Equal(t, "5sig", sig)
	assert.Equal(t, []solana.PublicKey{solana.SPLAssociatedTokenAccountProgramID}, programs(fx.signer.lastBuilt()))

	fx.signer.existing[fx.signer.ata(fx.usdc)] = true
	_, err = fx.exec.CreateTokenAccount(context.Background(), fx.usdc)
	assert.ErrorIs(t, err, ErrAccountExists)

	fx.signer.connected = false
	_, err = fx.exec.CreateTokenAccount(context.Background(), fx.usdc)
	assert.ErrorIs(t, err, wallet.ErrNotConnected)
}

func TestGuard(t *testing.T) {
	var g Guard
	release, err := g.Begin()
	require.NoError(t, err)
	assert.True(t, g.Pending())

	_, err = g.Begin()
	assert.ErrorIs(t, err, ErrPending)

	release()
	release()
	assert.False(t, g.Pending())

	release, err = g.Begin()
	require.NoError(t, err)
	release()
}
