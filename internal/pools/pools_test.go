package pools

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func testPool(mintA, mintB solana.PublicKey) TokenSwapPool {
	return TokenSwapPool{
		Name:           "A-B",
		SwapAccount:    newKey(),
		TokenMintA:     mintA,
		TokenMintB:     mintB,
		FeeNumerator:   25,
		FeeDenominator: 10000,
	}
}

func TestMatches_UnorderedContainment(t *testing.T) {
	a, b, c := newKey(), newKey(), newKey()
	pool := testPool(a, b)

	assert.True(t, Matches(&pool, a.String(), b.String()))
	assert.True(t, Matches(&pool, b.String(), a.String()))
	assert.False(t, Matches(&pool, a.String(), c.String()))
	assert.False(t, Matches(&pool, c.String(), b.String()))
	assert.False(t, Matches(&pool, "", b.String()))
	assert.False(t, Matches(nil, a.String(), b.String()))
}

func TestRegistry_Find(t *testing.T) {
	a, b, c := newKey(), newKey(), newKey()
	pool := testPool(a, b)
	market := SerumMarket{Name: "B/C", Market: newKey(), BaseMint: b, QuoteMint: c}

	r := NewRegistry([]TokenSwapPool{pool}, []SerumMarket{market})

	require.NotNil(t, r.FindPool(b.String(), a.String()))
	assert.Nil(t, r.FindMarket(a.String(), b.String()))
	require.NotNil(t, r.FindMarket(c.String(), b.String()))
	assert.Nil(t, r.FindPool(a.String(), c.String()))
	assert.Equal(t, 2, r.Count())

	got, err := r.FindPoolByName("A-B")
	require.NoError(t, err)
	assert.Equal(t, pool.SwapAccount, got.ProviderAddress())

	_, err = r.FindPoolByName("missing")
	assert.Error(t, err)
}

func TestLoadRegistry_FromJSON(t *testing.T) {
	dir := t.TempDir()
	a, b := newKey(), newKey()

	poolsJSON, err := json.Marshal([]TokenSwapPoolConfig{{
		Name:           "A-B",
		ProgramID:      newKey().String(),
		SwapAccount:    newKey().String(),
		Authority:      newKey().String(),
		TokenMintA:     a.String(),
		TokenMintB:     b.String(),
		VaultA:         newKey().String(),
		VaultB:         newKey().String(),
		PoolMint:       newKey().String(),
		FeeAccount:     newKey().String(),
		FeeNumerator:   30,
		FeeDenominator: 10000,
	}})
	require.NoError(t, err)
	poolsPath := filepath.Join(dir, "pools.json")
	require.NoError(t, os.WriteFile(poolsPath, poolsJSON, 0o600))

	r, err := LoadRegistry(poolsPath, "")
	require.NoError(t, err)
	require.Len(t, r.Pools(), 1)
	assert.Empty(t, r.Markets())
	assert.Nil(t, r.Pools()[0].HostFeeAccount)
	assert.Equal(t, KindTokenSwap, r.Pools()[0].Kind())
}

func TestLoadPools_InvalidKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pools.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"bad","program_id":"not-base58!","fee_denominator":1}]`), 0o600))

	_, err := LoadPoolsFromJSON(path)
	assert.Error(t, err)
}

func TestLoadPools_ZeroFeeDenominator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pools.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"bad","fee_denominator":0}]`), 0o600))

	_, err := LoadPoolsFromJSON(path)
	assert.Error(t, err)
}

func TestFarms_Find(t *testing.T) {
	f := Farm{Address: newKey(), Name: "SOL-USDC", MintA: newKey(), MintB: newKey()}
	farms := NewFarms([]Farm{f})

	got, ok := farms.Find(f.Address.String())
	require.True(t, ok)
	assert.Equal(t, "SOL-USDC", got.Name)

	_, ok = farms.Find(newKey().String())
	assert.False(t, ok)
}

func TestLoad_BundledConfigs(t *testing.T) {
	reg, err := LoadRegistry("../config/pools.json", "../config/markets.json")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Pools())
	assert.NotEmpty(t, reg.Markets())

	farms, err := LoadFarmsFromJSON("../config/farms.json")
	require.NoError(t, err)
	for _, f := range farms.All() {
		assert.False(t, f.Pool.IsZero(), f.Name)
	}
}
