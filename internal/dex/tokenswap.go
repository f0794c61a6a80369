package dex

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/onesol-trade/internal/pools"
)

// SwapDirection reports whether a swap through pool is A->B for the given input mint.
func SwapDirection(pool *pools.TokenSwapPool, inputMint solana.PublicKey) (bool, error) {
	if pool.TokenMintA.Equals(inputMint) {
		return true, nil // A -> B
	}
	if pool.TokenMintB.Equals(inputMint) {
		return false, nil // B -> A
	}
	return false, fmt.Errorf("input mint %s does not match pool %s", inputMint, pool.Name)
}

// BuildTokenSwapInstruction constructs an SPL token-swap Swap instruction.
func BuildTokenSwapInstruction(
	pool *pools.TokenSwapPool,
	amountIn uint64,
	minAmountOut uint64,
	userAuthority solana.PublicKey, // The signer (user's wallet)
	userTokenAccountIn solana.PublicKey,
	userTokenAccountOut solana.PublicKey,
	aToB bool,
) (solana.Instruction, error) {

	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	if amountIn == 0 {
		return nil, fmt.Errorf("amount in must be > 0")
	}

	poolSource := pool.VaultA
	poolDest := pool.VaultB
	if !aToB {
		poolSource = pool.VaultB
		poolDest = pool.VaultA
	}

	// SPL Token Swap instruction account order:
	// 0. swap_state
	// 1. authority (PDA that controls vaults)
	// 2. user_transfer_authority (signer)
	// 3. user_source
	// 4. pool_source
	// 5. pool_destination
	// 6. user_destination
	// 7. pool_mint
	// 8. fee_account
	// 9. token_program
	// 10. host_fee_account (optional)
	accounts := []*solana.AccountMeta{
		{PublicKey: pool.SwapAccount, IsWritable: true, IsSigner: false},
		{PublicKey: pool.Authority, IsWritable: false, IsSigner: false},
		{PublicKey: userAuthority, IsWritable: false, IsSigner: true},
		{PublicKey: userTokenAccountIn, IsWritable: true, IsSigner: false},
		{PublicKey: poolSource, IsWritable: true, IsSigner: false},
		{PublicKey: poolDest, IsWritable: true, IsSigner: false},
		{PublicKey: userTokenAccountOut, IsWritable: true, IsSigner: false},
		{PublicKey: pool.PoolMint, IsWritable: true, IsSigner: false},
		{PublicKey: pool.FeeAccount, IsWritable: true, IsSigner: false},
		{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
	}
	if pool.HostFeeAccount != nil {
		accounts = append(accounts, &solana.AccountMeta{
			PublicKey:  *pool.HostFeeAccount,
			IsWritable: true,
		})
	}

	// [0] = 1 (Swap), [1:9] = amount_in, [9:17] = minimum_amount_out
	data := make([]byte, 17)
	data[0] = 1
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], minAmountOut)

	return solana.NewInstruction(pool.ProgramID, accounts, data), nil
}
