package swap

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// ResolvedTokenAccount describes a token account to use for a swap plus any
// instructions needed to make it usable.
type ResolvedTokenAccount struct {
	Account solana.PublicKey
	Created bool // true if PreIxs create the account
	PreIxs  []solana.Instruction
}

// AccountChecker reports whether an account exists on-chain.
type AccountChecker interface {
	AccountExists(ctx context.Context, pubkey solana.PublicKey) (bool, error)
}

// ResolveAssociatedAccount returns the owner's associated token account for
// mint, adding a create instruction when it does not exist yet.
func ResolveAssociatedAccount(ctx context.Context, chk AccountChecker, owner, mint solana.PublicKey) (*ResolvedTokenAccount, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("derive associated token account: %w", err)
	}

	exists, err := chk.AccountExists(ctx, ata)
	if err != nil {
		return nil, err
	}
	if exists {
		return &ResolvedTokenAccount{Account: ata}, nil
	}

	return &ResolvedTokenAccount{
		Account: ata,
		Created: true,
		PreIxs:  []solana.Instruction{createAssociatedAccountIx(owner, owner, mint)},
	}, nil
}

func createAssociatedAccountIx(payer, owner, mint solana.PublicKey) solana.Instruction {
	return associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build()
}

// wrapSOLIxs funds a wrapped-SOL account with lamports and syncs its token balance.
func wrapSOLIxs(owner, account solana.PublicKey, lamports uint64) []solana.Instruction {
	return []solana.Instruction{
		system.NewTransferInstruction(lamports, owner, account).Build(),
		token.NewSyncNativeInstruction(account).Build(),
	}
}

// closeAccountIx closes a token account, returning its lamports to owner.
func closeAccountIx(account, owner solana.PublicKey) solana.Instruction {
	return token.NewCloseAccountInstruction(account, owner, owner, []solana.PublicKey{}).Build()
}
