package wallet

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	projectrpc "github.com/aman-zulfiqar/onesol-trade/internal/rpc"
)

// SendOptions configures transaction sending behavior
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
	MaxRetries          *int
}

// DefaultSendOptions returns recommended send settings
func DefaultSendOptions() SendOptions {
	maxRetries := 3
	return SendOptions{
		SkipPreflight:       false,
		PreflightCommitment: "processed",
		MaxRetries:          &maxRetries,
	}
}

// SimulationResult contains simulation output
type SimulationResult struct {
	Success       bool
	Error         string
	Logs          []string
	UnitsConsumed uint64
}

// SignTx signs a transaction with the wallet's private key
func (w *Wallet) SignTx(tx *solana.Transaction) error {
	if !w.connected {
		return ErrNotConnected
	}
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.pub) {
			return &w.priv
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

func encodeTx(tx *solana.Transaction) (string, error) {
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(txBytes), nil
}

// SendTx sends a signed transaction with configurable options
func (w *Wallet) SendTx(ctx context.Context, tx *solana.Transaction, opts *SendOptions) (string, error) {
	if opts == nil {
		defaultOpts := DefaultSendOptions()
		defaultOpts.SkipPreflight = w.cfg.SkipPreflight
		defaultOpts.PreflightCommitment = w.cfg.PreflightCommitment
		opts = &defaultOpts
	}

	encodedTx, err := encodeTx(tx)
	if err != nil {
		return "", err
	}

	return w.rpc.SendTransaction(ctx, encodedTx, projectrpc.SendOptions{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: opts.PreflightCommitment,
		MaxRetries:          opts.MaxRetries,
	})
}

// GetLatestBlockhash fetches the most recent blockhash with commitment level
func (w *Wallet) GetLatestBlockhash(ctx context.Context, commitment ...string) (solana.Hash, error) {
	commitmentLevel := "processed"
	if len(commitment) > 0 {
		commitmentLevel = commitment[0]
	}

	bh, err := w.rpc.GetLatestBlockhash(ctx, commitmentLevel)
	if err != nil {
		return solana.Hash{}, err
	}

	hash, err := solana.HashFromBase58(bh.Blockhash)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("invalid blockhash format: %w", err)
	}
	return hash, nil
}

// SimulateTransaction simulates a transaction before sending
func (w *Wallet) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error) {
	encodedTx, err := encodeTx(tx)
	if err != nil {
		return nil, err
	}

	v, err := w.rpc.SimulateTransaction(ctx, encodedTx, "processed")
	if err != nil {
		return nil, err
	}

	result := &SimulationResult{
		Logs:          v.Logs,
		UnitsConsumed: v.UnitsConsumed,
	}
	if v.Err != nil {
		result.Error = fmt.Sprintf("%v", v.Err)
		return result, fmt.Errorf("simulation failed: %v", v.Err)
	}

	result.Success = true
	return result, nil
}

// ConfirmTransaction polls for transaction confirmation
func (w *Wallet) ConfirmTransaction(
	ctx context.Context,
	signature string,
	commitment string,
	timeout time.Duration,
) error {

	deadline := time.Now().Add(timeout)
	backoff := 500 * time.Millisecond
	maxBackoff := 4 * time.Second

	for time.Now().Before(deadline) {
		confirmed, err := w.checkSignatureStatus(ctx, signature, commitment)
		if err != nil {
			return fmt.Errorf("failed to check signature: %w", err)
		}
		if confirmed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	return fmt.Errorf("transaction confirmation timeout after %v", timeout)
}

func (w *Wallet) checkSignatureStatus(ctx context.Context, signature string, commitment string) (bool, error) {
	status, err := w.rpc.GetSignatureStatus(ctx, signature)
	if err != nil {
		return false, err
	}
	if status == nil || status.ConfirmationStatus == "" {
		return false, nil // Not yet processed
	}
	if status.Err != nil {
		return false, fmt.Errorf("transaction failed: %v", status.Err)
	}
	return commitmentReached(status.ConfirmationStatus, commitment), nil
}

func commitmentReached(status, want string) bool {
	switch want {
	case "confirmed":
		return status == "confirmed" || status == "finalized"
	case "finalized":
		return status == "finalized"
	default:
		return status != ""
	}
}

// BuildTransaction creates a new transaction with recent blockhash, paid by the wallet.
func (w *Wallet) BuildTransaction(
	ctx context.Context,
	instructions []solana.Instruction,
) (*solana.Transaction, error) {
	if !w.connected {
		return nil, ErrNotConnected
	}

	recentBlockhash, err := w.GetLatestBlockhash(ctx, "processed")
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recentBlockhash,
		solana.TransactionPayer(w.pub),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

// SignAndSend is a convenience method that builds, signs, and sends a transaction
func (w *Wallet) SignAndSend(
	ctx context.Context,
	instructions []solana.Instruction,
	opts *SendOptions,
) (string, error) {
	tx, err := w.BuildTransaction(ctx, instructions)
	if err != nil {
		return "", err
	}
	if err := w.SignTx(tx); err != nil {
		return "", err
	}
	return w.SendTx(ctx, tx, opts)
}
