package rpc

import "context"

// valueResult unwraps the {context, value} shape most account queries return.
type valueResult[T any] struct {
	Value T `json:"value"`
}

func call[T any](ctx context.Context, c *Client, method string, params []any) (T, error) {
	var out T
	err := c.Do(ctx, method, params, &out)
	return out, err
}

// GetBalance returns the lamport balance of an account.
func (c *Client) GetBalance(ctx context.Context, pubkey, commitment string) (uint64, error) {
	res, err := call[valueResult[uint64]](ctx, c, "getBalance", []any{
		pubkey,
		map[string]any{"commitment": commitment},
	})
	return res.Value, err
}

// AccountExists reports whether getAccountInfo returns a value for pubkey.
func (c *Client) AccountExists(ctx context.Context, pubkey, commitment string) (bool, error) {
	res, err := call[valueResult[any]](ctx, c, "getAccountInfo", []any{
		pubkey,
		map[string]any{"encoding": "base64", "commitment": commitment},
	})
	if err != nil {
		return false, err
	}
	return res.Value != nil, nil
}

// GetTokenAccountsByOwner lists the owner's token accounts under programID.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner, programID, commitment string) ([]ParsedTokenAccount, error) {
	res, err := call[valueResult[[]ParsedTokenAccount]](ctx, c, "getTokenAccountsByOwner", []any{
		owner,
		map[string]any{"programId": programID},
		map[string]any{"encoding": "jsonParsed", "commitment": commitment},
	})
	return res.Value, err
}

func (c *Client) GetLatestBlockhash(ctx context.Context, commitment string) (Blockhash, error) {
	res, err := call[valueResult[Blockhash]](ctx, c, "getLatestBlockhash", []any{
		map[string]any{"commitment": commitment},
	})
	return res.Value, err
}

// SendTransaction submits a base64-encoded signed transaction and returns its signature.
func (c *Client) SendTransaction(ctx context.Context, encoded string, opts SendOptions) (string, error) {
	cfg := map[string]any{
		"encoding":            "base64",
		"skipPreflight":       opts.SkipPreflight,
		"preflightCommitment": opts.PreflightCommitment,
	}
	if opts.MaxRetries != nil {
		cfg["maxRetries"] = *opts.MaxRetries
	}
	return call[string](ctx, c, "sendTransaction", []any{encoded, cfg})
}

func (c *Client) SimulateTransaction(ctx context.Context, encoded, commitment string) (*SimulationValue, error) {
	res, err := call[valueResult[SimulationValue]](ctx, c, "simulateTransaction", []any{
		encoded,
		map[string]any{"encoding": "base64", "commitment": commitment},
	})
	if err != nil {
		return nil, err
	}
	return &res.Value, nil
}

// GetSignatureStatus returns nil when the cluster has not seen the signature yet.
func (c *Client) GetSignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error) {
	res, err := call[valueResult[[]*SignatureStatus]](ctx, c, "getSignatureStatuses", []any{
		[]string{signature},
		map[string]any{"searchTransactionHistory": true},
	})
	if err != nil {
		return nil, err
	}
	if len(res.Value) == 0 {
		return nil, nil
	}
	return res.Value[0], nil
}
