package rpc

import "fmt"

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// TokenAmount represents token balance information
type TokenAmount struct {
	Amount         string  `json:"amount"`
	Decimals       int     `json:"decimals"`
	UIAmountString string  `json:"uiAmountString"`
	UIAmount       float64 `json:"uiAmount"`
}

// ParsedTokenAccount is one entry of a jsonParsed getTokenAccountsByOwner result.
type ParsedTokenAccount struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Data struct {
			Parsed struct {
				Info struct {
					Mint        string      `json:"mint"`
					Owner       string      `json:"owner"`
					State       string      `json:"state"`
					IsNative    bool        `json:"isNative"`
					TokenAmount TokenAmount `json:"tokenAmount"`
				} `json:"info"`
				Type string `json:"type"`
			} `json:"parsed"`
			Program string `json:"program"`
		} `json:"data"`
		Lamports uint64 `json:"lamports"`
		Owner    string `json:"owner"`
	} `json:"account"`
}

func (a *ParsedTokenAccount) Mint() string { return a.Account.Data.Parsed.Info.Mint }

func (a *ParsedTokenAccount) Amount() TokenAmount { return a.Account.Data.Parsed.Info.TokenAmount }

// Blockhash is the value of getLatestBlockhash.
type Blockhash struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// SignatureStatus is one entry of getSignatureStatuses.
type SignatureStatus struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *int        `json:"confirmations"`
	Err                any `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

// SimulationValue is the value of simulateTransaction.
type SimulationValue struct {
	Err           any `json:"err"`
	Logs          []string    `json:"logs"`
	UnitsConsumed uint64      `json:"unitsConsumed,omitempty"`
}

// SendOptions configures sendTransaction.
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
	MaxRetries          *int
}
