package dex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/onesol-trade/internal/pools"
)

// ErrNoOpenOrders is returned when a market has no open-orders account for the trading wallet.
var ErrNoOpenOrders = errors.New("market has no open orders account configured")

// Side of a Serum order.
type Side uint32

const (
	Bid Side = 0
	Ask Side = 1
)

func (s Side) String() string {
	if s == Ask {
		return "ask"
	}
	return "bid"
}

const (
	instructionNewOrderV3      uint32 = 10
	instructionSettleFunds     uint32 = 5
	selfTradeDecrementTake     uint32 = 0
	orderTypeImmediateOrCancel uint32 = 1

	// DefaultMatchLimit bounds how many resting orders one new order may cross.
	DefaultMatchLimit uint16 = 65535
)

// OrderSide picks the order side for selling inputMint on market: selling the
// base (coin) mint is an ask, selling the quote (pc) mint is a bid.
func OrderSide(market *pools.SerumMarket, inputMint solana.PublicKey) (Side, error) {
	switch {
	case market.BaseMint.Equals(inputMint):
		return Ask, nil
	case market.QuoteMint.Equals(inputMint):
		return Bid, nil
	}
	return 0, fmt.Errorf("input mint %s does not match market %s", inputMint, market.Name)
}

// Order holds the NewOrderV3 parameters in market lots.
type Order struct {
	Side           Side
	LimitPrice     uint64
	MaxCoinQty     uint64
	MaxNativePcQty uint64
	ClientOrderID  uint64
	MatchLimit     uint16
}

// newOrderV3 is the wire layout of the NewOrderV3 instruction data.
type newOrderV3 struct {
	Version           uint8
	Tag               uint32
	Side              uint32
	LimitPrice        uint64
	MaxCoinQty        uint64
	MaxNativePcQty    uint64
	SelfTradeBehavior uint32
	OrderType         uint32
	ClientOrderID     uint64
	Limit             uint16
}

func (o Order) data() ([]byte, error) {
	limit := o.MatchLimit
	if limit == 0 {
		limit = DefaultMatchLimit
	}
	data, err := bin.MarshalBin(&newOrderV3{
		Tag:               instructionNewOrderV3,
		Side:              uint32(o.Side),
		LimitPrice:        o.LimitPrice,
		MaxCoinQty:        o.MaxCoinQty,
		MaxNativePcQty:    o.MaxNativePcQty,
		SelfTradeBehavior: selfTradeDecrementTake,
		OrderType:         orderTypeImmediateOrCancel,
		ClientOrderID:     o.ClientOrderID,
		Limit:             limit,
	})
	if err != nil {
		return nil, fmt.Errorf("encode new order: %w", err)
	}
	return data, nil
}

// BuildNewOrderInstruction builds an immediate-or-cancel NewOrderV3 paid from payer.
func BuildNewOrderInstruction(
	market *pools.SerumMarket,
	order Order,
	owner solana.PublicKey,
	payer solana.PublicKey, // base account for asks, quote account for bids
) (solana.Instruction, error) {
	if market == nil {
		return nil, fmt.Errorf("market cannot be nil")
	}
	if market.OpenOrders == nil {
		return nil, ErrNoOpenOrders
	}
	if order.MaxCoinQty == 0 || order.MaxNativePcQty == 0 {
		return nil, fmt.Errorf("order quantities must be > 0")
	}

	data, err := order.data()
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: market.Market, IsWritable: true},
		{PublicKey: *market.OpenOrders, IsWritable: true},
		{PublicKey: market.RequestQueue, IsWritable: true},
		{PublicKey: market.EventQueue, IsWritable: true},
		{PublicKey: market.Bids, IsWritable: true},
		{PublicKey: market.Asks, IsWritable: true},
		{PublicKey: payer, IsWritable: true},
		{PublicKey: owner, IsSigner: true},
		{PublicKey: market.BaseVault, IsWritable: true},
		{PublicKey: market.QuoteVault, IsWritable: true},
		{PublicKey: solana.TokenProgramID},
		{PublicKey: solana.SysVarRentPubkey},
	}
	return solana.NewInstruction(market.ProgramID, accounts, data), nil
}

// BuildSettleFundsInstruction moves filled proceeds from the open-orders
// account back to the owner's base and quote accounts.
func BuildSettleFundsInstruction(
	market *pools.SerumMarket,
	owner solana.PublicKey,
	baseWallet solana.PublicKey,
	quoteWallet solana.PublicKey,
) (solana.Instruction, error) {
	if market == nil {
		return nil, fmt.Errorf("market cannot be nil")
	}
	if market.OpenOrders == nil {
		return nil, ErrNoOpenOrders
	}

	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteUint8(0); err != nil {
		return nil, err
	}
	if err := enc.WriteUint32(instructionSettleFunds, binary.LittleEndian); err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: market.Market, IsWritable: true},
		{PublicKey: *market.OpenOrders, IsWritable: true},
		{PublicKey: owner, IsSigner: true},
		{PublicKey: market.BaseVault, IsWritable: true},
		{PublicKey: market.QuoteVault, IsWritable: true},
		{PublicKey: baseWallet, IsWritable: true},
		{PublicKey: quoteWallet, IsWritable: true},
		{PublicKey: market.VaultSigner},
		{PublicKey: solana.TokenProgramID},
	}
	return solana.NewInstruction(market.ProgramID, accounts, buf.Bytes()), nil
}
