package trade

import (
	"github.com/aman-zulfiqar/onesol-trade/internal/currency"
	"github.com/aman-zulfiqar/onesol-trade/internal/distribution"
	"github.com/aman-zulfiqar/onesol-trade/internal/route"
)

// LegView is a leg as displayed, with its balance in human units.
type LegView struct {
	currency.Leg
	Symbol  string `json:"symbol"`
	Balance string `json:"balance"`
}

// View is a snapshot of everything the trade form displays.
type View struct {
	A                LegView            `json:"a"`
	B                LegView            `json:"b"`
	Driving          currency.Driving   `json:"driving"`
	LastTypedMint    string             `json:"last_typed_mint,omitempty"`
	Loading          bool               `json:"loading"`
	Routes           []route.Leg        `json:"routes"`
	Split            distribution.Split `json:"split"`
	Pool             string             `json:"pool,omitempty"`
	Market           string             `json:"market,omitempty"`
	PoolNotAvailable bool               `json:"pool_not_available"`
	LastError        string             `json:"last_error,omitempty"`
	Connected        bool               `json:"connected"`
	Pending          bool               `json:"pending"`
	HasTokenAccount  bool               `json:"has_token_account"`
	Label            string             `json:"label"`
	Disabled         bool               `json:"disabled"`
}

func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.fetcher.State()
	a, b := p.pair.A, p.pair.B
	connected := p.cfg.Wallet.Connected()
	pending := p.guard.Pending()
	noRoute := st.Pool == nil && st.Market == nil

	action := SwapLabel
	if noRoute {
		action = PoolNotAvailableLabel(tokenName(p.cfg.Tokens, a.MintAddress), tokenName(p.cfg.Tokens, b.MintAddress))
	}

	v := View{
		A:                p.legView(a),
		B:                p.legView(b),
		Driving:          p.pair.Driving,
		LastTypedMint:    p.pair.LastTypedMint,
		Loading:          st.Loading,
		Routes:           st.Routes,
		Split:            st.Split,
		PoolNotAvailable: noRoute,
		LastError:        st.LastError,
		Connected:        connected,
		Pending:          pending,
		HasTokenAccount:  p.hasTokenAccount,
		Label:            ActionLabel(action, connected, p.cfg.Tokens, &a, &b, true),
	}
	if st.Pool != nil {
		v.Pool = st.Pool.DisplayName()
	}
	if st.Market != nil {
		v.Market = st.Market.DisplayName()
	}
	v.Disabled = connected && (pending ||
		a.Account == nil ||
		b.MintAddress == "" ||
		sameAccount(a.Account, b.Account) ||
		!a.SufficientBalance() ||
		noRoute ||
		st.Split.Empty())
	return v
}

func (p *Page) legView(l currency.Leg) LegView {
	return LegView{
		Leg:     l,
		Symbol:  tokenName(p.cfg.Tokens, l.MintAddress),
		Balance: currency.FormatAmount(l.Balance()),
	}
}

func sameAccount(a, b *currency.TokenAccount) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Address.Equals(b.Address)
}
