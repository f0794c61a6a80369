package server

import (
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/onesol-trade/internal/currency"
	"github.com/aman-zulfiqar/onesol-trade/internal/route"
)

// Quote prices a single trade without opening a session
// Query parameters: inputMint, outputMint (mint or symbol), amount (human units)
func (h *Handlers) Quote(c echo.Context) error {
	inputMint := strings.TrimSpace(c.QueryParam("inputMint"))
	outputMint := strings.TrimSpace(c.QueryParam("outputMint"))
	amount := strings.TrimSpace(c.QueryParam("amount"))

	if inputMint == "" {
		return h.err(c, http.StatusBadRequest, "invalid inputMint", map[string]any{"inputMint": "required"})
	}
	if outputMint == "" {
		return h.err(c, http.StatusBadRequest, "invalid outputMint", map[string]any{"outputMint": "required"})
	}
	if !currency.IsPositive(amount) {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be a positive number"})
	}

	in, ok := h.Tokens.Resolve(inputMint)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid inputMint", map[string]any{"inputMint": "unknown token"})
	}
	out, ok := h.Tokens.Resolve(outputMint)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid outputMint", map[string]any{"outputMint": "unknown token"})
	}
	if in.Address == out.Address {
		return h.err(c, http.StatusBadRequest, "invalid outputMint", map[string]any{"outputMint": "must differ from inputMint"})
	}

	// Amounts finer than the mint's precision truncate to zero base units
	if units, err := currency.ToBaseUnits(amount, in.Decimals); err != nil || units == 0 {
		return h.err(c, http.StatusBadRequest, "amount below token precision", map[string]any{"amount": amount, "decimals": in.Decimals})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.QuoteTimeout)
	defer cancel()

	pair := currency.NewPair()
	pair.A.SetMint(in.Address, in.Decimals)
	pair.B.SetMint(out.Address, out.Decimals)
	pair.InputChangeA(amount)

	var mu sync.Mutex
	f := route.New(ctx, &mu, pair, route.Config{
		Tokens:    h.Tokens,
		Providers: h.Providers,
		Quoter:    h.Quoter,
		ChainID:   h.ChainID,
		Timeout:   h.QuoteTimeout,
		Logger:    h.logger(),
	})

	mu.Lock()
	issued := f.Refresh()
	mu.Unlock()
	if !issued {
		return h.err(c, http.StatusNotFound, "no pool or market for pair", nil)
	}
	if err := f.Wait(ctx); err != nil {
		return h.err(c, http.StatusGatewayTimeout, "quote timed out", nil)
	}

	mu.Lock()
	st := f.State()
	amountOut := pair.B.Amount
	mu.Unlock()

	if st.LastError != "" || st.Split.Empty() {
		return h.err(c, http.StatusBadGateway, "distribution request failed", map[string]any{"err": st.LastError})
	}
	return c.JSON(http.StatusOK, QuoteResponse{
		InputMint:  in.Address,
		OutputMint: out.Address,
		AmountIn:   amount,
		AmountOut:  amountOut,
		Routes:     st.Routes,
		Split:      st.Split,
	})
}
