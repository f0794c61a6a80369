package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/onesol-trade/internal/currency"
	"github.com/aman-zulfiqar/onesol-trade/internal/farm"
	"github.com/aman-zulfiqar/onesol-trade/internal/swap"
	"github.com/aman-zulfiqar/onesol-trade/internal/trade"
	"github.com/aman-zulfiqar/onesol-trade/internal/wallet"
)

// validAmount accepts an empty field or a non-negative decimal
func validAmount(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	d, ok := currency.ParseAmount(s)
	return ok && !d.IsNegative()
}

// wantWait reports whether the caller asked to block until the quote settles
func wantWait(c echo.Context) bool {
	b, _ := strconv.ParseBool(c.QueryParam("wait"))
	return b
}

func (h *Handlers) tradeNotFound(c echo.Context) error {
	return h.err(c, http.StatusNotFound, "trade session not found", nil)
}

// tradeView optionally waits for the quote in flight, then renders the view
func (h *Handlers) tradeView(c echo.Context, id string, page *trade.Page) error {
	if wantWait(c) {
		ctx, cancel := h.withTimeout(c.Request().Context(), h.QuoteTimeout)
		defer cancel()
		if err := page.Wait(ctx); err != nil {
			h.logger().WithError(err).WithField("session", id).Debug("quote still pending")
		}
	}
	return c.JSON(http.StatusOK, TradeSessionResponse{ID: id, View: page.View()})
}

// TradeCreate opens a trade session with optional initial mints
func (h *Handlers) TradeCreate(c echo.Context) error {
	var req TradeCreateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	page, err := h.NewTradePage(strings.TrimSpace(req.MintA), strings.TrimSpace(req.MintB))
	if err != nil {
		if errors.Is(err, trade.ErrUnknownMint) {
			return h.err(c, http.StatusBadRequest, "unknown mint", map[string]any{"err": err.Error()})
		}
		return h.err(c, http.StatusInternalServerError, "failed to open trade session", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := page.RefreshAccounts(ctx); err != nil {
		h.logger().WithError(err).Warn("failed to load token accounts for new trade session")
	}

	id := h.TradeSessions.Add(page)
	return c.JSON(http.StatusCreated, TradeSessionResponse{ID: id, View: page.View()})
}

// TradeGet returns the current view of a trade session
func (h *Handlers) TradeGet(c echo.Context) error {
	page, ok := h.TradeSessions.Get(c.Param("id"))
	if !ok {
		return h.tradeNotFound(c)
	}
	return h.tradeView(c, c.Param("id"), page)
}

// TradeDelete closes a trade session
// Returns 204 No Content on success
func (h *Handlers) TradeDelete(c echo.Context) error {
	if !h.TradeSessions.Delete(c.Param("id")) {
		return h.tradeNotFound(c)
	}
	return c.NoContent(http.StatusNoContent)
}

// TradeMints selects the source and/or destination token
func (h *Handlers) TradeMints(c echo.Context) error {
	page, ok := h.TradeSessions.Get(c.Param("id"))
	if !ok {
		return h.tradeNotFound(c)
	}
	var req TradeMintsRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if req.MintA == "" && req.MintB == "" {
		return h.err(c, http.StatusBadRequest, "mint_a or mint_b is required", nil)
	}

	if req.MintA != "" {
		if err := page.SelectMintA(strings.TrimSpace(req.MintA)); err != nil {
			return h.err(c, http.StatusBadRequest, "unknown mint", map[string]any{"mint_a": err.Error()})
		}
	}
	if req.MintB != "" {
		if err := page.SelectMintB(strings.TrimSpace(req.MintB)); err != nil {
			return h.err(c, http.StatusBadRequest, "unknown mint", map[string]any{"mint_b": err.Error()})
		}
	}
	return h.tradeView(c, c.Param("id"), page)
}

// TradeInput applies a value typed into leg a or b
func (h *Handlers) TradeInput(c echo.Context) error {
	page, ok := h.TradeSessions.Get(c.Param("id"))
	if !ok {
		return h.tradeNotFound(c)
	}
	var req InputRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if !validAmount(req.Amount) {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be a non-negative number"})
	}

	switch strings.ToLower(strings.TrimSpace(req.Side)) {
	case "", "a":
		page.InputA(req.Amount)
	case "b":
		page.InputB(req.Amount)
	default:
		return h.err(c, http.StatusBadRequest, "invalid side", map[string]any{"side": "must be a or b"})
	}
	return h.tradeView(c, c.Param("id"), page)
}

// TradeFlip swaps the two legs
func (h *Handlers) TradeFlip(c echo.Context) error {
	page, ok := h.TradeSessions.Get(c.Param("id"))
	if !ok {
		return h.tradeNotFound(c)
	}
	page.Flip()
	return h.tradeView(c, c.Param("id"), page)
}

// TradeMax fills leg a with its usable balance
func (h *Handlers) TradeMax(c echo.Context) error {
	page, ok := h.TradeSessions.Get(c.Param("id"))
	if !ok {
		return h.tradeNotFound(c)
	}
	page.MaxA()
	return h.tradeView(c, c.Param("id"), page)
}

// TradeAccounts reloads wallet balances for the session
func (h *Handlers) TradeAccounts(c echo.Context) error {
	page, ok := h.TradeSessions.Get(c.Param("id"))
	if !ok {
		return h.tradeNotFound(c)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	if err := page.RefreshAccounts(ctx); err != nil {
		return h.err(c, http.StatusBadGateway, "failed to load token accounts", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, TradeSessionResponse{ID: c.Param("id"), View: page.View()})
}

// actionError maps trade action errors to responses
func (h *Handlers) actionError(c echo.Context, msg string, err error) error {
	switch {
	case errors.Is(err, wallet.ErrNotConnected):
		return h.err(c, http.StatusBadRequest, "wallet not connected", nil)
	case errors.Is(err, trade.ErrNotReady):
		return h.err(c, http.StatusBadRequest, "trade is not ready", nil)
	case errors.Is(err, swap.ErrPending):
		return h.err(c, http.StatusConflict, "another transaction is pending", nil)
	case errors.Is(err, swap.ErrAccountExists):
		return h.err(c, http.StatusConflict, "token account already exists", nil)
	case errors.Is(err, context.DeadlineExceeded):
		return h.err(c, http.StatusGatewayTimeout, msg, map[string]any{"err": err.Error()})
	default:
		return h.err(c, http.StatusBadGateway, msg, map[string]any{"err": err.Error()})
	}
}

// TradeSwap submits the session's current route
func (h *Handlers) TradeSwap(c echo.Context) error {
	page, ok := h.TradeSessions.Get(c.Param("id"))
	if !ok {
		return h.tradeNotFound(c)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.SwapTimeout)
	defer cancel()

	res, err := page.HandleSwap(ctx)
	if err != nil {
		return h.actionError(c, "swap failed", err)
	}
	return c.JSON(http.StatusOK, TradeSwapResponse{Result: res, View: page.View()})
}

// TradeTokenAccount creates the wallet's account for the destination mint
func (h *Handlers) TradeTokenAccount(c echo.Context) error {
	page, ok := h.TradeSessions.Get(c.Param("id"))
	if !ok {
		return h.tradeNotFound(c)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.SwapTimeout)
	defer cancel()

	sig, err := page.HandleCreateTokenAccount(ctx)
	if err != nil {
		return h.actionError(c, "create token account failed", err)
	}
	return c.JSON(http.StatusCreated, TokenAccountResponse{Signature: sig, View: page.View()})
}

func (h *Handlers) farmNotFound(c echo.Context) error {
	return h.err(c, http.StatusNotFound, "farm session not found", nil)
}

// FarmCreate opens a deposit session for the farm at :address
func (h *Handlers) FarmCreate(c echo.Context) error {
	page, err := h.NewFarmPage(strings.TrimSpace(c.Param("address")))
	if err != nil {
		if errors.Is(err, farm.ErrFarmNotFound) {
			return h.err(c, http.StatusNotFound, "farm not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to open farm session", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := page.RefreshAccounts(ctx); err != nil {
		h.logger().WithError(err).Warn("failed to load token accounts for new farm session")
	}

	id := h.FarmSessions.Add(page)
	return c.JSON(http.StatusCreated, FarmSessionResponse{ID: id, View: page.View()})
}

// FarmGet returns the current view of a farm session
func (h *Handlers) FarmGet(c echo.Context) error {
	page, ok := h.FarmSessions.Get(c.Param("id"))
	if !ok {
		return h.farmNotFound(c)
	}
	return c.JSON(http.StatusOK, FarmSessionResponse{ID: c.Param("id"), View: page.View()})
}

// FarmInput applies a value typed into the base or quote leg
func (h *Handlers) FarmInput(c echo.Context) error {
	page, ok := h.FarmSessions.Get(c.Param("id"))
	if !ok {
		return h.farmNotFound(c)
	}
	var req InputRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if !validAmount(req.Amount) {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be a non-negative number"})
	}

	switch strings.ToLower(strings.TrimSpace(req.Side)) {
	case "base":
		page.InputBase(req.Amount)
	case "quote":
		page.InputQuote(req.Amount)
	default:
		return h.err(c, http.StatusBadRequest, "invalid side", map[string]any{"side": "must be base or quote"})
	}
	return c.JSON(http.StatusOK, FarmSessionResponse{ID: c.Param("id"), View: page.View()})
}

// FarmMax fills the base or quote leg with its usable balance
func (h *Handlers) FarmMax(c echo.Context) error {
	page, ok := h.FarmSessions.Get(c.Param("id"))
	if !ok {
		return h.farmNotFound(c)
	}
	var req MaxRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	switch strings.ToLower(strings.TrimSpace(req.Side)) {
	case "base":
		page.MaxBase()
	case "quote":
		page.MaxQuote()
	default:
		return h.err(c, http.StatusBadRequest, "invalid side", map[string]any{"side": "must be base or quote"})
	}
	return c.JSON(http.StatusOK, FarmSessionResponse{ID: c.Param("id"), View: page.View()})
}

// FarmDeposit submits the deposit form
func (h *Handlers) FarmDeposit(c echo.Context) error {
	page, ok := h.FarmSessions.Get(c.Param("id"))
	if !ok {
		return h.farmNotFound(c)
	}
	if err := page.Deposit(c.Request().Context()); err != nil {
		switch {
		case errors.Is(err, wallet.ErrNotConnected):
			return h.err(c, http.StatusBadRequest, "wallet not connected", nil)
		case errors.Is(err, farm.ErrDepositUnavailable):
			return h.err(c, http.StatusNotImplemented, "deposits are not available", nil)
		default:
			return h.err(c, http.StatusBadGateway, "deposit failed", map[string]any{"err": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, FarmSessionResponse{ID: c.Param("id"), View: page.View()})
}
