package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onesol-trade/internal/dex"
	"github.com/aman-zulfiqar/onesol-trade/internal/farm"
	"github.com/aman-zulfiqar/onesol-trade/internal/history"
	"github.com/aman-zulfiqar/onesol-trade/internal/notify"
	"github.com/aman-zulfiqar/onesol-trade/internal/pools"
	"github.com/aman-zulfiqar/onesol-trade/internal/route"
	"github.com/aman-zulfiqar/onesol-trade/internal/settings"
	"github.com/aman-zulfiqar/onesol-trade/internal/tokens"
	"github.com/aman-zulfiqar/onesol-trade/internal/trade"
)

// WalletInfo reports the server's wallet state
type WalletInfo interface {
	Connected() bool
	Address() string
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Tokens    *tokens.Registry // Token registry (mint -> symbol/decimals)
	Providers *pools.Registry  // Token-swap pools and order-book markets
	Farms     *pools.Farms     // Farm descriptors
	Quoter    route.Quoter     // Distribution API client
	ChainID   int              // Default chain id for quote requests

	Settings      settings.Store // Per-wallet slippage settings
	Notifications notify.Lister  // Recent user notifications (optional)
	History       history.Store  // Confirmed trades (optional)
	Wallet        WalletInfo     // Server wallet

	TradeSessions *trade.Sessions[*trade.Page] // Open trade pages
	FarmSessions  *trade.Sessions[*farm.Page]  // Open farm pages

	NewTradePage func(mintA, mintB string) (*trade.Page, error) // Trade page factory
	NewFarmPage  func(address string) (*farm.Page, error)        // Farm page factory

	QuoteTimeout time.Duration  // Upper bound for waiting on a quote
	SwapTimeout  time.Duration  // Upper bound for submitting a transaction
	DevMode      bool           // Enable detailed error responses in development
	Logger       *logrus.Logger // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) logger() *logrus.Logger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

// parseLimit reads the limit query parameter (default def, range 1-max)
func parseLimit(c echo.Context, def, max int) (int, bool) {
	limitStr := strings.TrimSpace(c.QueryParam("limit"))
	if limitStr == "" {
		return def, true
	}
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	resp := HealthResponse{OK: true}
	if h.Wallet != nil && h.Wallet.Connected() {
		resp.Connected = true
		resp.Wallet = h.Wallet.Address()
	}
	return c.JSON(http.StatusOK, resp)
}

// ListTokens returns the token registry sorted by symbol
func (h *Handlers) ListTokens(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"items": h.Tokens.All()})
}

// ListPools returns the configured token-swap pools
func (h *Handlers) ListPools(c echo.Context) error {
	items := make([]PoolResponse, 0, len(h.Providers.Pools()))
	for _, p := range h.Providers.Pools() {
		items = append(items, PoolResponse{
			Name:    p.Name,
			Address: p.SwapAccount.String(),
			MintA:   p.TokenMintA.String(),
			MintB:   p.TokenMintB.String(),
			FeeBps:  dex.FeeBps(p.FeeNumerator, p.FeeDenominator),
			ChainID: p.ChainID,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// ListMarkets returns the configured order-book markets
func (h *Handlers) ListMarkets(c echo.Context) error {
	items := make([]MarketResponse, 0, len(h.Providers.Markets()))
	for _, m := range h.Providers.Markets() {
		items = append(items, MarketResponse{
			Name:      m.Name,
			Address:   m.Market.String(),
			BaseMint:  m.BaseMint.String(),
			QuoteMint: m.QuoteMint.String(),
			ChainID:   m.ChainID,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// ListFarms returns the configured farms
func (h *Handlers) ListFarms(c echo.Context) error {
	var all []pools.Farm
	if h.Farms != nil {
		all = h.Farms.All()
	}
	items := make([]FarmResponse, 0, len(all))
	for _, f := range all {
		items = append(items, FarmResponse{
			Address: f.Address.String(),
			Name:    f.Name,
			Pool:    f.Pool.String(),
			MintA:   f.MintA.String(),
			MintB:   f.MintB.String(),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// SettingsGet returns the slippage settings of a wallet
// Without a wallet query parameter the default settings are returned
func (h *Handlers) SettingsGet(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Settings.Get(ctx, strings.TrimSpace(c.QueryParam("wallet")))
	if err != nil {
		if errors.Is(err, settings.ErrInvalidWallet) {
			return h.err(c, http.StatusBadRequest, "invalid wallet", map[string]any{"wallet": "invalid format"})
		}
		return h.err(c, http.StatusInternalServerError, "failed to get settings", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// SettingsUpdate sets the slippage tolerance of a wallet
func (h *Handlers) SettingsUpdate(c echo.Context) error {
	var req SettingsUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := settings.ValidateSlippage(req.SlippageBps); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid slippage_bps", map[string]any{"slippage_bps": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Settings.SetSlippage(ctx, strings.TrimSpace(req.Wallet), req.SlippageBps)
	if err != nil {
		if errors.Is(err, settings.ErrInvalidWallet) {
			return h.err(c, http.StatusBadRequest, "invalid wallet", map[string]any{"wallet": "invalid format"})
		}
		return h.err(c, http.StatusInternalServerError, "failed to update settings", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// RecentNotifications returns the latest notifications, newest first
// Accepts wallet and limit query parameters (default: 20, range: 1-100)
func (h *Handlers) RecentNotifications(c echo.Context) error {
	if h.Notifications == nil {
		return h.err(c, http.StatusBadRequest, "notifications are not configured", nil)
	}
	limit, ok := parseLimit(c, 20, 100)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 100"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	items, err := h.Notifications.Recent(ctx, strings.TrimSpace(c.QueryParam("wallet")), limit)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get notifications", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// RecentTrades returns confirmed trades, newest first
// Accepts wallet and limit query parameters (default: 50, range: 1-200)
func (h *Handlers) RecentTrades(c echo.Context) error {
	if h.History == nil {
		return h.err(c, http.StatusBadRequest, "trade history is not configured", nil)
	}
	limit, ok := parseLimit(c, 50, 200)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.History.Recent(ctx, strings.TrimSpace(c.QueryParam("wallet")), limit)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get trades", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}
