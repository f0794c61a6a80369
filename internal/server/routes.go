package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/aman-zulfiqar/onesol-trade/internal/metrics"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = JSONErrorHandler(h.logger(), cfg.DevMode)

	// Apply global middleware
	e.Use(SetNoCacheHeaders) // Prevent caching of API responses

	// Optional API key authentication; health and metrics stay unauthenticated
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key", // Look for API key in X-API-Key header
			Skipper: func(c echo.Context) bool {
				p := c.Path()
				return p == "/v1/health" || p == "/metrics"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil // Simple string comparison
			},
		}))
	}

	// Prometheus scrape endpoint
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Input changes trigger distribution requests, so they share a limiter
	limiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.InputRate), // Sustained input changes per second per client
		Burst:     cfg.InputBurst,            // Allow short typing bursts
		ExpiresIn: 2 * time.Minute,           // Rate limit window
	}))

	// API v1 routes
	v1 := e.Group("/v1", SetJSONContentType)
	v1.GET("/health", h.Health)                     // Health check endpoint
	v1.GET("/tokens", h.ListTokens)                 // Token registry
	v1.GET("/pools", h.ListPools)                   // Token-swap pools
	v1.GET("/markets", h.ListMarkets)               // Order-book markets
	v1.GET("/farms", h.ListFarms)                   // Farms
	v1.GET("/quote", h.Quote, limiter)              // One-off quote
	v1.GET("/settings", h.SettingsGet)              // Slippage settings
	v1.PUT("/settings", h.SettingsUpdate)           // Update slippage
	v1.GET("/notifications", h.RecentNotifications) // Recent notifications
	v1.GET("/trades", h.RecentTrades)               // Confirmed trades

	// Trade page sessions
	tradeGroup := v1.Group("/trade")
	tradeGroup.POST("", h.TradeCreate)                         // Open a session
	tradeGroup.GET("/:id", h.TradeGet)                         // Current view (?wait=true blocks on the quote)
	tradeGroup.DELETE("/:id", h.TradeDelete)                   // Close a session
	tradeGroup.PUT("/:id/mints", h.TradeMints, limiter)        // Select tokens
	tradeGroup.PUT("/:id/input", h.TradeInput, limiter)        // Type an amount
	tradeGroup.POST("/:id/flip", h.TradeFlip, limiter)         // Swap direction
	tradeGroup.POST("/:id/max", h.TradeMax, limiter)           // Max-balance shortcut
	tradeGroup.POST("/:id/accounts", h.TradeAccounts)          // Reload balances
	tradeGroup.POST("/:id/swap", h.TradeSwap)                  // Submit the swap
	tradeGroup.POST("/:id/token-account", h.TradeTokenAccount) // Create destination account

	// Farm page sessions
	farmGroup := v1.Group("/farm")
	farmGroup.POST("/:address", h.FarmCreate)             // Open a session for a farm
	farmGroup.GET("/session/:id", h.FarmGet)              // Current view
	farmGroup.PUT("/session/:id/input", h.FarmInput)      // Type an amount
	farmGroup.POST("/session/:id/max", h.FarmMax)         // Max-balance shortcut
	farmGroup.POST("/session/:id/deposit", h.FarmDeposit) // Deposit

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
