package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Quote outcomes.
const (
	QuoteApplied    = "applied"
	QuoteSuperseded = "superseded"
	QuoteFailed     = "failed"
	QuoteSkipped    = "skipped"
)

var (
	QuoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "onesol_quote_requests_total", Help: "Route quote requests by outcome"},
		[]string{"outcome"},
	)
	SwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "onesol_swaps_total", Help: "Swap submissions by outcome"},
		[]string{"outcome"},
	)
	TokenAccountsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "onesol_token_accounts_created_total", Help: "Token account creations by outcome"},
		[]string{"outcome"},
	)
	QuoteLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "onesol_quote_latency_seconds",
		Help:    "Latency of distribution API calls",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(QuoteRequestsTotal, SwapsTotal, TokenAccountsTotal, QuoteLatency)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
