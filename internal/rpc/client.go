package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Client speaks Solana JSON-RPC over HTTP. Transport failures, 429 and 5xx
// responses are retried with exponential backoff. Errors reported inside the
// JSON-RPC envelope are returned as *RPCError without retrying.
type Client struct {
	http     *http.Client
	endpoint string
	attempts int
	backoff  time.Duration
	nextID   atomic.Uint64
	log      *logrus.Entry
}

type ClientConfig struct {
	Endpoint     string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *logrus.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		endpoint: cfg.Endpoint,
		attempts: cfg.MaxRetries + 1,
		backoff:  cfg.RetryBackoff,
		log:      cfg.Logger.WithField("component", "rpc"),
	}
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// statusError is a non-200 HTTP answer from the node.
type statusError struct {
	code       int
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	if e.code == http.StatusTooManyRequests {
		return "rate limited (429)"
	}
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= http.StatusInternalServerError
	}
	return true
}

// Do invokes method and decodes the envelope's result into out. out may be
// nil when the caller only cares about success.
func (c *Client) Do(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", method, err)
	}

	raw, err := c.post(ctx, method, body)
	if err != nil {
		return fmt.Errorf("%s RPC failed: %w", method, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s: decode envelope: %w", method, err)
	}
	if env.Error != nil {
		return fmt.Errorf("%s: %w", method, env.Error)
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

// post sends body until it gets a 200 or runs out of attempts.
func (c *Client) post(ctx context.Context, method string, body []byte) ([]byte, error) {
	var lastErr error
	wait := c.backoff

	for attempt := 1; attempt <= c.attempts; attempt++ {
		raw, err := c.roundTrip(ctx, body)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
		if attempt == c.attempts {
			break
		}

		delay := wait
		var se *statusError
		if errors.As(err, &se) && se.retryAfter > delay {
			delay = se.retryAfter
		}
		c.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"backoff": delay,
			"method":  method,
		}).WithError(err).Debug("retrying RPC call")

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) roundTrip(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		se := &statusError{code: resp.StatusCode}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			se.retryAfter = time.Duration(secs) * time.Second
		}
		return nil, se
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return raw, nil
}
