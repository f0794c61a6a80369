package distribution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultURL = "https://api.1sol.io/distribution2"

// Client talks to the remote route-distribution API.
type Client struct {
	URL  string
	HTTP *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	url = strings.TrimSpace(url)
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		URL: url,
		HTTP: &http.Client{
			Timeout: timeout,
		},
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("distribution http %d", e.StatusCode)
	}
	return fmt.Sprintf("distribution http %d: %s", e.StatusCode, b)
}

func (c *Client) Distribution(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.SourceTokenMintKey) == "" {
		return nil, fmt.Errorf("source_token_mint_key is required")
	}
	if strings.TrimSpace(req.DestinationTokenMintKey) == "" {
		return nil, fmt.Errorf("destination_token_mint_key is required")
	}
	if req.AmountIn == 0 {
		return nil, fmt.Errorf("amount_in must be > 0")
	}
	if len(req.Providers) == 0 {
		return nil, fmt.Errorf("providers is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode distribution request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("accept", "application/json")

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode distribution response: %w", err)
	}
	return &out, nil
}
