package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"solana-alerts/internal/observability"
)

// DefaultCoinGeckoBaseURL is the public CoinGecko API host.
const DefaultCoinGeckoBaseURL = "https://api.coingecko.com"

var (
	// ErrRateLimited is returned when the price service answers 429.
	ErrRateLimited = errors.New("price service rate limited")

	// ErrNoPrice is returned when the response carries no USD price for the id.
	ErrNoPrice = errors.New("no usd price in response")
)

// CoinGeckoSource fetches spot prices from the CoinGecko simple price API.
type CoinGeckoSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// CoinGeckoOption configures CoinGeckoSource.
type CoinGeckoOption func(*CoinGeckoSource)

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) CoinGeckoOption {
	return func(s *CoinGeckoSource) {
		s.client = client
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) CoinGeckoOption {
	return func(s *CoinGeckoSource) {
		s.client.Timeout = d
	}
}

// NewCoinGeckoSource creates a price source. apiKey is optional and sent as
// the demo API key header when set.
func NewCoinGeckoSource(baseURL, apiKey string, opts ...CoinGeckoOption) *CoinGeckoSource {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoBaseURL
	}
	s := &CoinGeckoSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Source = (*CoinGeckoSource)(nil)

// Name implements Source.
func (s *CoinGeckoSource) Name() string { return "coingecko" }

// Price implements Source.
func (s *CoinGeckoSource) Price(ctx context.Context, priceID string) (float64, error) {
	q := url.Values{}
	q.Set("ids", priceID)
	q.Set("vs_currencies", "usd")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/v3/simple/price?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", s.apiKey)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		observability.RecordExternalCall("coingecko", "error", time.Since(start).Seconds())
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	observability.RecordExternalCall("coingecko", strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload map[string]map[string]json.Number
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	raw, ok := payload[priceID]["usd"]
	if !ok {
		return 0, ErrNoPrice
	}
	price, err := raw.Float64()
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", raw, err)
	}
	return price, nil
}
