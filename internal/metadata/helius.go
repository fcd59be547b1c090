package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/observability"
)

// DefaultHeliusBaseURL is the public Helius API host.
const DefaultHeliusBaseURL = "https://api.helius.xyz"

// HeliusSource resolves metadata with the Helius token-metadata endpoint.
type HeliusSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// HeliusOption configures HeliusSource.
type HeliusOption func(*HeliusSource)

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) HeliusOption {
	return func(s *HeliusSource) {
		s.client = client
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) HeliusOption {
	return func(s *HeliusSource) {
		s.client.Timeout = d
	}
}

// NewHeliusSource creates a Helius metadata source. An empty baseURL uses
// DefaultHeliusBaseURL.
func NewHeliusSource(baseURL, apiKey string, opts ...HeliusOption) *HeliusSource {
	if baseURL == "" {
		baseURL = DefaultHeliusBaseURL
	}
	s := &HeliusSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ BatchSource = (*HeliusSource)(nil)

// Name implements Source.
func (s *HeliusSource) Name() string { return "helius" }

// Fetch returns metadata for mint from the first element of the response.
func (s *HeliusSource) Fetch(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	items, err := s.request(ctx, []string{mint})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}

	m, ok := parseHeliusItem(items[0])
	if !ok {
		return nil, ErrNotFound
	}
	m.TokenID = mint
	return m, nil
}

// FetchBatch resolves many mints in one request. Items are matched by their
// account field, or by position when the service omits it.
func (s *HeliusSource) FetchBatch(ctx context.Context, mints []string) (map[string]*domain.TokenMetadata, error) {
	out := make(map[string]*domain.TokenMetadata, len(mints))
	if len(mints) == 0 {
		return out, nil
	}

	items, err := s.request(ctx, mints)
	if err != nil {
		return nil, err
	}

	for i, item := range items {
		m, ok := parseHeliusItem(item)
		if !ok {
			continue
		}
		mint := stringAt(item, "account")
		if mint == "" {
			mint = stringAt(item, "mint")
		}
		if mint == "" && i < len(mints) {
			mint = mints[i]
		}
		if mint == "" {
			continue
		}
		m.TokenID = mint
		out[mint] = m
	}
	return out, nil
}

type heliusRequest struct {
	MintAccounts    []string `json:"mintAccounts"`
	IncludeOffChain bool     `json:"includeOffChain"`
}

// request posts mints and returns the decoded response list. Elements that are
// not JSON objects decode as nil.
func (s *HeliusSource) request(ctx context.Context, mints []string) ([]map[string]interface{}, error) {
	body, err := json.Marshal(heliusRequest{MintAccounts: mints, IncludeOffChain: true})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := s.baseURL + "/v0/token-metadata?api-key=" + url.QueryEscape(s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		observability.RecordExternalCall("helius", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	observability.RecordExternalCall("helius", strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := make([]map[string]interface{}, len(raw))
	for i, r := range raw {
		var obj map[string]interface{}
		if json.Unmarshal(r, &obj) == nil {
			items[i] = obj
		}
	}
	return items, nil
}

// parseHeliusItem extracts name, symbol and decimals from the several shapes
// the service returns. Decimals prefer the flat or legacy field, then the
// parsed on-chain mint account, then 0. Reports false when none is present.
func parseHeliusItem(item map[string]interface{}) (*domain.TokenMetadata, bool) {
	if item == nil {
		return nil, false
	}

	m := &domain.TokenMetadata{
		DisplayName: firstString(item,
			[]string{"name"},
			[]string{"legacyMetadata", "name"},
			[]string{"onChainMetadata", "metadata", "data", "name"},
			[]string{"offChainMetadata", "metadata", "name"},
		),
		Symbol: firstString(item,
			[]string{"symbol"},
			[]string{"legacyMetadata", "symbol"},
			[]string{"onChainMetadata", "metadata", "data", "symbol"},
			[]string{"offChainMetadata", "metadata", "symbol"},
		),
	}

	found := m.DisplayName != "" || m.Symbol != ""
	for _, path := range [][]string{
		{"decimals"},
		{"legacyMetadata", "decimals"},
		{"onChainAccountInfo", "accountInfo", "data", "parsed", "info", "decimals"},
	} {
		if d, ok := decimalsAt(item, path...); ok {
			m.Decimals = d
			found = true
			break
		}
	}
	return m, found
}

// valueAt walks nested objects along path.
func valueAt(obj map[string]interface{}, path ...string) interface{} {
	var cur interface{} = obj
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

func stringAt(obj map[string]interface{}, path ...string) string {
	s, _ := valueAt(obj, path...).(string)
	return cleanString(s)
}

func firstString(obj map[string]interface{}, paths ...[]string) string {
	for _, path := range paths {
		if s := stringAt(obj, path...); s != "" {
			return s
		}
	}
	return ""
}

// decimalsAt reads a mint precision given as a JSON number or numeric string.
// Values outside [0, domain.MaxDecimals] are rejected.
func decimalsAt(obj map[string]interface{}, path ...string) (int, bool) {
	switch v := valueAt(obj, path...).(type) {
	case float64:
		if v >= 0 && v <= domain.MaxDecimals && v == math.Trunc(v) {
			return int(v), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && domain.ValidDecimals(n) {
			return n, true
		}
	}
	return 0, false
}
