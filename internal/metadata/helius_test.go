package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heliusServer(t *testing.T, status int, body string, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v0/token-metadata", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))

		var req heliusRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.IncludeOffChain)
		assert.NotEmpty(t, req.MintAccounts)

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestHeliusSource_FetchFlatFields(t *testing.T) {
	srv := heliusServer(t, http.StatusOK, `[{"account":"mintA","name":"Alpha","symbol":"ALP","decimals":6}]`, nil)
	defer srv.Close()

	m, err := NewHeliusSource(srv.URL, "test-key").Fetch(context.Background(), "mintA")
	require.NoError(t, err)
	assert.Equal(t, "mintA", m.TokenID)
	assert.Equal(t, "Alpha", m.DisplayName)
	assert.Equal(t, "ALP", m.Symbol)
	assert.Equal(t, 6, m.Decimals)
}

func TestHeliusSource_FetchNestedFields(t *testing.T) {
	body := `[{
		"account": "mintB",
		"onChainAccountInfo": {"accountInfo": {"data": {"parsed": {"info": {"decimals": 5}}}}},
		"onChainMetadata": {"metadata": {"data": {"name": "Bonk\u0000\u0000", "symbol": "Bonk"}}},
		"legacyMetadata": null
	}]`
	srv := heliusServer(t, http.StatusOK, body, nil)
	defer srv.Close()

	m, err := NewHeliusSource(srv.URL, "test-key").Fetch(context.Background(), "mintB")
	require.NoError(t, err)
	assert.Equal(t, "Bonk", m.DisplayName)
	assert.Equal(t, "Bonk", m.Symbol)
	assert.Equal(t, 5, m.Decimals)
}

func TestHeliusSource_LegacyDecimalsWin(t *testing.T) {
	body := `[{
		"legacyMetadata": {"name": "Legacy", "symbol": "LEG", "decimals": 8},
		"onChainAccountInfo": {"accountInfo": {"data": {"parsed": {"info": {"decimals": 2}}}}},
		"offChainMetadata": {"metadata": {"name": "OffChain"}}
	}]`
	srv := heliusServer(t, http.StatusOK, body, nil)
	defer srv.Close()

	m, err := NewHeliusSource(srv.URL, "test-key").Fetch(context.Background(), "mintC")
	require.NoError(t, err)
	assert.Equal(t, "Legacy", m.DisplayName)
	assert.Equal(t, 8, m.Decimals)
}

func TestHeliusSource_OutOfRangeDecimalsSkipped(t *testing.T) {
	body := `[{
		"name": "Huge",
		"symbol": "HUGE",
		"decimals": 4294967301,
		"legacyMetadata": {"decimals": "256"},
		"onChainAccountInfo": {"accountInfo": {"data": {"parsed": {"info": {"decimals": 7}}}}}
	}]`
	srv := heliusServer(t, http.StatusOK, body, nil)
	defer srv.Close()

	m, err := NewHeliusSource(srv.URL, "test-key").Fetch(context.Background(), "mintH")
	require.NoError(t, err)
	assert.Equal(t, 7, m.Decimals)
}

func TestHeliusSource_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"rate limited", http.StatusTooManyRequests, `slow down`},
		{"empty list", http.StatusOK, `[]`},
		{"not a list", http.StatusOK, `{"name":"x"}`},
		{"malformed", http.StatusOK, `[{"name":`},
		{"empty object", http.StatusOK, `[{}]`},
		{"non-object element", http.StatusOK, `["mintA"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := heliusServer(t, tt.status, tt.body, nil)
			defer srv.Close()

			_, err := NewHeliusSource(srv.URL, "test-key").Fetch(context.Background(), "mintA")
			assert.Error(t, err)
		})
	}
}

func TestHeliusSource_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewHeliusSource(srv.URL, "test-key", WithTimeout(20*time.Millisecond)).Fetch(context.Background(), "mintA")
	assert.Error(t, err)
}

func TestHeliusSource_FetchBatch(t *testing.T) {
	var requests atomic.Int32
	body := `[
		{"account": "mintB", "symbol": "B", "decimals": 9},
		{"account": "mintA", "symbol": "A", "decimals": 6},
		{}
	]`
	srv := heliusServer(t, http.StatusOK, body, &requests)
	defer srv.Close()

	got, err := NewHeliusSource(srv.URL, "test-key").FetchBatch(context.Background(), []string{"mintA", "mintB", "mintC"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())
	require.Len(t, got, 2)
	assert.Equal(t, "A", got["mintA"].Symbol)
	assert.Equal(t, 9, got["mintB"].Decimals)
	assert.NotContains(t, got, "mintC")
}

func TestHeliusSource_WithResolver(t *testing.T) {
	var requests atomic.Int32
	srv := heliusServer(t, http.StatusOK, `[{"name":"Alpha","symbol":"ALP","decimals":6}]`, &requests)
	defer srv.Close()

	r := NewResolver(Options{Sources: []Source{NewHeliusSource(srv.URL, "test-key")}, Logger: quietLogger()})
	for i := 0; i < 3; i++ {
		m := r.Resolve(context.Background(), "mintA")
		assert.Equal(t, "ALP", m.Symbol)
	}
	assert.Equal(t, int32(1), requests.Load())
}
