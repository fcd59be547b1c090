package pricing

import (
	"context"
	"log"
	"strings"
	"time"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/observability"
	"solana-alerts/internal/storage"
)

// DefaultTimeout bounds each external price lookup.
const DefaultTimeout = 10 * time.Second

// DefaultSymbols maps lower-cased token symbols to CoinGecko price ids.
func DefaultSymbols() map[string]string {
	return map[string]string{
		"sol":  "solana",
		"bonk": "bonk",
		"usdc": "usd-coin",
		"usdt": "tether",
		"eth":  "ethereum",
	}
}

// Source fetches the USD price of an external price id.
type Source interface {
	Name() string
	Price(ctx context.Context, priceID string) (float64, error)
}

// Options configures an Oracle.
type Options struct {
	Source Source

	// Symbols maps lower-cased symbols to price ids. Unmapped symbols are
	// never looked up. Defaults to DefaultSymbols.
	Symbols map[string]string

	// Gate is shared by every oracle that talks to the same price service.
	// A new gate with DefaultMinInterval is created when nil.
	Gate *Gate

	// Cache is shared process state. A new cache is created when nil.
	Cache *Cache

	// Store optionally records every freshly fetched quote.
	Store storage.PriceQuoteStore

	Timeout time.Duration
	Logger  *log.Logger
}

// Oracle resolves symbols to USD prices. A price of 0 means unknown.
type Oracle struct {
	source  Source
	symbols map[string]string
	gate    *Gate
	cache   *Cache
	store   storage.PriceQuoteStore
	timeout time.Duration
	logger  *log.Logger
}

// NewOracle creates an oracle.
func NewOracle(opts Options) *Oracle {
	o := &Oracle{
		source:  opts.Source,
		symbols: make(map[string]string),
		gate:    opts.Gate,
		cache:   opts.Cache,
		store:   opts.Store,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}

	symbols := opts.Symbols
	if symbols == nil {
		symbols = DefaultSymbols()
	}
	for sym, id := range symbols {
		o.symbols[normalizeSymbol(sym)] = id
	}

	if o.gate == nil {
		o.gate = NewGate(DefaultMinInterval, nil)
	}
	if o.cache == nil {
		o.cache = NewCache()
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	return o
}

// Cache returns the oracle's cache.
func (o *Oracle) Cache() *Cache {
	return o.cache
}

// Quote returns the USD price of symbol, or 0 when unknown.
func (o *Oracle) Quote(ctx context.Context, symbol string) float64 {
	q, _ := o.Lookup(ctx, symbol)
	return q.USDPrice
}

// Lookup returns the quote for symbol and whether it is known. Unmapped
// symbols return immediately without touching the gate. Failed and zero
// lookups are not cached.
func (o *Oracle) Lookup(ctx context.Context, symbol string) (domain.PriceQuote, bool) {
	sym := normalizeSymbol(symbol)
	priceID, ok := o.symbols[sym]
	if !ok || o.source == nil {
		observability.RecordPriceLookup("unmapped")
		return domain.PriceQuote{Symbol: sym}, false
	}

	if q, ok := o.cache.Get(sym); ok {
		observability.RecordPriceLookup("hit")
		return q, true
	}

	var (
		quote    = domain.PriceQuote{Symbol: sym, PriceID: priceID}
		hit      bool
		fetchErr error
	)
	err := o.gate.Do(ctx, func() error {
		// Another caller may have filled the cache while we waited.
		if q, ok := o.cache.Get(sym); ok {
			quote, hit = q, true
			return nil
		}
		lookupCtx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()
		quote.USDPrice, fetchErr = o.source.Price(lookupCtx, priceID)
		quote.FetchedAt = time.Now()
		return nil
	})

	switch {
	case err != nil:
		o.logger.Printf("price lookup %s: %v", sym, err)
		observability.RecordPriceLookup("cancelled")
		return domain.PriceQuote{Symbol: sym, PriceID: priceID}, false
	case hit:
		observability.RecordPriceLookup("hit")
		return quote, true
	case fetchErr != nil:
		o.logger.Printf("price lookup %s (%s) via %s: %v", sym, priceID, o.source.Name(), fetchErr)
		observability.RecordPriceLookup("error")
		return domain.PriceQuote{Symbol: sym, PriceID: priceID}, false
	case !quote.Known():
		observability.RecordPriceLookup("zero")
		return domain.PriceQuote{Symbol: sym, PriceID: priceID}, false
	}

	observability.RecordPriceLookup("fetched")
	o.cache.Put(quote)
	if o.store != nil {
		if err := o.store.Insert(ctx, &quote); err != nil {
			o.logger.Printf("price store write %s: %v", sym, err)
		}
	}
	return quote, true
}

func normalizeSymbol(symbol string) string {
	return strings.ToLower(strings.TrimSpace(symbol))
}
