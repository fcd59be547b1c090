// Package pricing resolves token symbols to USD quotes under a shared
// process-wide rate limit.
package pricing

import (
	"sync"

	"solana-alerts/internal/domain"
)

// Cache holds the last known non-zero quote per symbol for the life of the
// process. There is no expiry.
type Cache struct {
	mu     sync.RWMutex
	quotes map[string]domain.PriceQuote
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{quotes: make(map[string]domain.PriceQuote)}
}

// Get returns the cached quote for a lower-cased symbol.
func (c *Cache) Get(symbol string) (domain.PriceQuote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.quotes[symbol]
	return q, ok
}

// Put caches q. Unknown (zero) quotes are ignored.
func (c *Cache) Put(q domain.PriceQuote) {
	if !q.Known() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[q.Symbol] = q
}

// Len returns the number of cached symbols.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.quotes)
}
