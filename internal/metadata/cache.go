// Package metadata resolves token mints to display metadata.
package metadata

import (
	"sync"

	"solana-alerts/internal/domain"
)

// Cache maps token ids to resolved metadata for the life of the process.
// Entries are never evicted.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]domain.TokenMetadata
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]domain.TokenMetadata)}
}

// Get returns the cached metadata for tokenID.
func (c *Cache) Get(tokenID string) (domain.TokenMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[tokenID]
	return m, ok
}

// Put stores m under its TokenID, replacing any earlier entry.
func (c *Cache) Put(m domain.TokenMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[m.TokenID] = m
}

// Len returns the number of cached tokens.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
