package address

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCacheSize is the default number of filters a Cached remembers.
const DefaultCacheSize = 64

// Cached wraps a Lookup with an LRU cache of Address results keyed by
// interface filter. Errors are never cached.
type Cached struct {
	*Lookup
	cache *expirable.LRU[string, Address]
}

// NewCached creates a cache of the given size whose entries expire after
// ttl. A zero ttl keeps entries until they are evicted or purged.
func NewCached(l *Lookup, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cached{
		Lookup: l,
		cache:  expirable.NewLRU[string, Address](size, nil, ttl),
	}
}

// Address returns the cached record for filter, looking it up on a miss.
func (c *Cached) Address(ctx context.Context, filter string) (Address, error) {
	if a, ok := c.cache.Get(filter); ok {
		return a, nil
	}
	a, err := c.Lookup.Address(ctx, filter)
	if err != nil {
		return Address{}, err
	}
	c.cache.Add(filter, a)
	return a, nil
}

// Purge drops every cached record.
func (c *Cached) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached records.
func (c *Cached) Len() int {
	return c.cache.Len()
}
