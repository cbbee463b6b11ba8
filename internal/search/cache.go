package search

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedClient layers a TTL cache over a search client so that a
// re-issued query within the window does not burn another API call.
type CachedClient struct {
	inner Client
	cache *gocache.Cache
}

// NewCachedClient wraps inner with a cache whose entries expire after
// ttl.
func NewCachedClient(inner Client, ttl time.Duration) *CachedClient {
	return &CachedClient{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func cacheKey(query string, maxResults int) string {
	return fmt.Sprintf("%d|%s", maxResults, query)
}

// Search serves from cache when possible and delegates otherwise.
// Errors are never cached.
func (c *CachedClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	key := cacheKey(query, maxResults)
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]Result), nil
	}

	results, err := c.inner.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, results, gocache.DefaultExpiration)
	return results, nil
}
