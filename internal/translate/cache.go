package translate

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// DefaultCacheTTL bounds how long a cached translation is reused.
const DefaultCacheTTL = 24 * time.Hour

// CachedTranslator memoizes successful translations in an in-process
// ristretto cache. Failures are never cached.
type CachedTranslator struct {
	next  Translator
	cache *ristretto.Cache[string, string]
	ttl   time.Duration
}

// NewCachedTranslator wraps next. maxCostBytes bounds the total size of cached
// translations.
func NewCachedTranslator(next Translator, maxCostBytes int64, ttl time.Duration) (*CachedTranslator, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: max(maxCostBytes/10, 1),
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create translation cache: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedTranslator{next: next, cache: c, ttl: ttl}, nil
}

// Translate returns a cached result or asks the wrapped Translator.
func (c *CachedTranslator) Translate(ctx context.Context, text, target, source string) (string, error) {
	key := cacheKey(text, target, source)
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}

	v, err := c.next.Translate(ctx, text, target, source)
	if err != nil {
		return "", err
	}
	c.cache.SetWithTTL(key, v, int64(len(key)+len(v)), c.ttl)
	return v, nil
}

// Wait blocks until buffered writes are visible to Get.
func (c *CachedTranslator) Wait() {
	c.cache.Wait()
}

// Close releases the cache.
func (c *CachedTranslator) Close() {
	c.cache.Close()
}

func cacheKey(text, target, source string) string {
	return source + "\x00" + target + "\x00" + text
}
