package auth

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TokenCache memoizes successful access-token verifications so the gateway
// and middleware do not recompute HMACs on every request. Failed
// verifications are never cached.
type TokenCache struct {
	// Verified claims keyed by the raw token string.
	byToken *lru.Cache[string, *AccessClaims]

	hits   atomic.Uint64
	misses atomic.Uint64

	now func() time.Time
}

// NewTokenCache creates a cache bounded at size entries.
func NewTokenCache(size int) (*TokenCache, error) {
	if size <= 0 {
		size = 1024
	}

	c, err := lru.New[string, *AccessClaims](size)
	if err != nil {
		return nil, err
	}

	return &TokenCache{byToken: c, now: time.Now}, nil
}

// Get returns cached claims for a token, re-checking expiry so a cached
// entry can never outlive the token itself.
func (c *TokenCache) Get(token string) (*AccessClaims, bool) {
	claims, found := c.byToken.Get(token)
	if found && claims.ExpiresAt != nil && claims.ExpiresAt.After(c.now()) {
		c.hits.Add(1)
		return claims, true
	}

	c.misses.Add(1)
	return nil, false
}

// Put stores verified claims.
func (c *TokenCache) Put(token string, claims *AccessClaims) {
	c.byToken.Add(token, claims)
}

// Remove evicts a token, used on logout.
func (c *TokenCache) Remove(token string) {
	c.byToken.Remove(token)
}

// Stats returns cache performance counters.
func (c *TokenCache) Stats() CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	total := hits + misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{Hits: hits, Misses: misses, HitRate: hitRate, Len: c.byToken.Len()}
}

// CacheStats holds cache performance metrics.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	HitRate float64
	Len     int
}

// CachingVerifier wraps a TokenIssuer with a TokenCache.
type CachingVerifier struct {
	issuer *TokenIssuer
	cache  *TokenCache
}

// NewCachingVerifier builds a verifier that consults the cache first.
func NewCachingVerifier(issuer *TokenIssuer, cacheSize int) (*CachingVerifier, error) {
	cache, err := NewTokenCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return &CachingVerifier{issuer: issuer, cache: cache}, nil
}

// VerifyAccess verifies an access token, serving repeated tokens from cache.
func (v *CachingVerifier) VerifyAccess(token string) (*AccessClaims, error) {
	if claims, ok := v.cache.Get(token); ok {
		return claims, nil
	}

	claims, err := v.issuer.VerifyAccess(token)
	if err != nil {
		return nil, err
	}

	v.cache.Put(token, claims)
	return claims, nil
}

// Stats exposes the underlying cache counters.
func (v *CachingVerifier) Stats() CacheStats {
	return v.cache.Stats()
}
