package ledger

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/saldo-labs/akuntansid/internal/storage"
)

const (
	defaultCacheSize = 4096
	// Account records change rarely; a short TTL bounds how long a
	// deactivation can go unnoticed by the ledger process.
	defaultCacheTTL = 30 * time.Second
)

type cachedAccount struct {
	account  *storage.Account
	cachedAt time.Time
}

// accountCache is a read-through LRU in front of the account repository.
// Line validation hits the same handful of accounts on every entry, so
// repeated lookups stay in memory.
type accountCache struct {
	store storage.Manager
	lru   *lru.Cache[string, cachedAccount]
	ttl   time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64

	now func() time.Time
}

func newAccountCache(store storage.Manager, size int, ttl time.Duration) *accountCache {
	c, err := lru.New[string, cachedAccount](size)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &accountCache{store: store, lru: c, ttl: ttl, now: time.Now}
}

func cacheKey(companyID, accountID string) string {
	return companyID + "|" + accountID
}

func (c *accountCache) get(ctx context.Context, companyID, accountID string) (*storage.Account, error) {
	key := cacheKey(companyID, accountID)
	if entry, ok := c.lru.Get(key); ok && c.now().Sub(entry.cachedAt) < c.ttl {
		c.hits.Add(1)
		return entry.account, nil
	}
	c.misses.Add(1)

	account, err := c.store.Accounts().GetAccount(ctx, companyID, accountID)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, cachedAccount{account: account, cachedAt: c.now()})
	return account, nil
}

// invalidate drops one account, used when a caller knows it changed.
func (c *accountCache) invalidate(companyID, accountID string) {
	c.lru.Remove(cacheKey(companyID, accountID))
}
