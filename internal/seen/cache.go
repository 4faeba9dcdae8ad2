package seen

import (
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/WJ4IoT/meshcodec/internal/crypto"
)

const DefaultExpiry = 10 * time.Minute

type entry struct {
	sum digest
	exp time.Time
}

// Cache is an in-memory Ledger. Observations expire after the configured
// window; expired entries are pruned on write.
type Cache struct {
	mu        sync.Mutex
	entries   map[digest]entry
	expiry    time.Duration
	nextPrune time.Time
	now       func() time.Time
}

// New creates a Cache with the given expiry duration.
func New(expiry time.Duration) *Cache {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Cache{
		entries: make(map[digest]entry),
		expiry:  expiry,
		now:     time.Now,
	}
}

// Observe records ciphertext for (key, nonce) and classifies it against
// the previous unexpired observation.
func (c *Cache) Observe(key crypto.Key, nonce crypto.Nonce, ciphertext []byte) (Verdict, error) {
	id := slot(key, nonce)
	sum := digest(blake2b.Sum256(ciphertext))

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.prune(now)

	if e, ok := c.entries[id]; ok && now.Before(e.exp) {
		v := verdict(e.sum, sum)
		if v == Duplicate {
			e.exp = now.Add(c.expiry)
			c.entries[id] = e
		}
		return v, nil
	}
	c.entries[id] = entry{sum: sum, exp: now.Add(c.expiry)}
	return Fresh, nil
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// prune removes expired entries at most twice per window. Callers hold mu.
func (c *Cache) prune(now time.Time) {
	if now.Before(c.nextPrune) {
		return
	}
	for id, e := range c.entries {
		if !now.Before(e.exp) {
			delete(c.entries, id)
		}
	}
	c.nextPrune = now.Add(c.expiry / 2)
}
