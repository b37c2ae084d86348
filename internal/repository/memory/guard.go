package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Guard provides single-flight locking keyed by string. Acquire is
// atomic: exactly one caller holds a key until Release. Entries carry a
// TTL so a crashed worker cannot wedge a key forever.
type Guard struct {
	cache *cache.Cache
}

func NewGuard(ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Guard{
		cache: cache.New(ttl, ttl/2),
	}
}

// Acquire returns true when the key was free and is now held.
func (g *Guard) Acquire(key string) bool {
	return g.cache.Add(key, struct{}{}, cache.DefaultExpiration) == nil
}

func (g *Guard) Release(key string) {
	g.cache.Delete(key)
}

// Held reports whether the key is currently locked.
func (g *Guard) Held(key string) bool {
	_, found := g.cache.Get(key)
	return found
}
