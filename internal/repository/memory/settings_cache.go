package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"docchat-be/internal/entity"
)

// SettingsCache keeps tenant settings hot so the chat path does not hit
// the database on every request.
type SettingsCache struct {
	cache *cache.Cache
}

func NewSettingsCache() *SettingsCache {
	// 5 minute expiry bounds how stale a settings change can look.
	return &SettingsCache{
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (c *SettingsCache) Get(tenantId uuid.UUID) (*entity.TenantSettings, bool) {
	if x, found := c.cache.Get(tenantId.String()); found {
		return x.(*entity.TenantSettings), true
	}
	return nil, false
}

func (c *SettingsCache) Set(settings *entity.TenantSettings) {
	c.cache.Set(settings.TenantId.String(), settings, cache.DefaultExpiration)
}

func (c *SettingsCache) Invalidate(tenantId uuid.UUID) {
	c.cache.Delete(tenantId.String())
}
