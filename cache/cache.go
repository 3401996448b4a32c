package cache

import (
	"sync"

	"github.com/heraldbot/herald/database"
)

// Cache is the in-process copy of every guild's configuration. It is the
// single source of truth for dispatch decisions; the durable store is only
// read at hydration time. A missing entry means the feature is disabled for
// that guild.
type Cache struct {
	mu       sync.RWMutex
	logging  map[string]*database.LoggingConfig
	welcome  map[string]*database.WelcomeConfig
	autoRole map[string]*database.AutoRoleConfig
}

func NewCache() *Cache {
	return &Cache{
		logging:  make(map[string]*database.LoggingConfig),
		welcome:  make(map[string]*database.WelcomeConfig),
		autoRole: make(map[string]*database.AutoRoleConfig),
	}
}

func (c *Cache) LoggingConfig(guildID string) (*database.LoggingConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gc, ok := c.logging[guildID]
	return gc, ok
}

func (c *Cache) SetLoggingConfig(gc *database.LoggingConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logging[gc.GuildID] = gc
}

func (c *Cache) WelcomeConfig(guildID string) (*database.WelcomeConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	wc, ok := c.welcome[guildID]
	return wc, ok
}

func (c *Cache) SetWelcomeConfig(wc *database.WelcomeConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.welcome[wc.GuildID] = wc
}

func (c *Cache) AutoRoleConfig(guildID string) (*database.AutoRoleConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ac, ok := c.autoRole[guildID]
	return ac, ok
}

func (c *Cache) SetAutoRoleConfig(ac *database.AutoRoleConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoRole[ac.GuildID] = ac
}

// Delete drops every cached config for a guild.
func (c *Cache) Delete(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.logging, guildID)
	delete(c.welcome, guildID)
	delete(c.autoRole, guildID)
}
