package cache

import (
	"github.com/heraldbot/herald/database"
	"go.uber.org/zap"
)

// Manager binds the cache to the durable store. Every config write, whether
// it comes from a command or from the dashboard, goes through here: the store
// is written first, and the cache is updated only when the write succeeds, so
// the two can never diverge.
type Manager struct {
	db    database.DB
	cache *Cache
	log   *zap.Logger
}

func NewManager(db database.DB, log *zap.Logger) *Manager {
	return &Manager{
		db:    db,
		cache: NewCache(),
		log:   log,
	}
}

// Hydrate loads every stored config into the cache. Guilds with no stored
// record simply get no entry.
func (m *Manager) Hydrate() error {
	logging, err := m.db.GetAllLoggingConfigs()
	if err != nil {
		return err
	}
	for _, gc := range logging {
		m.cache.SetLoggingConfig(gc)
	}

	welcome, err := m.db.GetAllWelcomeConfigs()
	if err != nil {
		return err
	}
	for _, wc := range welcome {
		m.cache.SetWelcomeConfig(wc)
	}

	autoRole, err := m.db.GetAllAutoRoleConfigs()
	if err != nil {
		return err
	}
	for _, ac := range autoRole {
		m.cache.SetAutoRoleConfig(ac)
	}

	m.log.Info("config cache hydrated",
		zap.Int("logging", len(logging)),
		zap.Int("welcome", len(welcome)),
		zap.Int("autorole", len(autoRole)))
	return nil
}

func (m *Manager) LoggingConfig(guildID string) (*database.LoggingConfig, bool) {
	return m.cache.LoggingConfig(guildID)
}

func (m *Manager) WelcomeConfig(guildID string) (*database.WelcomeConfig, bool) {
	return m.cache.WelcomeConfig(guildID)
}

func (m *Manager) AutoRoleConfig(guildID string) (*database.AutoRoleConfig, bool) {
	return m.cache.AutoRoleConfig(guildID)
}

func (m *Manager) SetLoggingConfig(gc *database.LoggingConfig) error {
	stored, err := m.db.UpsertLoggingConfig(gc)
	if err != nil {
		return err
	}
	m.cache.SetLoggingConfig(stored)
	return nil
}

func (m *Manager) SetWelcomeConfig(wc *database.WelcomeConfig) error {
	stored, err := m.db.UpsertWelcomeConfig(wc)
	if err != nil {
		return err
	}
	m.cache.SetWelcomeConfig(stored)
	return nil
}

func (m *Manager) SetAutoRoleConfig(ac *database.AutoRoleConfig) error {
	stored, err := m.db.UpsertAutoRoleConfig(ac)
	if err != nil {
		return err
	}
	m.cache.SetAutoRoleConfig(stored)
	return nil
}

// DeleteGuild removes a guild's configs from store and cache. Extension point
// for a guild-removal flow; nothing in the event path calls it.
func (m *Manager) DeleteGuild(guildID string) error {
	if err := m.db.DeleteGuildData(guildID); err != nil {
		return err
	}
	m.cache.Delete(guildID)
	return nil
}
