package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// DB is the durable per-guild configuration store. The event pipeline never
// reads it directly; it is hydrated into the cache at startup and written
// through on every config update.
type DB interface {
	GetConn() *sqlx.DB
	Close() error

	GetLoggingConfig(guildID string) (*LoggingConfig, error)
	UpsertLoggingConfig(gc *LoggingConfig) (*LoggingConfig, error)
	GetAllLoggingConfigs() ([]*LoggingConfig, error)

	GetWelcomeConfig(guildID string) (*WelcomeConfig, error)
	UpsertWelcomeConfig(wc *WelcomeConfig) (*WelcomeConfig, error)
	GetAllWelcomeConfigs() ([]*WelcomeConfig, error)

	GetAutoRoleConfig(guildID string) (*AutoRoleConfig, error)
	UpsertAutoRoleConfig(ac *AutoRoleConfig) (*AutoRoleConfig, error)
	GetAllAutoRoleConfigs() ([]*AutoRoleConfig, error)

	GetChannels(guildID string) ([]*Channel, error)
	UpsertChannels(channels []*Channel) error

	// DeleteGuildData removes every stored record for a guild. Nothing in the
	// event path calls this; it exists for guild-removal cleanup.
	DeleteGuildData(guildID string) error
}

type Config struct {
	Log     *zap.Logger
	ConnStr string
}

// LoggingConfig holds a guild's event-log settings. A false Enabled flag
// suppresses every category regardless of the per-event toggles.
type LoggingConfig struct {
	GuildID          string `json:"guild_id" db:"guild_id"`
	Enabled          bool   `json:"enabled" db:"enabled"`
	LogChannelID     string `json:"log_channel_id" db:"log_channel_id"`
	MessageDeletions bool   `json:"message_deletions" db:"message_deletions"`
	MessageEdits     bool   `json:"message_edits" db:"message_edits"`
	RolesAdded       bool   `json:"roles_added" db:"roles_added"`
	UserBans         bool   `json:"user_bans" db:"user_bans"`
	UserLeaves       bool   `json:"user_leaves" db:"user_leaves"`
}

// WelcomeConfig holds a guild's welcome message and image settings. The
// message may contain the @server and @username tokens.
type WelcomeConfig struct {
	GuildID          string `json:"guild_id" db:"guild_id"`
	Enabled          bool   `json:"enabled" db:"enabled"`
	WelcomeChannelID string `json:"welcome_channel_id" db:"welcome_channel_id"`
	Message          string `json:"message" db:"message"`
	IncludeImage     bool   `json:"include_image" db:"include_image"`
	Background       string `json:"background" db:"background"`
	CustomBackground string `json:"custom_background" db:"custom_background"`
	TextColor        string `json:"text_color" db:"text_color"`
}

// AutoRoleConfig lists the roles granted to every new member.
type AutoRoleConfig struct {
	GuildID string         `json:"guild_id" db:"guild_id"`
	Enabled bool           `json:"enabled" db:"enabled"`
	RoleIDs pq.StringArray `json:"role_ids" db:"role_ids"`
}

// Channel is a cached directory entry for dashboard pickers. Discord's own
// channel list is ground truth; this is refreshed on guild create.
type Channel struct {
	ID      string `json:"id" db:"id"`
	GuildID string `json:"guild_id" db:"guild_id"`
	Name    string `json:"name" db:"name"`
	Type    string `json:"type" db:"type"`
}

const DefaultWelcomeMessage = "Welcome to @server, @username!"

// NewWelcomeConfig returns a disabled welcome config with the stock defaults.
func NewWelcomeConfig(guildID string) *WelcomeConfig {
	return &WelcomeConfig{
		GuildID:      guildID,
		Message:      DefaultWelcomeMessage,
		IncludeImage: true,
		Background:   "default",
		TextColor:    "#FFFFFF",
	}
}
