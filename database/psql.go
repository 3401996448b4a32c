package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type PsqlDB struct {
	pool    *sqlx.DB
	log     *zap.Logger
	connStr string
}

func NewPSQLDatabase(c *Config) (*PsqlDB, error) {
	db := &PsqlDB{
		log:     c.Log,
		connStr: c.ConnStr,
	}

	pool, err := sqlx.Connect("postgres", db.connStr)
	if err != nil {
		db.log.Error("unable to connect to db", zap.Error(err))
		return nil, err
	}
	db.pool = pool

	if err := db.init(); err != nil {
		db.log.Error("unable to apply schema", zap.Error(err))
		return nil, err
	}

	return db, nil
}

func (p *PsqlDB) init() error {
	for _, schema := range []string{schemaLoggingConfigs, schemaWelcomeConfigs, schemaAutoRoleConfigs, schemaChannels} {
		if _, err := p.pool.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

func (p *PsqlDB) GetConn() *sqlx.DB {
	return p.pool
}

func (p *PsqlDB) Close() error {
	return p.pool.Close()
}

func (p *PsqlDB) GetLoggingConfig(guildID string) (*LoggingConfig, error) {
	var gc LoggingConfig
	err := p.pool.Get(&gc, "SELECT * FROM logging_configs WHERE guild_id=$1;", guildID)
	if err != nil {
		return nil, err
	}
	return &gc, nil
}

func (p *PsqlDB) UpsertLoggingConfig(gc *LoggingConfig) (*LoggingConfig, error) {
	_, err := p.pool.Exec(`
		INSERT INTO logging_configs (guild_id, enabled, log_channel_id, message_deletions, message_edits, roles_added, user_bans, user_leaves)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (guild_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			log_channel_id = EXCLUDED.log_channel_id,
			message_deletions = EXCLUDED.message_deletions,
			message_edits = EXCLUDED.message_edits,
			roles_added = EXCLUDED.roles_added,
			user_bans = EXCLUDED.user_bans,
			user_leaves = EXCLUDED.user_leaves;`,
		gc.GuildID, gc.Enabled, gc.LogChannelID, gc.MessageDeletions, gc.MessageEdits, gc.RolesAdded, gc.UserBans, gc.UserLeaves)
	if err != nil {
		return nil, err
	}
	return gc, nil
}

func (p *PsqlDB) GetAllLoggingConfigs() ([]*LoggingConfig, error) {
	var configs []*LoggingConfig
	err := p.pool.Select(&configs, "SELECT * FROM logging_configs;")
	return configs, err
}

func (p *PsqlDB) GetWelcomeConfig(guildID string) (*WelcomeConfig, error) {
	var wc WelcomeConfig
	err := p.pool.Get(&wc, "SELECT * FROM welcome_configs WHERE guild_id=$1;", guildID)
	if err != nil {
		return nil, err
	}
	return &wc, nil
}

func (p *PsqlDB) UpsertWelcomeConfig(wc *WelcomeConfig) (*WelcomeConfig, error) {
	_, err := p.pool.Exec(`
		INSERT INTO welcome_configs (guild_id, enabled, welcome_channel_id, message, include_image, background, custom_background, text_color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (guild_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			welcome_channel_id = EXCLUDED.welcome_channel_id,
			message = EXCLUDED.message,
			include_image = EXCLUDED.include_image,
			background = EXCLUDED.background,
			custom_background = EXCLUDED.custom_background,
			text_color = EXCLUDED.text_color;`,
		wc.GuildID, wc.Enabled, wc.WelcomeChannelID, wc.Message, wc.IncludeImage, wc.Background, wc.CustomBackground, wc.TextColor)
	if err != nil {
		return nil, err
	}
	return wc, nil
}

func (p *PsqlDB) GetAllWelcomeConfigs() ([]*WelcomeConfig, error) {
	var configs []*WelcomeConfig
	err := p.pool.Select(&configs, "SELECT * FROM welcome_configs;")
	return configs, err
}

func (p *PsqlDB) GetAutoRoleConfig(guildID string) (*AutoRoleConfig, error) {
	var ac AutoRoleConfig
	err := p.pool.Get(&ac, "SELECT * FROM autorole_configs WHERE guild_id=$1;", guildID)
	if err != nil {
		return nil, err
	}
	return &ac, nil
}

func (p *PsqlDB) UpsertAutoRoleConfig(ac *AutoRoleConfig) (*AutoRoleConfig, error) {
	_, err := p.pool.Exec(`
		INSERT INTO autorole_configs (guild_id, enabled, role_ids)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			role_ids = EXCLUDED.role_ids;`,
		ac.GuildID, ac.Enabled, pq.Array(ac.RoleIDs))
	if err != nil {
		return nil, err
	}
	return ac, nil
}

func (p *PsqlDB) GetAllAutoRoleConfigs() ([]*AutoRoleConfig, error) {
	var configs []*AutoRoleConfig
	err := p.pool.Select(&configs, "SELECT * FROM autorole_configs;")
	return configs, err
}

func (p *PsqlDB) GetChannels(guildID string) ([]*Channel, error) {
	var channels []*Channel
	err := p.pool.Select(&channels, "SELECT * FROM channels WHERE guild_id=$1 ORDER BY name;", guildID)
	return channels, err
}

func (p *PsqlDB) UpsertChannels(channels []*Channel) error {
	tx, err := p.pool.Beginx()
	if err != nil {
		return err
	}
	for _, ch := range channels {
		_, err := tx.Exec(`
			INSERT INTO channels (id, guild_id, name, type)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				type = EXCLUDED.type;`,
			ch.ID, ch.GuildID, ch.Name, ch.Type)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (p *PsqlDB) DeleteGuildData(guildID string) error {
	tx, err := p.pool.Beginx()
	if err != nil {
		return err
	}
	for _, q := range []string{
		"DELETE FROM logging_configs WHERE guild_id=$1;",
		"DELETE FROM welcome_configs WHERE guild_id=$1;",
		"DELETE FROM autorole_configs WHERE guild_id=$1;",
		"DELETE FROM channels WHERE guild_id=$1;",
	} {
		if _, err := tx.Exec(q, guildID); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

const schemaLoggingConfigs = `
CREATE TABLE IF NOT EXISTS logging_configs (
	guild_id          TEXT PRIMARY KEY,
	enabled           BOOLEAN NOT NULL DEFAULT FALSE,
	log_channel_id    TEXT NOT NULL DEFAULT '',
	message_deletions BOOLEAN NOT NULL DEFAULT FALSE,
	message_edits     BOOLEAN NOT NULL DEFAULT FALSE,
	roles_added       BOOLEAN NOT NULL DEFAULT FALSE,
	user_bans         BOOLEAN NOT NULL DEFAULT FALSE,
	user_leaves       BOOLEAN NOT NULL DEFAULT FALSE
);
`

const schemaWelcomeConfigs = `
CREATE TABLE IF NOT EXISTS welcome_configs (
	guild_id           TEXT PRIMARY KEY,
	enabled            BOOLEAN NOT NULL DEFAULT FALSE,
	welcome_channel_id TEXT NOT NULL DEFAULT '',
	message            TEXT NOT NULL DEFAULT 'Welcome to @server, @username!',
	include_image      BOOLEAN NOT NULL DEFAULT TRUE,
	background         TEXT NOT NULL DEFAULT 'default',
	custom_background  TEXT NOT NULL DEFAULT '',
	text_color         TEXT NOT NULL DEFAULT '#FFFFFF'
);
`

const schemaAutoRoleConfigs = `
CREATE TABLE IF NOT EXISTS autorole_configs (
	guild_id TEXT PRIMARY KEY,
	enabled  BOOLEAN NOT NULL DEFAULT FALSE,
	role_ids TEXT[] NOT NULL DEFAULT '{}'
);
`

const schemaChannels = `
CREATE TABLE IF NOT EXISTS channels (
	id       TEXT PRIMARY KEY,
	guild_id TEXT NOT NULL,
	name     TEXT NOT NULL,
	type     TEXT NOT NULL
);
`
