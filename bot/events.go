package bot

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/heraldbot/herald/database"
	"github.com/heraldbot/herald/render"
	"go.uber.org/zap"
)

func readyHandler(c *Context, r *discordgo.Ready) {
	statusTimer := time.NewTicker(time.Second * 15)

	go func() {
		// run every 15 seconds
		i := 0
		for range statusTimer.C {
			switch i {
			case 0:
				_ = c.s.UpdateGameStatus(0, "hd.help")
			case 1:
				_ = c.s.UpdateWatchStatus(0, "over your server")
			}

			i = (i + 1) % 2
		}
	}()

	c.b.log.Info("logged in", zap.String("user", r.User.String()))
}

func disconnectHandler(c *Context, _ *discordgo.Disconnect) {
	c.b.log.Info("disconnected")
}

// deliver resolves the target channel and sends the embed. Unresolvable
// channels and send failures are logged and dropped; logging is best-effort.
func deliver(c *Context, guildID, channelID string, embed *discordgo.MessageEmbed) {
	ch, err := c.d.TextChannel(guildID, channelID)
	if err != nil {
		c.b.log.Warn("log channel unresolvable",
			zap.String("guild", guildID), zap.String("channel", channelID))
		return
	}
	if _, err := c.s.ChannelMessageSendEmbed(ch.ID, embed); err != nil {
		c.b.log.Warn("failed to send log message",
			zap.String("guild", guildID), zap.String("channel", channelID), zap.Error(err))
	}
}

func guildCreateHandler(c *Context, g *discordgo.GuildCreate) {
	if len(g.Members) != g.MemberCount {
		_ = c.s.RequestGuildMembers(g.ID, "", 0, "", false)
	} else {
		for _, mem := range g.Members {
			if err := c.b.store.SetMember(mem); err != nil {
				c.b.log.Error("failed to set member", zap.Error(err))
			}
		}
	}

	// refresh the dashboard channel directory
	var channels []*database.Channel
	for _, ch := range g.Channels {
		if ch.Type != discordgo.ChannelTypeGuildText && ch.Type != discordgo.ChannelTypeGuildNews {
			continue
		}
		channels = append(channels, &database.Channel{
			ID:      ch.ID,
			GuildID: g.ID,
			Name:    ch.Name,
			Type:    fmt.Sprint(int(ch.Type)),
		})
	}
	if err := c.b.db.UpsertChannels(channels); err != nil {
		c.b.log.Error("failed to sync channel directory", zap.String("guild", g.ID), zap.Error(err))
	}

	c.b.log.Info("guild available", zap.String("name", g.Name))
}

func guildMembersChunkHandler(c *Context, g *discordgo.GuildMembersChunk) {
	for _, mem := range g.Members {
		if err := c.b.store.SetMember(mem); err != nil {
			c.b.log.Error("failed to set member", zap.Error(err))
		}
	}
}

func guildMemberAddHandler(c *Context, m *discordgo.GuildMemberAdd) {
	if err := c.b.store.SetMember(m.Member); err != nil {
		c.b.log.Error("failed to set member", zap.Error(err))
	}

	g, err := c.d.Guild(m.GuildID)
	if err != nil {
		c.b.log.Warn("guild not in state", zap.String("guild", m.GuildID))
		return
	}

	// welcome and auto-role are independent; either may be disabled
	welcomeNewMember(c, g, m.Member)
	assignAutoRoles(c, g, m.Member)
}

func welcomeNewMember(c *Context, g *discordgo.Guild, m *discordgo.Member) {
	wc, ok := c.b.configs.WelcomeConfig(g.ID)
	if !ok || !wc.Enabled || wc.WelcomeChannelID == "" {
		return
	}

	ch, err := c.d.TextChannel(g.ID, wc.WelcomeChannelID)
	if err != nil {
		c.b.log.Warn("welcome channel unresolvable",
			zap.String("guild", g.ID), zap.String("channel", wc.WelcomeChannelID))
		return
	}

	text := WelcomeText(wc.Message, g.Name, m.User.Username)

	if wc.IncludeImage {
		img, err := c.b.renderer.Render(m.User.Username, g.Name, render.Options{
			Background:   wc.Background,
			CustomSource: wc.CustomBackground,
			TextColor:    wc.TextColor,
		})
		if err == nil {
			_, err = c.s.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
				Content: text,
				Files: []*discordgo.File{{
					Name:   "welcome.png",
					Reader: bytes.NewReader(img),
				}},
			})
			if err != nil {
				c.b.log.Warn("failed to send welcome message", zap.String("guild", g.ID), zap.Error(err))
			}
			return
		}
		// image is an extra; fall through to plain text
		c.b.log.Warn("failed to render welcome image", zap.String("guild", g.ID), zap.Error(err))
	}

	if _, err := c.s.ChannelMessageSend(ch.ID, text); err != nil {
		c.b.log.Warn("failed to send welcome message", zap.String("guild", g.ID), zap.Error(err))
	}
}

func assignAutoRoles(c *Context, g *discordgo.Guild, m *discordgo.Member) {
	ac, ok := c.b.configs.AutoRoleConfig(g.ID)
	if !ok || !ac.Enabled {
		return
	}

	for _, roleID := range ac.RoleIDs {
		if err := c.s.GuildMemberRoleAdd(g.ID, m.User.ID, roleID); err != nil {
			// one bad role must not stop the rest
			c.b.log.Warn("failed to assign role",
				zap.String("guild", g.ID),
				zap.String("user", m.User.ID),
				zap.String("role", roleID),
				zap.Error(err))
		}
	}
}

func guildMemberRemoveHandler(c *Context, m *discordgo.GuildMemberRemove) {
	gc, _ := c.b.configs.LoggingConfig(m.GuildID)

	if loggingEnabled(gc, gc != nil && gc.UserLeaves) {
		var joinedAt time.Time
		if mem, err := c.b.store.GetMember(m.GuildID, m.User.ID); err == nil {
			joinedAt = mem.JoinedAt()
		}

		// a banned member is reported by the ban event, not as a leave
		banned := false
		if _, err := c.s.GuildBan(m.GuildID, m.User.ID); err == nil {
			banned = true
		}

		if embed := FormatLeave(gc, m.User, joinedAt, banned); embed != nil {
			deliver(c, m.GuildID, gc.LogChannelID, embed)
		}
	}

	if err := c.b.store.DeleteMember(m.GuildID, m.User.ID); err != nil {
		c.b.log.Error("failed to delete member", zap.Error(err))
	}
}

func guildMemberUpdateHandler(c *Context, m *discordgo.GuildMemberUpdate) {
	gc, _ := c.b.configs.LoggingConfig(m.GuildID)

	// without a cached copy the old role set is unknown, and reporting every
	// current role as newly added would be wrong
	if old, err := c.b.store.GetMember(m.GuildID, m.User.ID); err == nil && old.Member != nil {
		if embed := FormatRolesAdded(gc, m.User, old.Member.Roles, m.Roles); embed != nil {
			deliver(c, m.GuildID, gc.LogChannelID, embed)
		}
	}

	if err := c.b.store.SetMember(m.Member); err != nil {
		c.b.log.Error("failed to update member", zap.Error(err))
	}
}

func guildBanAddHandler(c *Context, m *discordgo.GuildBanAdd) {
	gc, _ := c.b.configs.LoggingConfig(m.GuildID)

	reason := ""
	if ban, err := c.s.GuildBan(m.GuildID, m.User.ID); err == nil {
		reason = ban.Reason
	}

	if embed := FormatBan(gc, m.User, reason); embed != nil {
		deliver(c, m.GuildID, gc.LogChannelID, embed)
	}
}

func messageCreateHandler(c *Context, m *discordgo.MessageCreate) {
	if m.Author == nil || m.GuildID == "" {
		return
	}

	if !m.Author.Bot {
		if err := c.b.store.SetMessage(m.Message); err != nil {
			c.b.log.Error("failed to set message", zap.Error(err))
		}
	}

	handleCommand(c, m)
}

func messageUpdateHandler(c *Context, m *discordgo.MessageUpdate) {
	if m.GuildID == "" {
		return
	}
	// embed and attachment updates arrive with empty content; the stored text
	// must survive them so a later edit or delete still has it
	if m.Content == "" {
		return
	}

	gc, _ := c.b.configs.LoggingConfig(m.GuildID)

	old, err := c.b.store.GetMessage(m.GuildID, m.ChannelID, m.ID)
	if err != nil {
		return
	}

	if embed := FormatMessageEdit(gc, old.Message, m.Message); embed != nil {
		deliver(c, m.GuildID, gc.LogChannelID, embed)
	}

	old.Message.Content = m.Content
	if err := c.b.store.SetMessage(old.Message); err != nil {
		c.b.log.Error("failed to update message", zap.Error(err))
	}
}

func messageDeleteHandler(c *Context, m *discordgo.MessageDelete) {
	if m.GuildID == "" {
		return
	}

	gc, _ := c.b.configs.LoggingConfig(m.GuildID)

	msg, err := c.b.store.GetMessage(m.GuildID, m.ChannelID, m.ID)
	if err != nil {
		return
	}

	if embed := FormatMessageDelete(gc, msg.Message); embed != nil {
		deliver(c, m.GuildID, gc.LogChannelID, embed)
	}
}
