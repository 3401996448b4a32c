package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/heraldbot/herald/database"
	"go.uber.org/zap"
)

// handleCommand runs the admin prefix commands. They write through the same
// config manager as the dashboard, so cache and store always move together.
func handleCommand(c *Context, m *discordgo.MessageCreate) {
	if !strings.HasPrefix(m.Content, "hd.") {
		return
	}

	ch, err := c.d.Channel(m.ChannelID)
	if err != nil {
		return
	}

	args := strings.Split(m.Content, " ")

	if args[0] == "hd.help" {
		text := strings.Builder{}
		text.WriteString("`hd.log <channel|off>` - log deleted/edited messages, role grants, bans and leaves to a channel\n")
		text.WriteString("`hd.welcome <channel|off>` - welcome new members in a channel\n")
		text.WriteString("`hd.autorole add <role>` - grant a role to new members\n")
		text.WriteString("`hd.autorole remove <role>` - stop granting a role\n")
		text.WriteString("`hd.autorole list` - show granted roles\n")
		text.WriteString("`hd.autorole off` - disable auto-roles\n")
		text.WriteString("\n")
		text.WriteString("Example - hd.log #mod-logs\n")
		text.WriteString("Example - hd.welcome 1234123412341234\n")
		_, _ = c.s.ChannelMessageSend(ch.ID, text.String())
		return
	}

	uperms, err := c.d.UserChannelPermissions(m.Author.ID, ch.ID)
	if err != nil {
		return
	}
	if uperms&discordgo.PermissionAdministrator == 0 {
		_, _ = c.s.ChannelMessageSend(ch.ID, "This is admin only, sorry!")
		return
	}

	switch args[0] {
	case "hd.log":
		logCommand(c, m, ch, args[1:])
	case "hd.welcome":
		welcomeCommand(c, m, ch, args[1:])
	case "hd.autorole":
		autoRoleCommand(c, m, ch, args[1:])
	}
}

// resolveChannelArg turns a channel mention or id into a channel in the same
// guild, defaulting to the channel the command came from.
func resolveChannelArg(c *Context, current *discordgo.Channel, args []string) *discordgo.Channel {
	if len(args) == 0 {
		return current
	}
	target, err := c.d.Channel(TrimChannelString(args[0]))
	if err != nil || target.GuildID != current.GuildID {
		return nil
	}
	return target
}

func logCommand(c *Context, m *discordgo.MessageCreate, ch *discordgo.Channel, args []string) {
	gc, ok := c.b.configs.LoggingConfig(m.GuildID)
	if !ok {
		gc = &database.LoggingConfig{GuildID: m.GuildID}
	}

	if len(args) > 0 && strings.ToLower(args[0]) == "off" {
		gc.Enabled = false
	} else {
		target := resolveChannelArg(c, ch, args)
		if target == nil {
			_, _ = c.s.ChannelMessageSend(ch.ID, "I don't know that channel.")
			return
		}
		gc.Enabled = true
		gc.LogChannelID = target.ID
		gc.MessageDeletions = true
		gc.MessageEdits = true
		gc.RolesAdded = true
		gc.UserBans = true
		gc.UserLeaves = true
	}

	if err := c.b.configs.SetLoggingConfig(gc); err != nil {
		c.b.log.Error("failed to update logging config", zap.Error(err))
		_, _ = c.s.ChannelMessageSend(ch.ID, "Could not update config")
		return
	}
	_, _ = c.s.ChannelMessageSend(ch.ID, "Updated config")
}

func welcomeCommand(c *Context, m *discordgo.MessageCreate, ch *discordgo.Channel, args []string) {
	wc, ok := c.b.configs.WelcomeConfig(m.GuildID)
	if !ok {
		wc = database.NewWelcomeConfig(m.GuildID)
	}

	if len(args) > 0 && strings.ToLower(args[0]) == "off" {
		wc.Enabled = false
	} else {
		target := resolveChannelArg(c, ch, args)
		if target == nil {
			_, _ = c.s.ChannelMessageSend(ch.ID, "I don't know that channel.")
			return
		}
		wc.Enabled = true
		wc.WelcomeChannelID = target.ID
	}

	if err := c.b.configs.SetWelcomeConfig(wc); err != nil {
		c.b.log.Error("failed to update welcome config", zap.Error(err))
		_, _ = c.s.ChannelMessageSend(ch.ID, "Could not update config")
		return
	}
	_, _ = c.s.ChannelMessageSend(ch.ID, "Updated config")
}

func autoRoleCommand(c *Context, m *discordgo.MessageCreate, ch *discordgo.Channel, args []string) {
	ac, ok := c.b.configs.AutoRoleConfig(m.GuildID)
	if !ok {
		ac = &database.AutoRoleConfig{GuildID: m.GuildID}
	}

	if len(args) == 0 {
		args = []string{"list"}
	}

	switch strings.ToLower(args[0]) {
	case "list":
		if len(ac.RoleIDs) == 0 {
			_, _ = c.s.ChannelMessageSend(ch.ID, "No auto-roles configured.")
			return
		}
		mentions := make([]string, 0, len(ac.RoleIDs))
		for _, r := range ac.RoleIDs {
			mentions = append(mentions, "<@&"+r+">")
		}
		_, _ = c.s.ChannelMessageSend(ch.ID, "Auto-roles: "+strings.Join(mentions, ", "))
		return
	case "off":
		ac.Enabled = false
	case "add":
		if len(args) < 2 {
			return
		}
		role, err := c.d.Role(m.GuildID, TrimRoleString(args[1]))
		if err != nil {
			_, _ = c.s.ChannelMessageSend(ch.ID, "I don't know that role.")
			return
		}
		for _, r := range ac.RoleIDs {
			if r == role.ID {
				_, _ = c.s.ChannelMessageSend(ch.ID, "That role is already added.")
				return
			}
		}
		ac.RoleIDs = append(ac.RoleIDs, role.ID)
		ac.Enabled = true
	case "remove":
		if len(args) < 2 {
			return
		}
		rid := TrimRoleString(args[1])
		kept := ac.RoleIDs[:0]
		for _, r := range ac.RoleIDs {
			if r != rid {
				kept = append(kept, r)
			}
		}
		ac.RoleIDs = kept
	default:
		return
	}

	if err := c.b.configs.SetAutoRoleConfig(ac); err != nil {
		c.b.log.Error("failed to update autorole config", zap.Error(err))
		_, _ = c.s.ChannelMessageSend(ch.ID, "Could not update config")
		return
	}
	_, _ = c.s.ChannelMessageSend(ch.ID, "Updated config")
}
