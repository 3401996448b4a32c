package bot

import "github.com/bwmarrin/discordgo"

// Session is the slice of the gateway session the event handlers use. A
// *discordgo.Session satisfies it; tests substitute a recorder.
type Session interface {
	UpdateGameStatus(idle int, name string) error
	UpdateWatchStatus(idle int, name string) error
	RequestGuildMembers(guildID, query string, limit int, nonce string, presences bool) error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildBan(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.GuildBan, error)
}

// State resolves guilds, channels and roles from gateway state. A
// *discord.Discord satisfies it.
type State interface {
	Guild(gid string) (*discordgo.Guild, error)
	Channel(cid string) (*discordgo.Channel, error)
	Role(gid, rid string) (*discordgo.Role, error)
	TextChannel(gid, cid string) (*discordgo.Channel, error)
	UserChannelPermissions(uid, cid string) (int64, error)
}

type Context struct {
	b *Bot
	s Session
	d State
}
