package discord

import "github.com/bwmarrin/discordgo"

func (d *Discord) Guild(gid string) (*discordgo.Guild, error) {
	for _, s := range d.sessions {
		if g, err := s.State.Guild(gid); err == nil {
			return g, nil
		}
	}
	return nil, discordgo.ErrStateNotFound
}

func (d *Discord) Channel(cid string) (*discordgo.Channel, error) {
	for _, s := range d.sessions {
		if ch, err := s.State.Channel(cid); err == nil {
			return ch, nil
		}
	}
	return nil, discordgo.ErrStateNotFound
}

func (d *Discord) Role(gid, rid string) (*discordgo.Role, error) {
	for _, s := range d.sessions {
		if r, err := s.State.Role(gid, rid); err == nil {
			return r, nil
		}
	}
	return nil, discordgo.ErrStateNotFound
}

// TextChannel resolves a channel id to a postable text channel inside the
// given guild. A miss here is an operational failure, not a logic error; the
// caller logs and drops.
func (d *Discord) TextChannel(gid, cid string) (*discordgo.Channel, error) {
	ch, err := d.Channel(cid)
	if err != nil {
		return nil, err
	}
	if ch.GuildID != gid {
		return nil, discordgo.ErrStateNotFound
	}
	if ch.Type != discordgo.ChannelTypeGuildText && ch.Type != discordgo.ChannelTypeGuildNews {
		return nil, discordgo.ErrStateNotFound
	}
	return ch, nil
}

func (d *Discord) UserChannelPermissions(uid, cid string) (int64, error) {
	for _, s := range d.sessions {
		if p, err := s.State.UserChannelPermissions(uid, cid); err == nil {
			return p, nil
		}
	}
	return -1, discordgo.ErrStateNotFound
}
