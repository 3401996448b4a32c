package kvstore

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// CachedMember is the stored copy of a guild member. Roles and the join
// timestamp are the parts the leave notification needs after the member is
// already gone from gateway state.
type CachedMember struct {
	Member *discordgo.Member
}

func NewCachedMember(m *discordgo.Member) *CachedMember {
	return &CachedMember{Member: m}
}

// JoinedAt returns the member's join time, or the zero time if Discord never
// provided one.
func (c *CachedMember) JoinedAt() time.Time {
	if c.Member == nil {
		return time.Time{}
	}
	return c.Member.JoinedAt
}

// CachedMessage is the stored copy of a message, kept for 24 hours so delete
// and edit notifications can include the previous content.
type CachedMessage struct {
	Message *discordgo.Message
}
