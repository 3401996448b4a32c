package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/heraldbot/herald/database"
)

// The formatters below turn an event and its guild's logging config into a
// ready-to-send embed, or nil when the notification is suppressed. They do no
// I/O; the dispatcher owns channel resolution and delivery.

const maxFieldLen = 1024

// loggingEnabled applies the shared decision rules: config present, master
// switch on, category toggle on, log channel set.
func loggingEnabled(gc *database.LoggingConfig, toggle bool) bool {
	if gc == nil || !gc.Enabled || !toggle {
		return false
	}
	return gc.LogChannelID != ""
}

func userTag(u *discordgo.User) string {
	if u == nil {
		return "Unknown"
	}
	return u.String()
}

// FormatMessageDelete builds the deletion notification. Bot and system
// messages are skipped.
func FormatMessageDelete(gc *database.LoggingConfig, msg *discordgo.Message) *discordgo.MessageEmbed {
	if !loggingEnabled(gc, gc != nil && gc.MessageDeletions) {
		return nil
	}
	if msg == nil || msg.Type != discordgo.MessageTypeDefault {
		return nil
	}
	if msg.Author != nil && msg.Author.Bot {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title: "Message Deleted",
		Color: int(Red),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: userTag(msg.Author), Inline: true},
			{Name: "Channel", Value: fmt.Sprintf("<#%v>", msg.ChannelID), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if msg.Content != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Content",
			Value: Truncate(msg.Content, maxFieldLen),
		})
	}
	return embed
}

// FormatMessageEdit builds the edit notification. Edits that leave the text
// unchanged are skipped, as are embed and attachment updates, which arrive
// with empty content.
func FormatMessageEdit(gc *database.LoggingConfig, oldMsg, newMsg *discordgo.Message) *discordgo.MessageEmbed {
	if !loggingEnabled(gc, gc != nil && gc.MessageEdits) {
		return nil
	}
	if oldMsg == nil || newMsg == nil || oldMsg.Type != discordgo.MessageTypeDefault {
		return nil
	}
	if oldMsg.Author != nil && oldMsg.Author.Bot {
		return nil
	}
	if newMsg.Content == "" || oldMsg.Content == newMsg.Content {
		return nil
	}

	before := oldMsg.Content
	if before == "" {
		before = "No content"
	}

	return &discordgo.MessageEmbed{
		Title: "Message Edited",
		Color: int(Gold),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: userTag(oldMsg.Author), Inline: true},
			{Name: "Channel", Value: fmt.Sprintf("<#%v>", oldMsg.ChannelID), Inline: true},
			{Name: "Before", Value: Truncate(before, maxFieldLen)},
			{Name: "After", Value: Truncate(newMsg.Content, maxFieldLen)},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// AddedRoles returns the role ids present in newRoles but not oldRoles.
func AddedRoles(oldRoles, newRoles []string) []string {
	seen := make(map[string]struct{}, len(oldRoles))
	for _, r := range oldRoles {
		seen[r] = struct{}{}
	}
	var added []string
	for _, r := range newRoles {
		if _, ok := seen[r]; !ok {
			added = append(added, r)
		}
	}
	return added
}

// FormatRolesAdded builds the role-grant notification from the difference
// between the member's old and new role sets. No difference, no notification.
func FormatRolesAdded(gc *database.LoggingConfig, user *discordgo.User, oldRoles, newRoles []string) *discordgo.MessageEmbed {
	if !loggingEnabled(gc, gc != nil && gc.RolesAdded) {
		return nil
	}
	added := AddedRoles(oldRoles, newRoles)
	if len(added) == 0 {
		return nil
	}

	mentions := make([]string, 0, len(added))
	for _, r := range added {
		mentions = append(mentions, fmt.Sprintf("<@&%v>", r))
	}

	embed := &discordgo.MessageEmbed{
		Title: "Roles Added",
		Color: int(Green),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: userTag(user), Inline: true},
			{Name: "Added Roles", Value: Truncate(strings.Join(mentions, "\n"), maxFieldLen)},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if user != nil {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("256")}
	}
	return embed
}

// FormatBan builds the ban notification. Reason is optional.
func FormatBan(gc *database.LoggingConfig, user *discordgo.User, reason string) *discordgo.MessageEmbed {
	if !loggingEnabled(gc, gc != nil && gc.UserBans) {
		return nil
	}
	if user == nil {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title: "User Banned",
		Color: int(DarkRed),
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: user.AvatarURL("256"),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: userTag(user), Inline: true},
			{Name: "ID", Value: user.ID, Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if reason != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Reason",
			Value: Truncate(reason, maxFieldLen),
		})
	}
	return embed
}

// FormatLeave builds the departure notification. A banned member is reported
// by the ban event instead, so banned departures are skipped here.
func FormatLeave(gc *database.LoggingConfig, user *discordgo.User, joinedAt time.Time, banned bool) *discordgo.MessageEmbed {
	if !loggingEnabled(gc, gc != nil && gc.UserLeaves) {
		return nil
	}
	if user == nil || banned {
		return nil
	}

	joined := "Unknown"
	if !joinedAt.IsZero() {
		joined = joinedAt.Format(time.RFC1123)
	}

	return &discordgo.MessageEmbed{
		Title: "User Left",
		Color: int(Grey),
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: user.AvatarURL("256"),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: userTag(user), Inline: true},
			{Name: "ID", Value: user.ID, Inline: true},
			{Name: "Joined Server", Value: joined, Inline: true},
			{Name: "Time in Server", Value: DurationInServer(joinedAt, time.Now()), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
