package discord

import (
	"gatekeeper/internal/core/classifier"
	"gatekeeper/internal/services/moderation/domain"

	"github.com/bwmarrin/discordgo"
)

// lookups resolves what a gateway message does not carry
type lookups struct {
	// canManage reports the manage messages permission of user in channel
	canManage func(userID, channelID string) bool
	// owner returns the guild owner id or "" when unknown
	owner func(guildID string) string
}

// toMessage converts a gateway message. DMs have no guild, so no owner and no bypass
func toMessage(m *discordgo.Message, lk lookups) domain.Message {
	out := domain.Message{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Text:      m.Content,
	}
	if m.Author != nil {
		out.Author = domain.Author{ID: m.Author.ID, Bot: m.Author.Bot}
	}
	for _, e := range m.Embeds {
		if e == nil {
			continue
		}
		out.Embeds = append(out.Embeds, classifier.Embed{URL: e.URL, Title: e.Title, Description: e.Description})
	}
	for _, a := range m.Attachments {
		if a != nil && a.Filename != "" {
			out.AttachmentNames = append(out.AttachmentNames, a.Filename)
		}
	}
	for _, u := range m.Mentions {
		if u != nil {
			out.Mentions = append(out.Mentions, u.ID)
		}
	}

	if m.GuildID == "" || out.Author.ID == "" || out.Author.Bot {
		return out
	}
	if lk.owner != nil {
		out.OwnerID = lk.owner(m.GuildID)
	}
	out.Author.IsOwner = out.OwnerID != "" && out.OwnerID == out.Author.ID
	if !out.Author.IsOwner && lk.canManage != nil {
		out.Author.CanManageMessages = lk.canManage(out.Author.ID, m.ChannelID)
	}
	return out
}
