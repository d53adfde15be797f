package discord

import (
	"context"
	"time"

	perr "gatekeeper/internal/platform/errors"
	"gatekeeper/internal/services/moderation/domain"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// Embed colours per notice severity
const (
	ColorWarning  = 0xFFFF00
	ColorSanction = 0xFF0000
	ColorFailure  = 0x95A5A6
)

// rest is the part of *discordgo.Session the actions use
type rest interface {
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	GuildMemberTimeout(guildID, userID string, until *time.Time, options ...discordgo.RequestOption) error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Throttle bounds public notices per channel so a raid cannot make the bot spam
type Throttle struct {
	Every time.Duration
	Burst int
}

// Actions carries out enforcement through the REST API
type Actions struct {
	api      rest
	throttle Throttle
	limiters *lru.Cache[string, *rate.Limiter]
}

// NewActions wraps api; a zero Throttle disables notice limiting
func NewActions(api rest, t Throttle) *Actions {
	limiters, _ := lru.New[string, *rate.Limiter](4096)
	return &Actions{api: api, throttle: t, limiters: limiters}
}

// DeleteMessage removes one message
func (a *Actions) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return restErr(a.api.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)), "delete message")
}

// TimeoutUser applies a communication timeout until the given time
func (a *Actions) TimeoutUser(ctx context.Context, guildID, userID string, until time.Time, reason string) error {
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	return restErr(a.api.GuildMemberTimeout(guildID, userID, &until, opts...), "timeout member")
}

// SendNotice posts an embed coloured by severity
func (a *Actions) SendNotice(ctx context.Context, channelID string, n domain.Notice) error {
	if !a.allow(channelID) {
		return perr.Newf(perr.ErrorCodeTooManyRequests, "discord: notice throttled in %s", channelID)
	}
	_, err := a.api.ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Body,
		Color:       color(n.Severity),
	}, discordgo.WithContext(ctx))
	return restErr(err, "send notice")
}

// Reply posts plain text, used for command answers
func (a *Actions) Reply(ctx context.Context, channelID, text string) error {
	_, err := a.api.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return restErr(err, "send reply")
}

func (a *Actions) allow(channelID string) bool {
	if a.throttle.Every <= 0 {
		return true
	}
	lim, ok := a.limiters.Get(channelID)
	if !ok {
		lim = rate.NewLimiter(rate.Every(a.throttle.Every), max(a.throttle.Burst, 1))
		if prev, found, _ := a.limiters.PeekOrAdd(channelID, lim); found {
			lim = prev
		}
	}
	return lim.Allow()
}

func color(s domain.Severity) int {
	switch s {
	case domain.SeverityWarning:
		return ColorWarning
	case domain.SeveritySanction:
		return ColorSanction
	}
	return ColorFailure
}

var _ domain.Actions = (*Actions)(nil)
