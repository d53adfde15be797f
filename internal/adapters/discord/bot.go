// Package discord adapts a discordgo gateway session to the moderation and command ports
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gatekeeper/internal/platform/config"
	perr "gatekeeper/internal/platform/errors"
	"gatekeeper/internal/platform/logger"
	cmddom "gatekeeper/internal/services/commands/domain"
	moddom "gatekeeper/internal/services/moderation/domain"

	"github.com/bwmarrin/discordgo"
)

// Intents the bot needs: guild state, guild messages and their content
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

// Options configures the session
type Options struct {
	Token            string
	PresenceInterval time.Duration
	Throttle         Throttle
	// HandleTimeout bounds the work done for one message
	HandleTimeout time.Duration
}

// FromConfig reads DISCORD (the token), PRESENCE_INTERVAL and DISCORD_ tuning keys
func FromConfig(cfg config.Conf) Options {
	d := cfg.Prefix("DISCORD_")
	return Options{
		Token:            cfg.MayString("DISCORD", ""),
		PresenceInterval: cfg.MayDuration("PRESENCE_INTERVAL", 10*time.Minute),
		Throttle: Throttle{
			Every: d.MayDuration("NOTICE_EVERY", 2*time.Second),
			Burst: d.MayInt("NOTICE_BURST", 3),
		},
		HandleTimeout: d.MayDuration("HANDLE_TIMEOUT", 30*time.Second),
	}
}

// Bot owns the gateway session
type Bot struct {
	opts    Options
	session *discordgo.Session
	actions *Actions
	log     *logger.Logger

	handler    moddom.HandlerPort
	dispatcher cmddom.DispatcherPort
	lk         lookups

	// root is the context message handlers derive from; set by Open
	mu    sync.RWMutex
	root  context.Context
	ready chan struct{}
	once  sync.Once
}

// New creates the session without connecting. A missing token is fatal for the caller
func New(opts Options) (*Bot, error) {
	if opts.Token == "" {
		return nil, perr.New(perr.ErrorCodeInvalidArgument, "discord: token is required (set DISCORD)")
	}
	s, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "discord: new session")
	}
	if opts.HandleTimeout <= 0 {
		opts.HandleTimeout = 30 * time.Second
	}
	s.Identify.Intents = Intents
	s.StateEnabled = true

	log := logger.Named("discord")
	routeLibraryLogs(log)
	b := &Bot{
		opts:    opts,
		session: s,
		actions: NewActions(s, opts.Throttle),
		log:     log,
		root:    context.Background(),
		ready:   make(chan struct{}),
	}
	b.lk = lookups{canManage: b.canManage, owner: b.owner}
	return b, nil
}

// Actions returns the enforcement adapter, also usable as a command replier
func (b *Bot) Actions() *Actions { return b.actions }

// Bind attaches the ports that receive messages. Call before Open
func (b *Bot) Bind(h moddom.HandlerPort, d cmddom.DispatcherPort) {
	b.handler = h
	b.dispatcher = d
}

// Ready is closed once the first READY event arrives
func (b *Bot) Ready() <-chan struct{} { return b.ready }

// Open connects the gateway; handlers run with contexts derived from ctx
func (b *Bot) Open(ctx context.Context) error {
	b.mu.Lock()
	b.root = ctx
	b.mu.Unlock()

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessage)
	if err := b.session.Open(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "discord: open gateway")
	}
	return nil
}

// Close disconnects the gateway
func (b *Bot) Close() error { return b.session.Close() }

// Guilds counts the guilds in state
func (b *Bot) Guilds() int {
	st := b.session.State
	if st == nil {
		return 0
	}
	st.RLock()
	defer st.RUnlock()
	return len(st.Guilds)
}

// Connected reports whether the session has received READY and is live
func (b *Bot) Connected() bool { return b.session.DataReady }

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("gateway ready")
	b.once.Do(func() { close(b.ready) })
}

func (b *Bot) onMessage(s *discordgo.Session, mc *discordgo.MessageCreate) {
	if mc.Message == nil || b.handler == nil {
		return
	}
	b.mu.RLock()
	root := b.root
	b.mu.RUnlock()
	if root.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(root, b.opts.HandleTimeout)
	defer cancel()

	m := toMessage(mc.Message, b.lk)
	// direct messages are never moderated, only commands run there
	if m.GuildID != "" {
		if out := b.handler.Handle(ctx, m); !out.Dispatch {
			return
		}
	} else if m.Author.Bot {
		return
	}
	if b.dispatcher == nil {
		return
	}
	if _, err := b.dispatcher.Dispatch(ctx, m); err != nil {
		logger.C(ctx).Warn().Err(err).Str("channel_id", m.ChannelID).Msg("command dispatch failed")
	}
}

func (b *Bot) canManage(userID, channelID string) bool {
	perms, err := b.session.UserChannelPermissions(userID, channelID)
	if err != nil {
		b.log.Debug().Err(err).Str("user_id", userID).Str("channel_id", channelID).Msg("permission lookup failed")
		return false
	}
	return perms&discordgo.PermissionManageMessages != 0
}

func (b *Bot) owner(guildID string) string {
	if g, err := b.session.State.Guild(guildID); err == nil && g.OwnerID != "" {
		return g.OwnerID
	}
	g, err := b.session.Guild(guildID)
	if err != nil {
		b.log.Debug().Err(err).Str("guild_id", guildID).Msg("owner lookup failed")
		return ""
	}
	return g.OwnerID
}

// Presence updates the "watching N servers" status every PresenceInterval once ready
type Presence struct{ b *Bot }

// Presence returns the status loop
func (b *Bot) Presence() Presence { return Presence{b: b} }

// Run blocks until ctx ends
func (p Presence) Run(ctx context.Context) {
	b := p.b
	if b.opts.PresenceInterval <= 0 {
		return
	}
	select {
	case <-b.ready:
	case <-ctx.Done():
		return
	}
	t := time.NewTicker(b.opts.PresenceInterval)
	defer t.Stop()
	for {
		if err := b.session.UpdateWatchStatus(0, statusText(b.Guilds())); err != nil {
			b.log.Warn().Err(err).Msg("presence update failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func statusText(guilds int) string {
	if guilds == 1 {
		return "1 server"
	}
	return fmt.Sprintf("%d servers", guilds)
}
