// Package service implements prefix command dispatch
package service

import (
	"context"
	"sort"
	"strings"

	perr "gatekeeper/internal/platform/errors"
	"gatekeeper/internal/platform/logger"
	"gatekeeper/internal/services/commands/domain"
	moddom "gatekeeper/internal/services/moderation/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Command is one named handler
type Command struct {
	Name  string
	Usage string
	Help  string
	// Privileged commands need the manage messages permission or ownership
	Privileged bool
	Run        func(ctx context.Context, r domain.Request) (string, error)
}

// Svc routes prefixed messages to commands
type Svc struct {
	prefix string
	reply  domain.Replier
	cmds   map[string]Command
	runs   *prometheus.CounterVec
}

// New builds an empty router; an empty prefix disables dispatch
func New(prefix string, reply domain.Replier, reg prometheus.Registerer) *Svc {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Svc{
		prefix: prefix,
		reply:  reply,
		cmds:   map[string]Command{},
		runs: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_commands_total",
			Help: "Commands dispatched, by command and result",
		}, []string{"command", "result"}),
	}
}

// Register adds commands; names are case-insensitive and must be unique
func (s *Svc) Register(cmds ...Command) error {
	for _, c := range cmds {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" || c.Run == nil {
			return perr.InvalidArgf("commands: %q needs a name and a handler", c.Name)
		}
		if _, dup := s.cmds[name]; dup {
			return perr.Conflictf("commands: %q registered twice", name)
		}
		c.Name = name
		s.cmds[name] = c
	}
	return nil
}

// Commands lists the registered commands by name
func (s *Svc) Commands() []Command {
	out := make([]Command, 0, len(s.cmds))
	for _, c := range s.cmds {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Prefix returns the command prefix
func (s *Svc) Prefix() string { return s.prefix }

// Parse splits "!name a b" into name and args
func (s *Svc) Parse(text string) (string, []string, bool) {
	if s.prefix == "" || !strings.HasPrefix(text, s.prefix) {
		return "", nil, false
	}
	fields := strings.Fields(text[len(s.prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// Dispatch runs the command in m and posts its answer
func (s *Svc) Dispatch(ctx context.Context, m moddom.Message) (bool, error) {
	if m.Author.Bot {
		return false, nil
	}
	name, args, ok := s.Parse(m.Text)
	if !ok {
		return false, nil
	}
	cmd, ok := s.cmds[name]
	if !ok {
		return false, nil
	}
	req := domain.Request{Message: m, Prefix: s.prefix, Name: name, Args: args}
	log := logger.C(ctx)

	var (
		text   string
		err    error
		result = "ok"
	)
	if cmd.Privileged && !req.Privileged() {
		text, result = "You need the Manage Messages permission for "+s.prefix+name+".", "denied"
	} else if text, err = cmd.Run(ctx, req); err != nil {
		result = "error"
		log.Warn().Err(err).Str("command", name).Msg("command failed")
		text = "Something went wrong running " + s.prefix + name + "."
	}
	s.runs.WithLabelValues(name, result).Inc()

	if text == "" {
		return true, err
	}
	if rerr := s.reply.Reply(ctx, m.ChannelID, text); rerr != nil {
		return true, perr.Wrapf(rerr, perr.ErrorCodeUnavailable, "commands: reply to %s", name)
	}
	return true, err
}

var _ domain.DispatcherPort = (*Svc)(nil)
