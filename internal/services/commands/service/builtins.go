package service

import (
	"context"
	"fmt"
	"strings"

	perr "gatekeeper/internal/platform/errors"
	"gatekeeper/internal/services/commands/domain"
	incdom "gatekeeper/internal/services/incidents/domain"
)

// StrikesLimit is how many incidents !strikes shows
const StrikesLimit = 5

// Ping answers pong
func Ping() Command {
	return Command{
		Name: "ping",
		Help: "check the bot is responsive",
		Run: func(context.Context, domain.Request) (string, error) {
			return "pong", nil
		},
	}
}

// Help lists the commands registered on s
func Help(s *Svc) Command {
	return Command{
		Name: "help",
		Help: "list commands",
		Run: func(context.Context, domain.Request) (string, error) {
			var b strings.Builder
			b.WriteString("Commands:")
			for _, c := range s.Commands() {
				b.WriteString("\n" + s.prefix + c.Name)
				if c.Usage != "" {
					b.WriteString(" " + c.Usage)
				}
				b.WriteString(" - " + c.Help)
			}
			return b.String(), nil
		},
	}
}

// Strikes shows a member's latest journaled incidents
func Strikes(r incdom.Reader) Command {
	return Command{
		Name:       "strikes",
		Usage:      "<@member>",
		Help:       "show a member's recent incidents (moderators)",
		Privileged: true,
		Run: func(ctx context.Context, req domain.Request) (string, error) {
			if len(req.Args) == 0 {
				return "Usage: " + req.Prefix + "strikes <@member>", nil
			}
			userID := userArg(req.Args[0])
			if userID == "" {
				return "Mention a member or pass their id.", nil
			}
			list, err := r.Recent(ctx, req.Message.GuildID, userID, StrikesLimit)
			if perr.IsCode(err, perr.ErrorCodeUnavailable) {
				return "The incident journal is disabled.", nil
			}
			if err != nil {
				return "", err
			}
			if len(list) == 0 {
				return fmt.Sprintf("<@%s> has a clean record.", userID), nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Latest incidents for <@%s>:", userID)
			for _, in := range list {
				fmt.Fprintf(&b, "\n%s %s (%s)", in.At.UTC().Format("2006-01-02 15:04"), in.Category, in.Verdict)
			}
			return b.String(), nil
		},
	}
}

// userArg accepts <@id>, <@!id> or a bare numeric id
func userArg(s string) string {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "<@"), ">")
	s = strings.TrimPrefix(s, "!")
	if s == "" {
		return ""
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s
}
