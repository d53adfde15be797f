// Package domain holds the command dispatch ports
package domain

import (
	"context"

	moddom "gatekeeper/internal/services/moderation/domain"
)

// Request is one parsed command invocation
type Request struct {
	Message moddom.Message
	Prefix  string
	Name    string
	Args    []string
}

// Privileged reports whether the caller may run moderator commands
func (r Request) Privileged() bool {
	return r.Message.Author.CanManageMessages || r.Message.Author.IsOwner
}

// Replier posts a plain text answer in a channel
type Replier interface {
	Reply(ctx context.Context, channelID, text string) error
}

// DispatcherPort runs the command in a message, if any. handled is false when the
// message carries no known command
type DispatcherPort interface {
	Dispatch(ctx context.Context, m moddom.Message) (handled bool, err error)
}
