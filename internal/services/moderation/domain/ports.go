package domain

import (
	"context"
	"time"
)

// Actions is what the orchestrator needs from the chat platform
type Actions interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	TimeoutUser(ctx context.Context, guildID, userID string, until time.Time, reason string) error
	SendNotice(ctx context.Context, channelID string, n Notice) error
}

// HandlerPort is the inbound port the chat adapter calls for every message
type HandlerPort interface {
	Handle(ctx context.Context, m Message) Outcome
}

// WaiterPort lets shutdown drain delayed work: Close fires pending deletes at
// once and Wait blocks until they are done
type WaiterPort interface {
	Close()
	Wait()
}
