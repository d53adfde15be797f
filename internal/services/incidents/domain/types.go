// Package domain defines the moderation incident journal
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Incident is one enforced violation. It is an audit record only; escalation
// state is never rebuilt from it
type Incident struct {
	ID        uuid.UUID
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string

	Category string
	Rule     string
	Fragment string

	// Verdict is the moderation verdict (warned, muted, mute_failed, exempt)
	Verdict string
	// ActionErr joins the errors of failed side effects, empty on success
	ActionErr string
	At        time.Time
}

// Recorder appends incidents to the journal
type Recorder interface {
	Record(ctx context.Context, in Incident) error
}

// Reader lists journal entries, newest first
type Reader interface {
	Recent(ctx context.Context, guildID, userID string, limit int) ([]Incident, error)
}

// Journal is the full port set of the incidents service
type Journal interface {
	Recorder
	Reader
}
