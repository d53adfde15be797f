// Package domain holds the moderation ports and value types shared by the
// orchestrator, the chat adapter and command dispatch
package domain

import (
	"time"

	"gatekeeper/internal/core/classifier"
	"gatekeeper/internal/core/escalation"
)

// Author is the sender of a message as seen by the chat adapter
type Author struct {
	ID  string
	Bot bool
	// CanManageMessages is the bypass permission in the message's channel
	CanManageMessages bool
	IsOwner           bool
}

// Message is one incoming chat message; absent fields are empty
type Message struct {
	ID        string
	GuildID   string
	ChannelID string
	Author    Author

	Text            string
	Embeds          []classifier.Embed
	AttachmentNames []string
	Mentions        []string
	// OwnerID is the community owner, empty when unknown
	OwnerID string
}

// Classifiable projects the message onto what the classifier reads
func (m Message) Classifiable() classifier.Message {
	return classifier.Message{
		Text:            m.Text,
		Embeds:          m.Embeds,
		AttachmentNames: m.AttachmentNames,
		Mentions:        m.Mentions,
		OwnerID:         m.OwnerID,
	}
}

// Severity picks the presentation of a notice
type Severity int

const (
	// SeverityWarning is the first offence
	SeverityWarning Severity = iota + 1
	// SeveritySanction announces a mute
	SeveritySanction
	// SeverityFailure reports an enforcement the bot could not carry out
	SeverityFailure
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeveritySanction:
		return "sanction"
	case SeverityFailure:
		return "failure"
	}
	return "unknown"
}

// Notice is a short public message posted in the offending channel
type Notice struct {
	Title    string
	Body     string
	Severity Severity
	// UserID is the subject of the notice
	UserID string
}

// Verdict summarises what happened to a message
type Verdict string

// Verdicts
const (
	VerdictIgnored    Verdict = "ignored"
	VerdictBypassed   Verdict = "bypassed"
	VerdictClean      Verdict = "clean"
	VerdictExempt     Verdict = "exempt"
	VerdictWarned     Verdict = "warned"
	VerdictMuted      Verdict = "muted"
	VerdictMuteFailed Verdict = "mute_failed"
)

// Enforced reports whether the message was removed by the bot
func (v Verdict) Enforced() bool {
	switch v {
	case VerdictExempt, VerdictWarned, VerdictMuted, VerdictMuteFailed:
		return true
	}
	return false
}

// ActionKind names one enforcement side effect
type ActionKind string

// Action kinds
const (
	ActionDelete        ActionKind = "delete"
	ActionDelayedDelete ActionKind = "delayed_delete"
	ActionTimeout       ActionKind = "timeout"
	ActionNotice        ActionKind = "notice"
)

// ActionResult is the outcome of one side effect; Err is nil on success
type ActionResult struct {
	Kind ActionKind
	Err  error
}

// Outcome is everything Handle did with a message
type Outcome struct {
	Verdict    Verdict
	Decision   classifier.Decision
	Escalation escalation.Action
	// MutedUntil is set when a timeout was requested
	MutedUntil time.Time
	Actions    []ActionResult
	// Dispatch tells the caller whether to run command handling afterwards
	Dispatch bool
}

// Failed returns the results that carry an error
func (o Outcome) Failed() []ActionResult {
	var out []ActionResult
	for _, a := range o.Actions {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}
