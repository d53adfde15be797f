// Package escalation turns repeated violations into sanctions.
// State is kept per (user, category): the first violation warns, a repeat inside the
// cooldown mutes and clears the record, a repeat after the cooldown warns again
package escalation

import (
	"sync"
	"time"

	perr "gatekeeper/internal/platform/errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Action is what the caller should do about a violation
type Action int

const (
	// Warn means no recent violation was on record
	Warn Action = iota + 1
	// Mute means a warned user repeated the violation inside the cooldown
	Mute
)

func (a Action) String() string {
	switch a {
	case Warn:
		return "warn"
	case Mute:
		return "mute"
	}
	return "unknown"
}

// Defaults
const (
	DefaultCooldown = time.Hour
	DefaultCapacity = 10000
)

// Options configures a Tracker. Zero fields take defaults
type Options struct {
	Cooldown time.Duration
	// Capacity bounds the number of tracked (user, category) records; least recently
	// touched records are dropped first, which reads as "no recent violation"
	Capacity int
	Now      func() time.Time
}

type key struct {
	user     string
	category string
}

// Tracker is safe for concurrent use
type Tracker struct {
	mu       sync.Mutex
	cooldown time.Duration
	now      func() time.Time
	records  *lru.Cache[key, time.Time]
}

// New builds a Tracker
func New(opts Options) (*Tracker, error) {
	if opts.Cooldown < 0 {
		return nil, perr.Newf(perr.ErrorCodeInvalidArgument, "escalation: negative cooldown %s", opts.Cooldown)
	}
	if opts.Cooldown == 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Capacity == 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	records, err := lru.New[key, time.Time](opts.Capacity)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "escalation: capacity %d", opts.Capacity)
	}
	return &Tracker{cooldown: opts.Cooldown, now: opts.Now, records: records}, nil
}

// Cooldown returns the configured repeat window
func (t *Tracker) Cooldown() time.Duration { return t.cooldown }

// OnViolation records a violation at the tracker's current time
func (t *Tracker) OnViolation(userID, category string) Action {
	return t.OnViolationAt(userID, category, t.now())
}

// OnViolationAt records a violation at now and returns the action to take.
// Staleness is judged here; there is no background sweep
func (t *Tracker) OnViolationAt(userID, category string, now time.Time) Action {
	k := key{user: userID, category: category}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t0, ok := t.records.Get(k); ok && now.Sub(t0) <= t.cooldown {
		t.records.Remove(k)
		return Mute
	}
	t.records.Add(k, now)
	return Warn
}

// Peek returns the time of the recorded warning, if any, without touching recency
func (t *Tracker) Peek(userID, category string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records.Peek(key{user: userID, category: category})
}

// Reset forgets one record
func (t *Tracker) Reset(userID, category string) {
	t.mu.Lock()
	t.records.Remove(key{user: userID, category: category})
	t.mu.Unlock()
}

// Len reports how many records are held
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records.Len()
}
