package repokit

import (
	"context"
	"time"

	perr "gatekeeper/internal/platform/errors"
)

// DefaultPingTimeout bounds Ping when ctx has no deadline
const DefaultPingTimeout = 5 * time.Second

// Pinger is anything that can report its health
type Pinger interface {
	Ping(context.Context) error
}

// Ping checks a dependency and reports failure as Unavailable tagged with name
func Ping(ctx context.Context, name string, p Pinger) error {
	if p == nil {
		return perr.Newf(perr.ErrorCodeUnavailable, "%s: not configured", name)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultPingTimeout)
		defer cancel()
	}
	if err := p.Ping(ctx); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s ping failed", name)
	}
	return nil
}
