package service

import (
	"context"
	"io"
	"time"

	perr "gatekeeper/internal/platform/errors"
	"gatekeeper/internal/platform/logger"
	"gatekeeper/internal/services/liveness/domain"

	"github.com/hashicorp/go-retryablehttp"
)

// SelfPinger requests its own public URL on an interval so free hosts that idle
// unvisited services keep this one running
type SelfPinger struct {
	url      string
	interval time.Duration
	client   *retryablehttp.Client
	// ready gates the first ping; nil starts at once
	ready <-chan struct{}
}

// NewSelfPinger builds the loop; an empty url makes Run return at once
func NewSelfPinger(url string, interval time.Duration, client *retryablehttp.Client, ready <-chan struct{}) *SelfPinger {
	return &SelfPinger{url: url, interval: interval, client: client, ready: ready}
}

// Run pings once when ready, then every interval until ctx ends
func (p *SelfPinger) Run(ctx context.Context) {
	log := logger.Named("selfping")
	if p.url == "" || p.interval <= 0 {
		log.Info().Msg("self ping disabled")
		return
	}
	if p.ready != nil {
		select {
		case <-p.ready:
		case <-ctx.Done():
			return
		}
	}
	log.Info().Str("url", p.url).Dur("every", p.interval).Msg("self ping started")

	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		if status, err := p.Once(ctx); err != nil {
			log.Warn().Err(err).Msg("self ping failed")
		} else {
			log.Debug().Int("status", status).Msg("self ping")
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Once issues one GET and returns the status code
func (p *SelfPinger) Once(ctx context.Context) (int, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", p.url, nil)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "self ping url %q", p.url)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeUnavailable, "self ping")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return resp.StatusCode, perr.Newf(perr.ErrorCodeUnavailable, "self ping status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

var _ domain.LoopPort = (*SelfPinger)(nil)
