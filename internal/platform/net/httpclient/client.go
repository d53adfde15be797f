// Package httpclient builds outbound HTTP clients with retries and zerolog logging
package httpclient

import (
	"context"
	"net/http"
	"time"

	"gatekeeper/internal/platform/logger"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// Leveled adapts zerolog to retryablehttp.LeveledLogger. Client errors are logged
// as warnings since most of them are retried
type Leveled struct{ L *logger.Logger }

func (l Leveled) Error(msg string, kv ...any) { l.L.Warn().Fields(kv).Msg(msg) }
func (l Leveled) Warn(msg string, kv ...any)  { l.L.Warn().Fields(kv).Msg(msg) }
func (l Leveled) Info(msg string, kv ...any)  { l.L.Debug().Fields(kv).Msg(msg) }
func (l Leveled) Debug(msg string, kv ...any) { l.L.Debug().Fields(kv).Msg(msg) }

// Option mutates the underlying retryablehttp client
type Option func(*retryablehttp.Client)

// WithMaxRetries sets how many times a request is retried
func WithMaxRetries(n int) Option {
	return func(c *retryablehttp.Client) { c.RetryMax = n }
}

// WithWait sets the backoff bounds
func WithWait(lo, hi time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMin = lo
		c.RetryWaitMax = hi
	}
}

// WithTimeout bounds each attempt
func WithTimeout(d time.Duration) Option {
	return func(c *retryablehttp.Client) { c.HTTPClient.Timeout = d }
}

// New returns a retrying client: 3 retries from 1s to 10s, 15s per attempt.
// 429 is not retried so callers see rate limiting
func New(name string, opts ...Option) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.HTTPClient = cleanhttp.DefaultPooledClient()
	c.HTTPClient.Timeout = 15 * time.Second
	c.RetryMax = 3
	c.RetryWaitMin = time.Second
	c.RetryWaitMax = 10 * time.Second
	c.Logger = retryablehttp.LeveledLogger(Leveled{L: logger.Named(name)})
	c.CheckRetry = RetryPolicy
	for _, o := range opts {
		o(c)
	}
	return c
}

// RetryPolicy is retryablehttp.DefaultRetryPolicy minus 429
func RetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}
