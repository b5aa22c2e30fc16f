// Package retryfetch wraps one-shot HTTP requests with bounded exponential
// backoff. It is meant for plain request/response calls; live subscriptions
// and entry writes are never retried.
package retryfetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"collablist/pkg/logger"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
)

// StatusError is returned when the server answered with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.Code)
	}
	return fmt.Sprintf("HTTP error! status: %d: %s", e.Code, e.Body)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type options struct {
	attempts int
	base     time.Duration
	sleep    SleepFunc
	prepare  func(*resty.Request)
}

type Option func(*options)

// WithAttempts sets the total number of attempts. Values below 1 are ignored.
func WithAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.attempts = n
		}
	}
}

func WithBaseDelay(d time.Duration) Option {
	return func(o *options) { o.base = d }
}

// WithSleep replaces the timer-based wait between attempts.
func WithSleep(sleep SleepFunc) Option {
	return func(o *options) { o.sleep = sleep }
}

// WithRequest customizes every attempt's request (headers, body, result type).
func WithRequest(prepare func(*resty.Request)) Option {
	return func(o *options) { o.prepare = prepare }
}

// Fetch runs the request up to the configured number of attempts. Before
// retry i (counting from 0) it waits 2^i * base. A transport error or a
// non-2xx status counts as a failure; the last failure is returned.
func Fetch(ctx context.Context, client *resty.Client, method, url string, opts ...Option) (*resty.Response, error) {
	o := options{attempts: DefaultAttempts, base: DefaultBaseDelay, sleep: sleepContext}
	for _, opt := range opts {
		opt(&o)
	}

	var lastErr error
	for i := 0; i < o.attempts; i++ {
		req := client.R().SetContext(ctx)
		if o.prepare != nil {
			o.prepare(req)
		}

		resp, err := req.Execute(method, url)
		if err == nil && !resp.IsSuccess() {
			err = &StatusError{Code: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
		}
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if i == o.attempts-1 {
			break
		}
		delay := time.Duration(1<<i) * o.base
		logger.Sugar.Warnf("Fetch %s %s failed: %v. Retrying in %s...", method, url, err, delay)
		if err := o.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Get is Fetch with method GET.
func Get(ctx context.Context, client *resty.Client, url string, opts ...Option) (*resty.Response, error) {
	return Fetch(ctx, client, http.MethodGet, url, opts...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
