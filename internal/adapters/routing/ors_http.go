package routing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryPolicy bounds how transient ORS failures are retried. The delay
// doubles from Backoff and never exceeds MaxBackoff. A Retry-After header
// on the failed response lengthens the delay, within the same cap.
type RetryPolicy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   4,
		Backoff:    200 * time.Millisecond,
		MaxBackoff: 5 * time.Second,
	}
}

// delay is the wait before attempt+1.
func (p RetryPolicy) delay(attempt int, err error) time.Duration {
	d := p.Backoff
	for i := 1; i < attempt && d < p.MaxBackoff; i++ {
		d *= 2
	}

	var se *statusError
	if errors.As(err, &se) && se.RetryAfter > d {
		d = se.RetryAfter
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

// transient reports whether another attempt may succeed: network errors,
// rate limiting and gateway-side 5xx responses.
func (RetryPolicy) transient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// statusError is an ORS response with a 4xx or 5xx status.
type statusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// orsCall describes one ORS request. The body is replayed on every attempt.
type orsCall struct {
	method string
	path   string
	query  url.Values
	body   []byte
}

// call sends c under the provider's retry policy. The caller closes the
// returned body.
func (o *ORSRouteProvider) call(ctx context.Context, c orsCall) (*http.Response, error) {
	attempts := max(o.retry.Attempts, 1)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := o.send(ctx, c)
		if err == nil {
			return resp, nil
		}
		if attempt >= attempts || !o.retry.transient(err) {
			return nil, err
		}

		wait := o.retry.delay(attempt, err)
		log.Debug().Err(err).
			Str("path", c.path).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("retrying ORS request")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (o *ORSRouteProvider) send(ctx context.Context, c orsCall) (*http.Response, error) {
	target := o.baseURL + c.path
	if len(c.query) > 0 {
		target += "?" + c.query.Encode()
	}

	var body io.Reader
	if c.body != nil {
		body = bytes.NewReader(c.body)
	}
	req, err := http.NewRequestWithContext(ctx, c.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json, application/geo+json")
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 400 {
		return resp, nil
	}
	defer resp.Body.Close()

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return nil, &statusError{
		Code:       resp.StatusCode,
		Body:       strings.TrimSpace(string(excerpt)),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
}

// parseRetryAfter reads either form of the header: delay seconds or an
// HTTP date. Unparseable or past values yield zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
