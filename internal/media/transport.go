package media

import (
	"errors"
	"math/rand"
	"net"
	"net/http"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// retryPolicy bounds how often a request is sent. Tries counts the first
// attempt.
type retryPolicy struct {
	Tries int
	Base  time.Duration
	Max   time.Duration
}

var siteRetry = retryPolicy{Tries: 4, Base: 250 * time.Millisecond, Max: 5 * time.Second}

// pause is the wait after failed try n: Base doubled per try, capped at Max,
// then randomized into its upper half.
func (p retryPolicy) pause(n int) time.Duration {
	d := p.Base
	for i := 1; i < n && d < p.Max; i++ {
		d *= 2
	}
	if d > p.Max {
		d = p.Max
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1)) //nolint:gosec
}

// siteTransport sends browser-like headers and resends requests that failed
// with a throttling or server status or a network error.
type siteTransport struct {
	next   http.RoundTripper
	policy retryPolicy
}

func newSiteTransport(next http.RoundTripper, policy retryPolicy) *siteTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	if policy.Tries < 1 {
		policy.Tries = 1
	}
	return &siteTransport{next: next, policy: policy}
}

func (t *siteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	for try := 1; ; try++ {
		out, err := prepare(req)
		if err != nil {
			return nil, err
		}
		resp, err := t.next.RoundTrip(out)
		if try >= t.policy.Tries || !shouldRetry(resp, err) || !replayable(req) {
			return resp, err
		}
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.policy.pause(try)):
		}
	}
}

// prepare copies req with a fresh body and the default headers; the
// caller's request is never modified.
func prepare(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.GetBody != nil && req.Body != nil && req.Body != http.NoBody {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}
	if out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", userAgent)
	}
	if out.Header.Get("Accept-Language") == "" {
		out.Header.Set("Accept-Language", "en-US,en;q=0.9")
	}
	return out, nil
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

// shouldRetry accepts dial and connection errors, timeouts, 408, 429 and
// 5xx answers other than 501 and 505.
func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		var opErr *net.OpError
		var netErr net.Error
		return errors.As(err, &opErr) || (errors.As(err, &netErr) && netErr.Timeout())
	}
	switch code := resp.StatusCode; {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code == http.StatusNotImplemented, code == http.StatusHTTPVersionNotSupported:
		return false
	default:
		return code >= 500 && code <= 599
	}
}
