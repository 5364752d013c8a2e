package httpx

import (
	"crypto/tls"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/atomic"

	"github.com/higress-group/docqa-bot/common/logger"
	"github.com/higress-group/docqa-bot/config"
)

// Client wraps http.Client with a host allowlist and a consecutive-failure circuit breaker.
type Client struct {
	hc        *http.Client
	opt       Options
	fail      atomic.Int32 // consecutive failures
	openUntil atomic.Int64 // unix nanos for circuit open deadline
}

type Options struct {
	Timeout            time.Duration
	Retry              int
	BackoffMin         time.Duration
	BackoffMax         time.Duration
	HostAllowlist      []string
	MaxConsecutiveFail int
	CircuitOpen        time.Duration
}

// NewFromConfig builds a client. Retries default to zero: pipeline calls fail fast
// and surface the upstream error instead.
func NewFromConfig(cfg *config.HTTPClientConfig) *Client {
	to := 30 * time.Second
	if cfg != nil && cfg.TimeoutMs > 0 {
		to = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	retry := 0
	if cfg != nil && cfg.Retry > 0 {
		retry = cfg.Retry
	}
	bmin := 100 * time.Millisecond
	if cfg != nil && cfg.BackoffMinMs > 0 {
		bmin = time.Duration(cfg.BackoffMinMs) * time.Millisecond
	}
	bmax := 800 * time.Millisecond
	if cfg != nil && cfg.BackoffMaxMs > 0 {
		bmax = time.Duration(cfg.BackoffMaxMs) * time.Millisecond
	}
	mcf := 5
	if cfg != nil && cfg.MaxConsecutiveFailures > 0 {
		mcf = cfg.MaxConsecutiveFailures
	}
	cop := 5 * time.Second
	if cfg != nil && cfg.CircuitOpenSeconds > 0 {
		cop = time.Duration(cfg.CircuitOpenSeconds) * time.Second
	}
	var allow []string
	if cfg != nil {
		allow = cfg.HostAllowlist
	}

	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		DialContext:     (&net.Dialer{Timeout: to}).DialContext,
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:    100,
		IdleConnTimeout: 30 * time.Second,
	}
	return &Client{
		hc: &http.Client{Timeout: to, Transport: transport},
		opt: Options{
			Timeout: to, Retry: retry, BackoffMin: bmin, BackoffMax: bmax,
			HostAllowlist: allow, MaxConsecutiveFail: mcf, CircuitOpen: cop,
		},
	}
}

func (c *Client) allowed(u *url.URL) bool {
	if len(c.opt.HostAllowlist) == 0 {
		return true
	}
	host := u.Hostname()
	for _, h := range c.opt.HostAllowlist {
		if matchHost(h, host) {
			return true
		}
	}
	return false
}

func matchHost(pattern, host string) bool {
	if pattern == "*" {
		return true
	}
	if strings.EqualFold(pattern, host) {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suf := strings.TrimPrefix(pattern, "*.")
		return strings.HasSuffix(host, "."+suf) || host == suf
	}
	return false
}

var ErrCircuitOpen = errors.New("circuit open")
var ErrHostNotAllowed = errors.New("host not allowed")

// Do sends req. 5xx responses count as failures for the breaker but are still
// returned to the caller on the last attempt so it can report the status.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if !c.allowed(req.URL) {
		logger.Warnf("httpx: blocked outbound host: %s", req.URL.Redacted())
		return nil, ErrHostNotAllowed
	}
	if c.openUntil.Load() > time.Now().UnixNano() {
		return nil, ErrCircuitOpen
	}
	var resp *http.Response
	var err error
	for i := 0; i <= c.opt.Retry; i++ {
		if i > 0 && req.GetBody != nil {
			body, berr := req.GetBody()
			if berr != nil {
				return nil, berr
			}
			req.Body = body
		}
		resp, err = c.hc.Do(req)
		if err == nil && resp.StatusCode < 500 {
			c.fail.Store(0)
			return resp, nil
		}
		if err == nil {
			logger.Warnf("httpx: %s %s returned %d (try %d/%d)", req.Method, req.URL.Redacted(), resp.StatusCode, i+1, c.opt.Retry+1)
		} else {
			logger.Warnf("httpx: %s %s failed (try %d/%d): %v", req.Method, req.URL.Redacted(), i+1, c.opt.Retry+1, err)
		}
		if i < c.opt.Retry {
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			if cerr := req.Context().Err(); cerr != nil {
				return nil, cerr
			}
			time.Sleep(backoffJitter(c.opt.BackoffMin, c.opt.BackoffMax))
		}
	}
	if c.fail.Inc() >= int32(c.opt.MaxConsecutiveFail) {
		c.openUntil.Store(time.Now().Add(c.opt.CircuitOpen).UnixNano())
		c.fail.Store(0)
		logger.Warnf("httpx: circuit opened for %v", c.opt.CircuitOpen)
	}
	return resp, err
}

func backoffJitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
