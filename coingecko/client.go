// Package coingecko fetches USD prices and market caps from the CoinGecko API.
package coingecko

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public CoinGecko API.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Client is a CoinGecko API client.
//
// Calls are spaced by a token bucket limiter. A call answered with HTTP 429
// waits and is retried once.
type Client struct {
	http      *http.Client
	base      string
	apiKey    string
	retryWait time.Duration
}

type settings struct {
	base      string
	apiKey    string
	perMinute int
	retryWait time.Duration
	cacheDir  string
	transport http.RoundTripper
}

// Option configures a Client.
type Option func(*settings)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(base string) Option { return func(s *settings) { s.base = base } }

// WithAPIKey sets the demo API key sent with every request.
func WithAPIKey(key string) Option { return func(s *settings) { s.apiKey = key } }

// WithRate limits calls to perMinute requests per minute. Zero or less disables the limiter.
func WithRate(perMinute int) Option { return func(s *settings) { s.perMinute = perMinute } }

// WithRetryWait sets how long to wait after an HTTP 429.
func WithRetryWait(d time.Duration) Option { return func(s *settings) { s.retryWait = d } }

// WithCache caches successful responses in dir for the day.
func WithCache(dir string) Option { return func(s *settings) { s.cacheDir = dir } }

// WithTransport sets the underlying round tripper, http.DefaultTransport otherwise.
func WithTransport(t http.RoundTripper) Option { return func(s *settings) { s.transport = t } }

// New returns a Client.
func New(opts ...Option) *Client {
	s := settings{
		base:      DefaultBaseURL,
		perMinute: 10,
		retryWait: 2 * time.Minute,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(&s)
	}

	transport := s.transport
	if s.perMinute > 0 {
		limit := rate.Every(time.Minute / time.Duration(s.perMinute))
		transport = &limited{base: transport, limiter: rate.NewLimiter(limit, 1)}
	}
	if s.cacheDir != "" {
		transport = &diskCache{base: transport, dir: s.cacheDir}
	}
	return &Client{
		http:      &http.Client{Transport: transport},
		base:      s.base,
		apiKey:    s.apiKey,
		retryWait: s.retryWait,
	}
}

// limited waits for the limiter before every round trip.
type limited struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (l *limited) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := l.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return l.base.RoundTrip(req)
}

// StatusError is returned for a non 200 response.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot http GET %s: %s", e.URL, e.Status)
}

// get performs a GET on path and decodes the JSON response. Numbers are
// decoded as json.Number.
func (c *Client) get(ctx context.Context, path string, query url.Values) (any, error) {
	addr := c.base + path
	if len(query) > 0 {
		addr += "?" + query.Encode()
	}
	for retried := false; ; retried = true {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("x-cg-demo-api-key", c.apiKey)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusTooManyRequests && !retried {
			resp.Body.Close()
			log.Printf("rate limited on %s, waiting %v", path, c.retryWait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryWait):
			}
			continue
		}
		return decode(resp)
	}
}

func decode(resp *http.Response) (any, error) {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			URL:    resp.Request.URL.Host + resp.Request.URL.Path,
			Status: resp.Status,
			Code:   resp.StatusCode,
		}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	var jobj any
	if err := dec.Decode(&jobj); err != nil {
		return nil, err
	}
	return jobj, nil
}
