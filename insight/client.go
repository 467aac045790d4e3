// Package insight is a client for a Qloo-style cultural insight REST API:
// tag and entity search, tag/entity/demographic insights and trending data.
// Requests are rate limited and retried with exponential backoff.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hupe1980/campaignmesh/internal/util"
	"github.com/hupe1980/campaignmesh/logging"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the hosted insight API.
const DefaultBaseURL = "https://hackathon.api.qloo.com"

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("insight API key not configured")

// StatusError reports a non-2xx answer.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("insight %s: unexpected status %d", e.Path, e.StatusCode)
}

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client

	// Timeout bounds every single HTTP request.
	Timeout time.Duration

	// RequestsPerSecond and Burst configure the shared rate limiter.
	RequestsPerSecond float64
	Burst             int

	Retry util.RetryConfig

	// MaxInterests caps how many interest phrases are searched for tags.
	MaxInterests int

	// TrendingWindow is the look-back period for trending queries.
	TrendingWindow time.Duration

	// Now returns the reference time for trending windows.
	Now func() time.Time

	Logger logging.Logger

	// OnCall observes every request.
	OnCall func(operation string, dur time.Duration, err error)
}

// Client talks to the insight API. It is safe for concurrent use.
type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	logger  logging.Logger
}

// New creates a Client. It fails with ErrMissingAPIKey when no key is set.
func New(optFns ...func(o *Options)) (*Client, error) {
	opts := Options{
		BaseURL:           DefaultBaseURL,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 5,
		Burst:             5,
		Retry:             util.DefaultRetryConfig(),
		MaxInterests:      5,
		TrendingWindow:    30 * 24 * time.Hour,
		Now:               time.Now,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}

	return &Client{
		opts:    opts,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, opts.Burst),
		logger:  logging.OrNoOp(opts.Logger),
	}, nil
}

// getJSON issues GET path?params and decodes the JSON answer into v.
func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, v any) error {
	start := time.Now()
	err := util.Retry(ctx, c.opts.Retry, func() error {
		return c.doGet(ctx, path, params, v)
	})

	if c.opts.OnCall != nil {
		c.opts.OnCall(op, time.Since(start), err)
	}
	if err != nil {
		c.logger.Warn("Insight request failed", "operation", op, "path", path, "duration", time.Since(start), "error", err)
		return err
	}
	c.logger.Debug("Insight request completed", "operation", op, "path", path, "duration", time.Since(start))
	return nil
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return util.Permanent(err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	u := strings.TrimRight(c.opts.BaseURL, "/") + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return util.Permanent(err)
	}
	req.Header.Set("x-api-key", c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return util.Permanent(ctx.Err())
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		se := &StatusError{Path: path, StatusCode: resp.StatusCode, Body: string(body)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return se
		}
		return util.Permanent(se)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return util.Permanent(fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
