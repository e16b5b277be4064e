// Package upstream talks to the third-party concert-data REST API.
//
// Every call issues exactly one GET and classifies the outcome into the error
// kinds defined by gigcache: ErrRateLimited for 429, *gigcache.UpstreamError for
// other non-2xx answers and transport failures. Caching and retries belong to
// the caller.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/orgball2608/gigcache"
)

const (
	apiKeyHeader    = "x-api-key"
	maxBodyBytes    = 4 << 20
	maxErrBodyBytes = 2 << 10
	defaultTimeout  = 10 * time.Second
)

// Config describes one upstream deployment.
type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	Language string // sent as Accept-Language when set
}

type Client struct {
	cfg    Config
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("upstream: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("upstream: parse base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		base:   base,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// Get fetches base URL + segments with the given query and returns the raw 2xx body.
// Segments are unescaped; each one becomes exactly one path element.
func (c *Client) Get(ctx context.Context, segments []string, query url.Values) ([]byte, error) {
	u, err := c.resolve(segments)
	if err != nil {
		return nil, err
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if c.cfg.Language != "" {
		req.Header.Set("Accept-Language", c.cfg.Language)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Upstream request failed", "url", u.Path, "error", err)
		return nil, &gigcache.UpstreamError{StatusCode: http.StatusBadGateway, Body: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		body := readSnippet(resp.Body)
		c.logger.Warn("Upstream rate limit hit", "url", u.Path, "retryAfter", resp.Header.Get("Retry-After"))
		return nil, fmt.Errorf("%w: %s", gigcache.ErrRateLimited, body)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body := readSnippet(resp.Body)
		c.logger.Warn("Upstream returned error status", "url", u.Path, "status", resp.StatusCode)
		return nil, &gigcache.UpstreamError{StatusCode: resp.StatusCode, Body: body}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &gigcache.UpstreamError{StatusCode: http.StatusBadGateway, Body: err.Error(), Err: err}
	}
	c.logger.Debug("Upstream request ok", "url", u.Path, "status", resp.StatusCode, "bytes", len(body), "took", time.Since(start))
	return body, nil
}

func (c *Client) resolve(segments []string) (*url.URL, error) {
	escaped := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return nil, fmt.Errorf("%w: invalid path segment %q", gigcache.ErrBadRequest, seg)
		}
		escaped = append(escaped, url.PathEscape(seg))
	}
	rawPath := c.base.EscapedPath() + "/" + strings.Join(escaped, "/")
	p, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, fmt.Errorf("upstream: build path: %w", err)
	}
	u := *c.base
	u.Path = p
	u.RawPath = rawPath
	return &u, nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrBodyBytes))
	return strings.TrimSpace(string(b))
}
