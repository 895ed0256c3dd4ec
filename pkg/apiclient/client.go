// Package apiclient talks to the remote content API over HTTP.
//
// Every call maps to one of three outcomes: a decoded record when the API
// answers with the expected status, a structured ErrorResponse when it
// answers with anything else and a body, or nothing at all when the call
// could not be completed. Transport and decoding failures are logged here
// and never reach the caller as errors.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zhaopengme/dwtrbot/pkg/api"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

const (
	defaultTimeout         = 15 * time.Second
	defaultMaxResponseSize = 2 * 1024 * 1024 // 2 MB
)

// Client implements api.AudioPlayService and api.AuthenticationService.
type Client struct {
	base            *url.URL
	client          *http.Client
	cache           *ResponseCache
	maxResponseSize int64
}

type Option func(*Client)

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithCache enables response caching for anonymous GET requests.
func WithCache(rc *ResponseCache) Option {
	return func(c *Client) { c.cache = rc }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL: %q", baseURL)
	}

	c := &Client{
		base: u,
		client: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		maxResponseSize: defaultMaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// endpoint resolves a path relative to the base URL. Paths keep their
// literal ':' segments ("audioPlays:search").
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

type response struct {
	status int
	body   []byte
}

// do executes req and reads the body. Cached GET responses are served
// without touching the network.
func (c *Client) do(ctx context.Context, hc *http.Client, req *http.Request, cacheable bool) (response, error) {
	key := req.URL.String()
	if cacheable && c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			logger.DebugCF("apiclient", "Cache hit", map[string]interface{}{
				"url": key,
			})
			return response{status: http.StatusOK, body: body}, nil
		}
	}

	resp, err := hc.Do(req.WithContext(ctx))
	if err != nil {
		return response{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return response{}, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > c.maxResponseSize {
		return response{}, fmt.Errorf("response exceeds %d bytes", c.maxResponseSize)
	}

	if cacheable && c.cache != nil && resp.StatusCode == http.StatusOK {
		c.cache.Put(key, body)
	}
	return response{status: resp.StatusCode, body: body}, nil
}

func (c *Client) get(ctx context.Context, hc *http.Client, endpoint string, cacheable bool) (response, error) {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(ctx, hc, req, cacheable)
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) (response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(ctx, c.client, req, false)
}

// decode turns a finished exchange into a Result. op names the call in
// log lines.
func decode[T any](op string, resp response, err error, expect int) api.Result[T] {
	if err != nil {
		logger.WarnCF("apiclient", "API call failed", map[string]interface{}{
			"op":    op,
			"error": err.Error(),
		})
		return api.Absent[T]()
	}

	if resp.status == expect {
		var v T
		if err := json.Unmarshal(resp.body, &v); err != nil {
			logger.WarnCF("apiclient", "Failed to decode response", map[string]interface{}{
				"op":     op,
				"status": resp.status,
				"error":  err.Error(),
			})
			return api.Absent[T]()
		}
		return api.Success(v)
	}

	if len(bytes.TrimSpace(resp.body)) == 0 {
		logger.WarnCF("apiclient", "Received empty body", map[string]interface{}{
			"op":     op,
			"status": resp.status,
		})
		return api.Absent[T]()
	}

	var e api.ErrorResponse
	if err := json.Unmarshal(resp.body, &e); err != nil || e.Status == 0 {
		fields := map[string]interface{}{
			"op":     op,
			"status": resp.status,
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		logger.WarnCF("apiclient", "Failed to decode error response", fields)
		return api.Absent[T]()
	}

	logger.DebugCF("apiclient", "API returned error", map[string]interface{}{
		"op":      op,
		"status":  resp.status,
		"code":    e.Status.String(),
		"message": e.Message,
	})
	return api.Failure[T](e)
}
