// Package work24 is the HTTP client for the Work24 small-giant company open API.
package work24

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smallgiants/internal/metrics"
)

// Defaults for the public endpoint.
const (
	DefaultBaseURL   = "https://www.work24.go.kr/cm/openApi/call/wk/callOpenApiSvcInfo216L01.do"
	DefaultUserAgent = "smallcaps/1.0"
	DefaultTimeout   = 30 * time.Second

	returnTypeXML = "XML"
)

// PageRequest identifies one upstream page.
type PageRequest struct {
	Page     int
	PageSize int
	Region   string // optional
}

// StatusError is returned for a non-2xx upstream response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string { return "HTTP " + strconv.Itoa(e.StatusCode) }

// Config holds the upstream client settings.
type Config struct {
	BaseURL    string
	AuthKey    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client // optional, overrides Timeout
	Logger     *zap.Logger
}

// Client fetches raw XML pages.
type Client struct {
	http      *http.Client
	baseURL   string
	authKey   string
	userAgent string
	logger    *zap.Logger
}

// NewClient creates an upstream client, filling empty settings with defaults.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		http:      hc,
		baseURL:   baseURL,
		authKey:   cfg.AuthKey,
		userAgent: ua,
		logger:    logger,
	}
}

// PageURL builds the request URL for one page.
func (c *Client) PageURL(req PageRequest) string {
	params := url.Values{}
	params.Set("authKey", c.authKey)
	params.Set("returnType", returnTypeXML)
	params.Set("startPage", strconv.Itoa(req.Page))
	params.Set("display", strconv.Itoa(req.PageSize))
	if req.Region != "" {
		params.Set("region", req.Region)
	}
	return c.baseURL + "?" + params.Encode()
}

// FetchPage performs a single GET and returns the raw body. Transport failures and
// non-2xx statuses are errors; the body is not inspected.
func (c *Client) FetchPage(ctx context.Context, req PageRequest) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL(req), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.UpstreamRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("request page %d: %w", req.Page, redact(err))
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.UpstreamRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read page %d: %w", req.Page, err)
	}

	c.logger.Debug("Fetched upstream page",
		zap.Int("page", req.Page),
		zap.Int("bytes", len(body)),
		zap.Duration("latency", time.Since(start)),
	)
	return body, nil
}

// redact strips the request URL (which carries the auth key) from transport errors.
func redact(err error) error {
	if ue, ok := err.(*url.Error); ok { //nolint:errorlint // http.Client returns *url.Error unwrapped
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
