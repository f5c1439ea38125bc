package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"whalewatch/internal/domain/entity"
	"whalewatch/internal/pkg/metrics"

	"github.com/jpillora/backoff"
	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WhaleAPIClient talks to the upstream whale-tracker REST API. Every call
// is bounded by a timeout and transient failures are retried with a fixed
// delay; exhausting the attempt budget surfaces the last observed error.
type WhaleAPIClient struct {
	client       *fasthttp.Client
	baseURL      string
	bulkTimeout  time.Duration
	probeTimeout time.Duration
	maxAttempts  int
	retryDelay   time.Duration
	limiter      *rate.Limiter
	logger       *zap.Logger
}

// Options configures a WhaleAPIClient.
type Options struct {
	BaseURL      string
	BulkTimeout  time.Duration
	ProbeTimeout time.Duration
	MaxAttempts  int
	RetryDelay   time.Duration
	RateLimit    rate.Limit
	RateBurst    int
}

// NewWhaleAPIClient creates a client for the given upstream base URL.
func NewWhaleAPIClient(opts Options, logger *zap.Logger) *WhaleAPIClient {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Inf
	}
	return &WhaleAPIClient{
		// The wrapper below owns the retry policy; fasthttp must not add
		// its own attempts for idempotent requests on top of it.
		client:       &fasthttp.Client{MaxIdemponentCallAttempts: 1},
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		bulkTimeout:  opts.BulkTimeout,
		probeTimeout: opts.ProbeTimeout,
		maxAttempts:  opts.MaxAttempts,
		retryDelay:   opts.RetryDelay,
		limiter:      rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		logger:       logger.Named("WhaleAPIClient"),
	}
}

// Health probes the upstream service with the lightweight timeout budget.
func (c *WhaleAPIClient) Health(ctx context.Context) error {
	_, err := c.call(ctx, fasthttp.MethodGet, "/health", nil, c.probeTimeout)
	return err
}

// ListWhales fetches the bulk wallet collection. The upstream has
// returned both a bare array and a {"whales": [...]} wrapper across
// revisions; both shapes are accepted.
func (c *WhaleAPIClient) ListWhales(ctx context.Context) ([]entity.RawWallet, error) {
	body, err := c.call(ctx, fasthttp.MethodGet, "/whales", nil, c.bulkTimeout)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Whales []entity.RawWallet `json:"whales"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Whales != nil {
		return wrapper.Whales, nil
	}

	var direct []entity.RawWallet
	if err := json.Unmarshal(body, &direct); err != nil {
		return nil, &entity.NetworkError{Endpoint: "/whales", Err: fmt.Errorf("unparseable response: %w", err)}
	}
	return direct, nil
}

// GetWhale fetches a single raw wallet record.
func (c *WhaleAPIClient) GetWhale(ctx context.Context, address string) (entity.RawWallet, error) {
	body, err := c.call(ctx, fasthttp.MethodGet, "/whales/"+url.PathEscape(address), nil, c.bulkTimeout)
	if err != nil {
		return nil, err
	}
	var raw entity.RawWallet
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &entity.NetworkError{Endpoint: "/whales/" + address, Err: fmt.Errorf("unparseable response: %w", err)}
	}
	return raw, nil
}

// GetPositions fetches the raw open positions for one wallet.
func (c *WhaleAPIClient) GetPositions(ctx context.Context, address string) ([]entity.RawPosition, error) {
	endpoint := "/whales/" + url.PathEscape(address) + "/positions"
	body, err := c.call(ctx, fasthttp.MethodGet, endpoint, nil, c.bulkTimeout)
	if err != nil {
		return nil, err
	}
	var raws []entity.RawPosition
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, &entity.NetworkError{Endpoint: endpoint, Err: fmt.Errorf("unparseable response: %w", err)}
	}
	return raws, nil
}

// GetTrades fetches up to limit recent fills for one wallet.
func (c *WhaleAPIClient) GetTrades(ctx context.Context, address string, limit int) ([]entity.RawTrade, error) {
	endpoint := fmt.Sprintf("/whales/%s/trades?limit=%d", url.PathEscape(address), limit)
	body, err := c.call(ctx, fasthttp.MethodGet, endpoint, nil, c.bulkTimeout)
	if err != nil {
		return nil, err
	}
	var raws []entity.RawTrade
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, &entity.NetworkError{Endpoint: endpoint, Err: fmt.Errorf("unparseable response: %w", err)}
	}
	return raws, nil
}

// AddWhale registers a new tracked wallet upstream.
func (c *WhaleAPIClient) AddWhale(ctx context.Context, address, nickname string) error {
	payload, err := json.Marshal(map[string]string{"address": address, "nickname": nickname})
	if err != nil {
		return fmt.Errorf("failed to marshal add-whale payload: %w", err)
	}
	_, err = c.call(ctx, fasthttp.MethodPost, "/whales", payload, c.bulkTimeout)
	return err
}

// RemoveWhale deletes a tracked wallet upstream.
func (c *WhaleAPIClient) RemoveWhale(ctx context.Context, address string) error {
	_, err := c.call(ctx, fasthttp.MethodDelete, "/whales/"+url.PathEscape(address), nil, c.bulkTimeout)
	return err
}

// AlertingStatus fetches the Telegram alerting probe.
func (c *WhaleAPIClient) AlertingStatus(ctx context.Context) (entity.AlertingStatus, error) {
	body, err := c.call(ctx, fasthttp.MethodGet, "/telegram/status", nil, c.probeTimeout)
	if err != nil {
		return entity.AlertingStatus{}, err
	}
	var status entity.AlertingStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return entity.AlertingStatus{}, &entity.NetworkError{Endpoint: "/telegram/status", Err: fmt.Errorf("unparseable response: %w", err)}
	}
	return status, nil
}

// call issues one logical request with the retry policy applied: up to
// maxAttempts attempts with a fixed delay between them. An HTTP 404 is
// assumed to be a missing resource, not a transient condition, and is
// never retried.
func (c *WhaleAPIClient) call(ctx context.Context, method, endpoint string, body []byte, timeout time.Duration) ([]byte, error) {
	delay := &backoff.Backoff{
		Min:    c.retryDelay,
		Max:    c.retryDelay,
		Factor: 1,
		Jitter: false,
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &entity.NetworkError{Endpoint: endpoint, Err: err}
		}

		respBody, err := c.do(ctx, method, endpoint, body, timeout)
		if err == nil {
			return respBody, nil
		}
		lastErr = err

		if !entity.Retryable(err) {
			return nil, err
		}
		if attempt == c.maxAttempts {
			break
		}

		metrics.UpstreamRetries.Inc()
		c.logger.Warn("Upstream request failed, retrying",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", c.maxAttempts),
			zap.Error(err))

		select {
		case <-time.After(delay.Duration()):
		case <-ctx.Done():
			return nil, &entity.NetworkError{Endpoint: endpoint, Err: ctx.Err()}
		}
	}
	return nil, lastErr
}

// do issues exactly one timeout-bounded request and classifies the
// outcome into the shared error taxonomy.
func (c *WhaleAPIClient) do(ctx context.Context, method, endpoint string, body []byte, timeout time.Duration) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.baseURL + endpoint)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if len(body) > 0 {
		req.SetBody(body)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	started := time.Now()
	err := c.client.DoDeadline(req, resp, deadline)
	metrics.UpstreamRequestDuration.WithLabelValues(method).Observe(time.Since(started).Seconds())

	if err != nil {
		if err == fasthttp.ErrTimeout || err == fasthttp.ErrDialTimeout || err == fasthttp.ErrTLSHandshakeTimeout {
			c.logger.Debug("Upstream request timed out", zap.String("endpoint", endpoint), zap.Duration("budget", timeout))
			return nil, &entity.TimeoutError{Endpoint: endpoint, Budget: timeout}
		}
		return nil, &entity.NetworkError{Endpoint: endpoint, Err: err}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return nil, &entity.HTTPError{
			Endpoint: endpoint,
			Status:   status,
			Detail:   extractDetail(resp.Body()),
		}
	}

	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

// extractDetail pulls the server-supplied detail message out of an error
// body when it is parseable JSON.
func extractDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Detail
}
