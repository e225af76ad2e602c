package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/ports"
	"github.com/loopline-ai/loopline/internal/xjson"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = 1 * time.Second
	apiKeyHeader      = "X-API-Key"
)

// Client issues HTTP requests with auth-header injection, per-request
// timeout, and retry with exponential backoff. Retried classes are network
// errors, 5xx, 408, and 429; other 4xx responses fail immediately.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger.With("component", "transport"),
	}
}

var _ ports.HTTPClient = (*Client)(nil)

func (c *Client) Do(ctx context.Context, cfg ports.RequestConfig) (*ports.HTTPResponse, error) {
	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := defaultRetries
	if cfg.Retries != nil && *cfg.Retries >= 0 {
		retries = *cfg.Retries
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	var body []byte
	if cfg.Body != nil {
		encoded, err := xjson.Marshal(cfg.Body)
		if err != nil {
			return nil, &domain.HTTPError{URL: cfg.URL, Err: err}
		}
		body = encoded
	}

	started := time.Now()
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		response, err := c.attempt(ctx, method, cfg, timeout, body)
		if err == nil {
			response.ExecutionTime = time.Since(started)
			return response, nil
		}
		lastErr = err

		if !retryable(err) || attempt == retries {
			break
		}

		delay := backoffDelay(retryDelay, attempt)
		c.logger.Debug("retrying request",
			"url", cfg.URL,
			"method", method,
			"attempt", attempt+1,
			"delay", delay,
			"error", err.Error(),
		)
		if err := sleep(ctx, delay); err != nil {
			break
		}
	}

	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, method string, cfg ports.RequestConfig, timeout time.Duration, body []byte) (*ports.HTTPResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, cfg.URL, reader)
	if err != nil {
		return nil, &domain.HTTPError{URL: cfg.URL, Err: err}
	}

	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	applyAuthentication(req, cfg.Authentication)

	res, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() != nil {
			return nil, &domain.HTTPError{
				Status:     http.StatusRequestTimeout,
				StatusText: "Request Timeout",
				URL:        cfg.URL,
				Err:        err,
			}
		}
		return nil, &domain.HTTPError{URL: cfg.URL, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &domain.HTTPError{URL: cfg.URL, Err: err}
	}

	data := decodeBody(res.Header.Get("Content-Type"), raw)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &domain.HTTPError{
			Status:     res.StatusCode,
			StatusText: res.Status,
			URL:        cfg.URL,
			Response:   data,
		}
	}

	return &ports.HTTPResponse{
		Status:     res.StatusCode,
		StatusText: res.Status,
		Headers:    res.Header,
		Data:       data,
		Raw:        raw,
	}, nil
}

func applyAuthentication(req *http.Request, auth *ports.Authentication) {
	if auth == nil {
		return
	}
	switch auth.Type {
	case ports.AuthTypeBearer:
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case ports.AuthTypeBasic:
		req.SetBasicAuth(auth.Username, auth.Password)
	case ports.AuthTypeAPIKey:
		header := auth.Header
		if header == "" {
			header = apiKeyHeader
		}
		req.Header.Set(header, auth.Value)
	}
}

// decodeBody parses JSON bodies into a generic value and returns other
// bodies as text. A JSON parse failure yields nil rather than an error.
func decodeBody(contentType string, raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	if strings.Contains(contentType, "json") {
		var data interface{}
		if err := xjson.Unmarshal(raw, &data); err != nil {
			return nil
		}
		return data
	}
	return string(raw)
}

// backoffDelay computes base*2^attempt.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base << uint(attempt)
}

// retryable reports whether the failure class is worth another attempt.
func retryable(err error) bool {
	var httpErr *domain.HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	switch {
	case httpErr.Status == 0:
		return true
	case httpErr.Status >= 500:
		return true
	case httpErr.Status == http.StatusRequestTimeout:
		return true
	case httpErr.Status == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
