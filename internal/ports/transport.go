package ports

import (
	"context"
	"net/http"
	"time"
)

type AuthType string

const (
	AuthTypeBearer AuthType = "bearer"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeAPIKey AuthType = "api-key"
)

// Authentication describes the auth header injected into a request.
// Header defaults to X-API-Key for the api-key type.
type Authentication struct {
	Type     AuthType `json:"type"`
	Token    string   `json:"token,omitempty"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`
	Header   string   `json:"header,omitempty"`
	Value    string   `json:"value,omitempty"`
}

// RequestConfig is one outbound HTTP request. Zero values fall back to the
// client defaults (GET, 30s timeout, 3 retries, 1s base delay).
type RequestConfig struct {
	URL            string            `json:"url"`
	Method         string            `json:"method,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           interface{}       `json:"body,omitempty"`
	Timeout        time.Duration     `json:"timeout,omitempty"`
	Retries        *int              `json:"retries,omitempty"`
	RetryDelay     time.Duration     `json:"retry_delay,omitempty"`
	Authentication *Authentication   `json:"authentication,omitempty"`
}

// HTTPResponse is a completed request. Data holds the decoded JSON value
// when the content type indicates JSON, the body text otherwise, and nil
// when decoding fails. Raw always holds the unparsed body.
type HTTPResponse struct {
	Status        int           `json:"status"`
	StatusText    string        `json:"status_text"`
	Headers       http.Header   `json:"headers"`
	Data          interface{}   `json:"data"`
	Raw           []byte        `json:"-"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// HTTPClient issues requests with auth injection, timeout enforcement, and
// retry with exponential backoff.
type HTTPClient interface {
	Do(ctx context.Context, cfg RequestConfig) (*HTTPResponse, error)
}
