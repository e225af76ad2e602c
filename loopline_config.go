package loopline

import (
	"log/slog"
	"time"

	"github.com/loopline-ai/loopline/internal/adapters/providers"
	"github.com/loopline-ai/loopline/internal/ports"
)

// Config assembles an Engine. Zero-value fields fall back to the
// defaults described on each field.
type Config struct {
	// DataDir enables the Badger-backed ledger at the given path. Empty
	// keeps records in process memory. Ignored when Ledger is set.
	DataDir string

	// Ledger overrides the record sink. The engine does not close a
	// caller-supplied ledger.
	Ledger ports.Ledger

	// Credentials resolves provider API keys. Defaults to an empty
	// static store, which makes live provider calls fail with a
	// credential error.
	Credentials ports.CredentialStore

	// Tools are registered before the engine is returned.
	Tools []ToolDefinition

	// HTTPClient overrides the outbound transport used for provider
	// and tool calls.
	HTTPClient ports.HTTPClient

	// OpenAIBaseURL overrides the OpenAI endpoint, for proxies and tests.
	OpenAIBaseURL string

	// RateLimit is the number of provider calls allowed per user within
	// RateLimitWindow. Defaults to 60 per minute.
	RateLimit       int
	RateLimitWindow time.Duration

	Logger *slog.Logger
}

// StaticCredentials is a fixed provider-to-key map usable as a
// CredentialStore.
type StaticCredentials = providers.StaticCredentials

// DefaultConfig returns the embedded-use defaults: in-memory ledger, no
// credentials, 60 provider calls per user per minute.
func DefaultConfig() *Config {
	return &Config{
		RateLimit:       60,
		RateLimitWindow: time.Minute,
	}
}

// ConfigBuilder accumulates Config fields fluently.
type ConfigBuilder struct {
	config *Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: DefaultConfig()}
}

func (cb *ConfigBuilder) WithDataDir(dir string) *ConfigBuilder {
	cb.config.DataDir = dir
	return cb
}

func (cb *ConfigBuilder) WithLedger(sink ports.Ledger) *ConfigBuilder {
	cb.config.Ledger = sink
	return cb
}

func (cb *ConfigBuilder) WithCredential(provider Provider, key string) *ConfigBuilder {
	static, ok := cb.config.Credentials.(StaticCredentials)
	if !ok || static == nil {
		static = StaticCredentials{}
		cb.config.Credentials = static
	}
	static[provider] = key
	return cb
}

func (cb *ConfigBuilder) WithCredentialStore(store ports.CredentialStore) *ConfigBuilder {
	cb.config.Credentials = store
	return cb
}

func (cb *ConfigBuilder) WithTool(tool ToolDefinition) *ConfigBuilder {
	cb.config.Tools = append(cb.config.Tools, tool)
	return cb
}

func (cb *ConfigBuilder) WithHTTPClient(client ports.HTTPClient) *ConfigBuilder {
	cb.config.HTTPClient = client
	return cb
}

func (cb *ConfigBuilder) WithOpenAIBaseURL(baseURL string) *ConfigBuilder {
	cb.config.OpenAIBaseURL = baseURL
	return cb
}

func (cb *ConfigBuilder) WithRateLimit(limit int, window time.Duration) *ConfigBuilder {
	cb.config.RateLimit = limit
	cb.config.RateLimitWindow = window
	return cb
}

func (cb *ConfigBuilder) WithLogger(logger *slog.Logger) *ConfigBuilder {
	cb.config.Logger = logger
	return cb
}

func (cb *ConfigBuilder) Build() *Config {
	return cb.config
}
