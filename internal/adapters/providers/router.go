package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/ports"
)

// Router routes completion requests to the vendor adapter selected by the
// model-name prefix. Admission control (request validation, credential
// lookup, per-user rate limiting) happens here, before any adapter or
// network work; usage accounting happens here after.
type Router struct {
	credentials ports.CredentialStore
	limiter     ports.RateLimiter
	ledger      ports.Ledger
	adapters    map[domain.Provider]ports.ProviderAdapter
	logger      *slog.Logger

	limit         int
	windowSeconds int
}

var _ ports.CompletionClient = (*Router)(nil)

// RouterDeps wires the router's collaborators. Adapters left nil get the
// default set: a production openai adapter and template stubs for the
// other vendors.
type RouterDeps struct {
	Credentials   ports.CredentialStore
	Limiter       ports.RateLimiter
	Ledger        ports.Ledger
	HTTPClient    ports.HTTPClient
	Adapters      map[domain.Provider]ports.ProviderAdapter
	OpenAIBaseURL string
	Limit         int
	WindowSeconds int
	Logger        *slog.Logger
}

func NewRouter(deps RouterDeps) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	adapters := deps.Adapters
	if adapters == nil {
		adapters = map[domain.Provider]ports.ProviderAdapter{
			domain.ProviderOpenAI:    NewOpenAIAdapter(deps.HTTPClient, deps.OpenAIBaseURL, logger),
			domain.ProviderAnthropic: NewTemplateAdapter(domain.ProviderAnthropic, logger),
			domain.ProviderGoogle:    NewTemplateAdapter(domain.ProviderGoogle, logger),
			domain.ProviderCohere:    NewTemplateAdapter(domain.ProviderCohere, logger),
		}
	}

	limit := deps.Limit
	if limit <= 0 {
		limit = 60
	}
	windowSeconds := deps.WindowSeconds
	if windowSeconds <= 0 {
		windowSeconds = 60
	}

	return &Router{
		credentials:   deps.Credentials,
		limiter:       deps.Limiter,
		ledger:        deps.Ledger,
		adapters:      adapters,
		logger:        logger.With("component", "provider-router"),
		limit:         limit,
		windowSeconds: windowSeconds,
	}
}

func (r *Router) Generate(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	provider := domain.ProviderForModel(req.Model)
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %s", provider)
	}

	credential, err := r.credentials.GetActiveKey(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("credential lookup for %s: %w", provider, err)
	}
	if credential == nil || credential.APIKey == "" {
		return nil, domain.NewCredentialError(provider)
	}

	if r.limiter != nil && !r.limiter.Allow(req.UserID) {
		r.logger.Warn("request rate limited", "user_id", req.UserID, "model", req.Model)
		return nil, domain.NewRateLimitError(req.UserID, r.limit, r.windowSeconds)
	}

	started := time.Now()
	response, err := adapter.Generate(ctx, req, credential.APIKey)
	if err != nil {
		r.logger.Error("provider call failed",
			"provider", string(provider),
			"model", req.Model,
			"error", err.Error(),
		)
		return nil, err
	}

	r.logger.Debug("completion routed",
		"provider", string(provider),
		"model", req.Model,
		"duration", time.Since(started),
		"total_tokens", response.Usage.TotalTokens,
	)

	r.recordUsage(ctx, provider, req, response)

	return response, nil
}

// recordUsage forwards accounting to the ledger. Ledger failures are
// logged and swallowed; they never affect the reply.
func (r *Router) recordUsage(ctx context.Context, provider domain.Provider, req domain.CompletionRequest, res *domain.CompletionResponse) {
	if r.ledger == nil {
		return
	}
	err := r.ledger.RecordUsage(ctx, ports.UsageRecord{
		ID:       uuid.New().String(),
		UserID:   req.UserID,
		Provider: provider,
		Model:    res.Model,
		Usage:    res.Usage,
		Cost:     res.Cost,
		At:       time.Now(),
	})
	if err != nil {
		r.logger.Error("usage record write failed", "user_id", req.UserID, "error", err.Error())
	}
}

// ValidateKey checks an API key's shape for any provider and, for openai,
// verifies it against the live API when the adapter supports verification.
func (r *Router) ValidateKey(ctx context.Context, provider domain.Provider, key string, live bool) (bool, error) {
	if !ValidateKeyShape(provider, key) {
		return false, nil
	}
	if !live || provider != domain.ProviderOpenAI {
		return true, nil
	}
	verifier, ok := r.adapters[domain.ProviderOpenAI].(interface {
		VerifyKey(ctx context.Context, apiKey string) error
	})
	if !ok {
		return true, nil
	}
	if err := verifier.VerifyKey(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}
