package ports

import (
	"context"

	"github.com/loopline-ai/loopline/internal/domain"
)

// Credential is an active API key for one provider.
type Credential struct {
	Provider domain.Provider `json:"provider"`
	APIKey   string          `json:"api_key"`
}

// CredentialStore looks up the active key for a provider. A nil credential
// with a nil error means no key is configured.
type CredentialStore interface {
	GetActiveKey(ctx context.Context, provider domain.Provider) (*Credential, error)
}

// ToolRegistry resolves tool definitions by id. A nil definition with a
// nil error means the tool does not exist.
type ToolRegistry interface {
	GetTool(ctx context.Context, id string) (*domain.ToolDefinition, error)
}

// ToolExecutor dispatches one tool invocation on behalf of a user.
type ToolExecutor interface {
	ExecuteTool(ctx context.Context, toolID string, input map[string]interface{}, userID string) (domain.ToolResult, error)
}

// CompletionClient is the router-facing surface node handlers use to reach
// an LLM vendor.
type CompletionClient interface {
	Generate(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error)
}

// ProviderAdapter is one vendor integration behind the router. Template
// stub adapters implement the same interface as production ones.
type ProviderAdapter interface {
	Generate(ctx context.Context, req domain.CompletionRequest, apiKey string) (*domain.CompletionResponse, error)
}
