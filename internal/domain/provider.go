package domain

import (
	"strconv"
	"strings"
)

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderCohere    Provider = "cohere"
)

// ProviderForModel routes a model name to its vendor by prefix. Unmatched
// names fall back to openai.
func ProviderForModel(model string) Provider {
	switch {
	case strings.HasPrefix(model, "gpt-"):
		return ProviderOpenAI
	case strings.HasPrefix(model, "claude-"):
		return ProviderAnthropic
	case strings.HasPrefix(model, "gemini-"):
		return ProviderGoogle
	case strings.HasPrefix(model, "command-"):
		return ProviderCohere
	default:
		return ProviderOpenAI
	}
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the uniform request shape handed to the provider
// router regardless of the vendor behind the model.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	UserID      string    `json:"user_id"`
}

// Validate checks the request shape before any credential or network work.
func (r *CompletionRequest) Validate() error {
	if r.Model == "" {
		return NewValidationError("model", "model is required")
	}
	if len(r.Messages) == 0 {
		return NewValidationError("messages", "at least one message is required")
	}
	for i, msg := range r.Messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return NewValidationError("messages", "invalid role at index "+strconv.Itoa(i)+": "+msg.Role)
		}
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return NewValidationError("temperature", "temperature must be between 0 and 2")
	}
	if r.MaxTokens != nil && *r.MaxTokens < 1 {
		return NewValidationError("max_tokens", "max_tokens must be at least 1")
	}
	return nil
}

// LastUserMessage returns the content of the most recent user message.
func (r *CompletionRequest) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// SystemPrompt returns the content of the first system message.
func (r *CompletionRequest) SystemPrompt() string {
	for _, msg := range r.Messages {
		if msg.Role == RoleSystem {
			return msg.Content
		}
	}
	return ""
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the uniform reply shape produced by every vendor
// adapter. Cost is populated only when a pricing table covers the model.
type CompletionResponse struct {
	Content      string     `json:"content"`
	Usage        TokenUsage `json:"usage"`
	Model        string     `json:"model"`
	FinishReason string     `json:"finish_reason"`
	Cost         float64    `json:"cost,omitempty"`
}
