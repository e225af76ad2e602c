package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/ports"
)

// TemplateAdapter is an integration placeholder for vendors without a
// production path. Replies are deterministic, selected by keyword matching
// on the latest user message and system-prompt hints; token counts are
// approximated as len/4.
type TemplateAdapter struct {
	provider domain.Provider
	logger   *slog.Logger
}

var _ ports.ProviderAdapter = (*TemplateAdapter)(nil)

func NewTemplateAdapter(provider domain.Provider, logger *slog.Logger) *TemplateAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateAdapter{
		provider: provider,
		logger:   logger.With("component", "template-adapter", "provider", string(provider)),
	}
}

type replyTemplate struct {
	keywords []string
	text     string
}

var replyTemplates = []replyTemplate{
	{
		keywords: []string{"hello", "hi", "hey"},
		text:     "Hello! How can I help you today?",
	},
	{
		keywords: []string{"help", "assist", "support"},
		text:     "I'm here to help. Tell me more about what you need and I'll do my best.",
	},
	{
		keywords: []string{"code", "program", "function", "bug"},
		text:     "Let's work through that code together. Could you share the relevant snippet and what you expect it to do?",
	},
	{
		keywords: []string{"summarize", "summary", "tldr"},
		text:     "Here's a short summary of the main points you raised.",
	},
	{
		keywords: []string{"thank", "thanks"},
		text:     "You're welcome! Let me know if there's anything else.",
	},
}

func (a *TemplateAdapter) Generate(_ context.Context, req domain.CompletionRequest, _ string) (*domain.CompletionResponse, error) {
	userMessage := strings.ToLower(req.LastUserMessage())
	systemPrompt := strings.ToLower(req.SystemPrompt())

	reply := a.selectReply(userMessage, systemPrompt)

	usage := domain.TokenUsage{
		PromptTokens:     approximateTokens(req.LastUserMessage() + req.SystemPrompt()),
		CompletionTokens: approximateTokens(reply),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	a.logger.Debug("template reply selected", "model", req.Model, "tokens", usage.TotalTokens)

	return &domain.CompletionResponse{
		Content:      reply,
		Usage:        usage,
		Model:        req.Model,
		FinishReason: "stop",
	}, nil
}

func (a *TemplateAdapter) selectReply(userMessage, systemPrompt string) string {
	for _, tpl := range replyTemplates {
		for _, keyword := range tpl.keywords {
			if strings.Contains(userMessage, keyword) {
				return tpl.text
			}
		}
	}
	if strings.Contains(systemPrompt, "translator") || strings.Contains(systemPrompt, "translate") {
		return "Here is the translation you asked for."
	}
	if strings.Contains(systemPrompt, "writer") || strings.Contains(systemPrompt, "creative") {
		return "Here's a draft to get you started. Happy to revise it."
	}
	if userMessage == "" {
		return fmt.Sprintf("This is a placeholder reply from the %s adapter.", a.provider)
	}
	return "I understand. Could you tell me a bit more so I can give you a useful answer?"
}

// approximateTokens estimates tokens as one per four characters.
func approximateTokens(text string) int {
	return len(text) / 4
}
