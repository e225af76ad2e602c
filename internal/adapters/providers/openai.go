package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/ports"
	"github.com/loopline-ai/loopline/internal/xjson"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIAdapter is the production chat-completions integration. All
// traffic goes through the transport client, which owns timeout and retry
// behavior.
type OpenAIAdapter struct {
	httpClient ports.HTTPClient
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
}

var _ ports.ProviderAdapter = (*OpenAIAdapter)(nil)

func NewOpenAIAdapter(httpClient ports.HTTPClient, baseURL string, logger *slog.Logger) *OpenAIAdapter {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIAdapter{
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    60 * time.Second,
		logger:     logger.With("component", "openai-adapter"),
	}
}

type openAIRequest struct {
	Model       string           `json:"model"`
	Messages    []domain.Message `json:"messages"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
	User        string           `json:"user,omitempty"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      domain.Message `json:"message"`
		FinishReason string         `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (a *OpenAIAdapter) Generate(ctx context.Context, req domain.CompletionRequest, apiKey string) (*domain.CompletionResponse, error) {
	payload := openAIRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		User:        req.UserID,
	}

	res, err := a.httpClient.Do(ctx, ports.RequestConfig{
		URL:     a.baseURL + "/chat/completions",
		Method:  http.MethodPost,
		Body:    payload,
		Timeout: a.timeout,
		Authentication: &ports.Authentication{
			Type:  ports.AuthTypeBearer,
			Token: apiKey,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	var decoded openAIResponse
	if err := xjson.Unmarshal(res.Raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("openai response %s has no choices", decoded.ID)
	}

	usage := domain.TokenUsage{
		PromptTokens:     decoded.Usage.PromptTokens,
		CompletionTokens: decoded.Usage.CompletionTokens,
		TotalTokens:      decoded.Usage.TotalTokens,
	}
	model := decoded.Model
	if model == "" {
		model = req.Model
	}

	a.logger.Debug("completion generated",
		"model", model,
		"prompt_tokens", usage.PromptTokens,
		"completion_tokens", usage.CompletionTokens,
	)

	return &domain.CompletionResponse{
		Content:      decoded.Choices[0].Message.Content,
		Usage:        usage,
		Model:        model,
		FinishReason: decoded.Choices[0].FinishReason,
		Cost:         Cost(req.Model, usage),
	}, nil
}

// VerifyKey checks the key against the live API with a list-models call.
func (a *OpenAIAdapter) VerifyKey(ctx context.Context, apiKey string) error {
	_, err := a.httpClient.Do(ctx, ports.RequestConfig{
		URL:    a.baseURL + "/models",
		Method: http.MethodGet,
		Authentication: &ports.Authentication{
			Type:  ports.AuthTypeBearer,
			Token: apiKey,
		},
	})
	if err != nil {
		return fmt.Errorf("verify openai key: %w", err)
	}
	return nil
}
