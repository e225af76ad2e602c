package providers

import "github.com/loopline-ai/loopline/internal/domain"

// modelRate is the static $/1K-token price for one model, with separate
// input and output rates.
type modelRate struct {
	Input  float64
	Output float64
}

var pricing = map[string]modelRate{
	"gpt-3.5-turbo":     {Input: 0.0005, Output: 0.0015},
	"gpt-3.5-turbo-16k": {Input: 0.003, Output: 0.004},
	"gpt-4":             {Input: 0.03, Output: 0.06},
	"gpt-4-32k":         {Input: 0.06, Output: 0.12},
	"gpt-4-turbo":       {Input: 0.01, Output: 0.03},
	"gpt-4o":            {Input: 0.005, Output: 0.015},
	"gpt-4o-mini":       {Input: 0.00015, Output: 0.0006},
}

// Cost computes the dollar cost of one call from the usage counts. Models
// absent from the table cost zero; the table is a billing estimate, not a
// gate.
func Cost(model string, usage domain.TokenUsage) float64 {
	rate, ok := pricing[model]
	if !ok {
		return 0
	}
	return float64(usage.PromptTokens)/1000*rate.Input +
		float64(usage.CompletionTokens)/1000*rate.Output
}
