package providers

import (
	"strings"

	"github.com/loopline-ai/loopline/internal/domain"
)

type keyShape struct {
	prefix    string
	minLength int
}

var keyShapes = map[domain.Provider]keyShape{
	domain.ProviderOpenAI:    {prefix: "sk-", minLength: 20},
	domain.ProviderAnthropic: {prefix: "sk-ant-", minLength: 20},
	domain.ProviderGoogle:    {prefix: "AIza", minLength: 20},
	domain.ProviderCohere:    {prefix: "", minLength: 20},
}

// ValidateKeyShape checks prefix and minimum length for a provider's API
// key. This is a shape check only, not proof the key is live; VerifyKey on
// the openai adapter performs the real check.
func ValidateKeyShape(provider domain.Provider, key string) bool {
	shape, ok := keyShapes[provider]
	if !ok {
		return false
	}
	key = strings.TrimSpace(key)
	if len(key) < shape.minLength {
		return false
	}
	return shape.prefix == "" || strings.HasPrefix(key, shape.prefix)
}
