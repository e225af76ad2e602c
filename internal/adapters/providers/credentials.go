package providers

import (
	"context"

	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/ports"
)

// StaticCredentials is a fixed in-memory credential store, for embedded
// use and tests. Real deployments inject their own ports.CredentialStore.
type StaticCredentials map[domain.Provider]string

var _ ports.CredentialStore = (StaticCredentials)(nil)

func (s StaticCredentials) GetActiveKey(_ context.Context, provider domain.Provider) (*ports.Credential, error) {
	key, ok := s[provider]
	if !ok || key == "" {
		return nil, nil
	}
	return &ports.Credential{Provider: provider, APIKey: key}, nil
}
