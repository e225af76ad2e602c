package tools

import (
	"context"
	"sync"

	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/ports"
)

// Registry is the in-memory tool catalog used for embedded deployments
// and tests. Production callers inject their own ports.ToolRegistry
// backed by whatever stores the builder writes to.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]domain.ToolDefinition
}

var _ ports.ToolRegistry = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]domain.ToolDefinition)}
}

func (r *Registry) Register(tool domain.ToolDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.ID] = tool
}

func (r *Registry) GetTool(_ context.Context, id string) (*domain.ToolDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[id]
	if !ok {
		return nil, nil
	}
	return &tool, nil
}
