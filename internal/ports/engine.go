package ports

import (
	"context"

	"github.com/loopline-ai/loopline/internal/domain"
)

// Executor drives one workflow definition from its start node to a
// terminal state and always returns a structured result.
type Executor interface {
	Execute(ctx context.Context, def domain.WorkflowDefinition, input interface{}, agentID, userID string) domain.ExecutionResult
}

// NodeHandler executes one node type. Handlers read node config and the
// shared execution context and return the node's output value.
type NodeHandler interface {
	Execute(ctx context.Context, node domain.WorkflowNode, ec *domain.ExecutionContext) (interface{}, error)
}

// NodeHandlerFunc adapts a function to the NodeHandler interface.
type NodeHandlerFunc func(ctx context.Context, node domain.WorkflowNode, ec *domain.ExecutionContext) (interface{}, error)

func (f NodeHandlerFunc) Execute(ctx context.Context, node domain.WorkflowNode, ec *domain.ExecutionContext) (interface{}, error) {
	return f(ctx, node, ec)
}

// LockManager is the single-flight admission gate. TryAcquire never blocks;
// a false return means a run for the key is already in flight.
type LockManager interface {
	TryAcquire(key string) bool
	Release(key string)
}

// RateLimiter answers whether one more request for key is inside quota.
type RateLimiter interface {
	Allow(key string) bool
}
