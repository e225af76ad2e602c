package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/ports"
)

const minStepBudget = 100

// Executor walks a workflow definition from its start node, dispatching
// each node to its registered handler and threading the shared execution
// context through the run. At most one run is admitted per
// (agentID, userID) key; a second call fails fast without queueing.
type Executor struct {
	handlers *HandlerRegistry
	locks    ports.LockManager
	ledger   ports.Ledger
	logger   *slog.Logger
	defaults domain.WorkflowSettings
}

var _ ports.Executor = (*Executor)(nil)

func NewExecutor(handlers *HandlerRegistry, locks ports.LockManager, sink ports.Ledger, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		handlers: handlers,
		locks:    locks,
		ledger:   sink,
		logger:   logger.With("component", "workflow-executor"),
		defaults: domain.WorkflowSettings{TimeoutSeconds: 300, MaxRetries: 3},
	}
}

func (e *Executor) Execute(ctx context.Context, def domain.WorkflowDefinition, input interface{}, agentID, userID string) domain.ExecutionResult {
	started := time.Now()

	lockKey := agentID + ":" + userID
	if !e.locks.TryAcquire(lockKey) {
		e.logger.Warn("run rejected, already in progress", "agent_id", agentID, "user_id", userID)
		return domain.ExecutionResult{
			Success:       false,
			Error:         domain.NewConcurrencyError(agentID, userID).Error(),
			ExecutionTime: time.Since(started),
			Steps:         []domain.ExecutionStep{},
		}
	}
	defer e.locks.Release(lockKey)

	if err := def.Validate(); err != nil {
		return domain.ExecutionResult{
			Success:       false,
			Error:         err.Error(),
			ExecutionTime: time.Since(started),
			Steps:         []domain.ExecutionStep{},
		}
	}

	startNode, err := def.StartNode()
	if err != nil {
		return domain.ExecutionResult{
			Success:       false,
			Error:         err.Error(),
			ExecutionTime: time.Since(started),
			Steps:         []domain.ExecutionStep{},
		}
	}

	settings := def.Settings.ApplyDefaults(e.defaults)
	if settings.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(settings.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	ec := domain.NewExecutionContext(agentID, userID, input)
	e.logger.Info("run started",
		"execution_id", ec.ExecutionID,
		"agent_id", agentID,
		"user_id", userID,
		"nodes", len(def.Nodes),
	)

	e.createRun(ctx, ec, input)

	return e.run(ctx, def, ec, startNode, started)
}

func (e *Executor) run(ctx context.Context, def domain.WorkflowDefinition, ec *domain.ExecutionContext, startNode *domain.WorkflowNode, started time.Time) domain.ExecutionResult {
	budget := 3 * len(def.Nodes)
	if budget < minStepBudget {
		budget = minStepBudget
	}

	steps := make([]domain.ExecutionStep, 0, len(def.Nodes))
	node := startNode
	var lastOutput interface{}

	for {
		if ctx.Err() != nil {
			return e.fail(ctx, ec, steps, started, domain.ErrRunTimeout)
		}
		if budget == 0 {
			// The definition format permits cycles; the budget is the
			// only bound on them.
			return e.fail(ctx, ec, steps, started, domain.ErrStepBudget)
		}
		budget--

		ec.CurrentNodeID = node.ID
		step := domain.NewExecutionStep(*node, ec.Variables[domain.VariableInput])
		e.createStep(ctx, ec.ExecutionID, step)

		handler, ok := e.handlers.Get(node.Type)
		if !ok {
			step.Fail(domain.ErrUnknownNodeType.Error() + ": " + string(node.Type))
			e.updateStep(ctx, ec.ExecutionID, step)
			steps = append(steps, step)
			return e.fail(ctx, ec, steps, started, domain.NewNodeExecutionError(node.ID, node.Type, domain.ErrUnknownNodeType))
		}

		e.logger.Debug("executing node",
			"execution_id", ec.ExecutionID,
			"node_id", node.ID,
			"node_type", string(node.Type),
		)

		output, err := handler.Execute(ctx, *node, ec)
		if err != nil {
			nodeErr := domain.NewNodeExecutionError(node.ID, node.Type, err)
			step.Fail(err.Error())
			e.updateStep(ctx, ec.ExecutionID, step)
			steps = append(steps, step)
			e.logger.Error("node failed",
				"execution_id", ec.ExecutionID,
				"node_id", node.ID,
				"error", err.Error(),
			)
			return e.fail(ctx, ec, steps, started, nodeErr)
		}

		step.Complete(output)
		e.updateStep(ctx, ec.ExecutionID, step)
		steps = append(steps, step)
		ec.SetVariable(node.ID, output)
		lastOutput = output

		if node.Type == domain.NodeTypeEnd {
			break
		}

		next := e.nextNode(def, node, output)
		if next == nil {
			break
		}
		node = next
	}

	result := domain.ExecutionResult{
		Success:       true,
		Output:        lastOutput,
		ExecutionTime: time.Since(started),
		Steps:         steps,
	}
	e.finishRun(ctx, ec.ExecutionID, domain.RunStatusCompleted, lastOutput, "")
	e.logger.Info("run completed",
		"execution_id", ec.ExecutionID,
		"steps", len(steps),
		"duration", result.ExecutionTime,
	)
	return result
}

// nextNode selects the outgoing edge to follow. A rule or condition node
// with at least two outgoing edges branches on its boolean result: edge 0
// on true, edge 1 on false. Every other case takes the first edge.
func (e *Executor) nextNode(def domain.WorkflowDefinition, node *domain.WorkflowNode, output interface{}) *domain.WorkflowNode {
	edges := def.OutgoingEdges(node.ID)
	if len(edges) == 0 {
		return nil
	}

	edge := edges[0]
	if len(edges) >= 2 && (node.Type == domain.NodeTypeRule || node.Type == domain.NodeTypeCondition) {
		if outMap, ok := output.(map[string]interface{}); ok {
			if result, ok := outMap["result"].(bool); ok && !result {
				edge = edges[1]
			}
		}
	}

	return def.NodeByID(edge.Target)
}

func (e *Executor) fail(ctx context.Context, ec *domain.ExecutionContext, steps []domain.ExecutionStep, started time.Time, err error) domain.ExecutionResult {
	e.finishRun(ctx, ec.ExecutionID, domain.RunStatusFailed, nil, err.Error())
	return domain.ExecutionResult{
		Success:       false,
		Error:         err.Error(),
		ExecutionTime: time.Since(started),
		Steps:         steps,
	}
}

// Ledger writes are observational: failures are logged and never alter
// the run's outcome.

func (e *Executor) createRun(ctx context.Context, ec *domain.ExecutionContext, input interface{}) {
	if e.ledger == nil {
		return
	}
	err := e.ledger.CreateRun(ctx, ports.RunRecord{
		ID:        ec.ExecutionID,
		AgentID:   ec.AgentID,
		UserID:    ec.UserID,
		Status:    domain.RunStatusRunning,
		Input:     input,
		StartedAt: ec.StartedAt,
	})
	if err != nil {
		e.logger.Error("run record write failed", "execution_id", ec.ExecutionID, "error", err.Error())
	}
}

func (e *Executor) finishRun(ctx context.Context, executionID string, status domain.RunStatus, output interface{}, errText string) {
	if e.ledger == nil {
		return
	}
	now := time.Now()
	err := e.ledger.UpdateRun(ctx, executionID, ports.RunUpdate{
		Status:      status,
		Output:      output,
		Error:       errText,
		CompletedAt: &now,
	})
	if err != nil {
		e.logger.Error("run record update failed", "execution_id", executionID, "error", err.Error())
	}
}

func (e *Executor) createStep(ctx context.Context, executionID string, step domain.ExecutionStep) {
	if e.ledger == nil {
		return
	}
	if err := e.ledger.CreateStep(ctx, executionID, step); err != nil {
		e.logger.Error("step record write failed",
			"execution_id", executionID,
			"node_id", step.NodeID,
			"error", err.Error(),
		)
	}
}

func (e *Executor) updateStep(ctx context.Context, executionID string, step domain.ExecutionStep) {
	if e.ledger == nil {
		return
	}
	if err := e.ledger.UpdateStep(ctx, executionID, step); err != nil {
		e.logger.Error("step record update failed",
			"execution_id", executionID,
			"node_id", step.NodeID,
			"error", err.Error(),
		)
	}
}
