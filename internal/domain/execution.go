package domain

import (
	"time"

	"github.com/google/uuid"
)

type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// VariableInput is the reserved variables key holding the caller's input.
const VariableInput = "input"

// ExecutionContext is the mutable per-run state threaded through every
// node handler. Variables is append-only for the duration of a run: each
// completed node stores its output under its own node id.
type ExecutionContext struct {
	ExecutionID   string
	AgentID       string
	UserID        string
	Input         interface{}
	Variables     map[string]interface{}
	CurrentNodeID string
	StartedAt     time.Time
}

func NewExecutionContext(agentID, userID string, input interface{}) *ExecutionContext {
	return &ExecutionContext{
		ExecutionID: uuid.New().String(),
		AgentID:     agentID,
		UserID:      userID,
		Input:       input,
		Variables:   map[string]interface{}{VariableInput: input},
		StartedAt:   time.Now(),
	}
}

// SetVariable records a node's output. Existing entries are overwritten
// only when a cyclic graph revisits a node; the map never shrinks.
func (ec *ExecutionContext) SetVariable(nodeID string, value interface{}) {
	ec.Variables[nodeID] = value
}

// InputText resolves the textual form of the run input: a map's "message"
// entry, a plain string, or the empty string.
func (ec *ExecutionContext) InputText() string {
	switch v := ec.Variables[VariableInput].(type) {
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	case string:
		return v
	}
	return ""
}

// ExecutionStep is the ledger-visible record of one node visit.
type ExecutionStep struct {
	ID          string      `json:"id"`
	NodeID      string      `json:"node_id"`
	NodeType    NodeType    `json:"node_type"`
	Status      StepStatus  `json:"status"`
	Input       interface{} `json:"input,omitempty"`
	Output      interface{} `json:"output,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Error       string      `json:"error,omitempty"`
}

func NewExecutionStep(node WorkflowNode, input interface{}) ExecutionStep {
	return ExecutionStep{
		ID:        uuid.New().String(),
		NodeID:    node.ID,
		NodeType:  node.Type,
		Status:    StepStatusRunning,
		Input:     input,
		StartedAt: time.Now(),
	}
}

// Complete marks the step finished with the given output.
func (s *ExecutionStep) Complete(output interface{}) {
	now := time.Now()
	s.Status = StepStatusCompleted
	s.Output = output
	s.CompletedAt = &now
}

// Fail marks the step failed with the given error text.
func (s *ExecutionStep) Fail(errText string) {
	now := time.Now()
	s.Status = StepStatusFailed
	s.Error = errText
	s.CompletedAt = &now
}

// ExecutionResult is the caller-facing outcome of a run. Terminal failures
// surface as a human-readable Error string; callers never see a panic or
// an unhandled error from the executor.
type ExecutionResult struct {
	Success       bool            `json:"success"`
	Output        interface{}     `json:"output,omitempty"`
	Error         string          `json:"error,omitempty"`
	ExecutionTime time.Duration   `json:"execution_time"`
	Steps         []ExecutionStep `json:"steps"`
}
