package ports

import (
	"context"
	"time"

	"github.com/loopline-ai/loopline/internal/domain"
)

// RunRecord is the ledger's view of one workflow execution.
type RunRecord struct {
	ID          string            `json:"id"`
	AgentID     string            `json:"agent_id"`
	UserID      string            `json:"user_id"`
	Status      domain.RunStatus  `json:"status"`
	Input       interface{}       `json:"input,omitempty"`
	Output      interface{}       `json:"output,omitempty"`
	Error       string            `json:"error,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// RunUpdate carries the terminal fields written when a run finishes.
type RunUpdate struct {
	Status      domain.RunStatus `json:"status"`
	Output      interface{}      `json:"output,omitempty"`
	Error       string           `json:"error,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// ToolInvocation records one tool dispatch, successful or not.
type ToolInvocation struct {
	ID       string        `json:"id"`
	ToolID   string        `json:"tool_id"`
	UserID   string        `json:"user_id"`
	Status   string        `json:"status"`
	Input    interface{}   `json:"input,omitempty"`
	Output   interface{}   `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	At       time.Time     `json:"at"`
}

// UsageRecord records token consumption and cost for one LLM call.
type UsageRecord struct {
	ID       string            `json:"id"`
	UserID   string            `json:"user_id"`
	Provider domain.Provider   `json:"provider"`
	Model    string            `json:"model"`
	Usage    domain.TokenUsage `json:"usage"`
	Cost     float64           `json:"cost"`
	At       time.Time         `json:"at"`
}

// Ledger is the durable, write-only sink for run and step records. The
// engine never reads it back; every write failure is logged by the caller
// and swallowed so it cannot alter a run's outcome.
type Ledger interface {
	CreateRun(ctx context.Context, run RunRecord) error
	UpdateRun(ctx context.Context, runID string, update RunUpdate) error
	CreateStep(ctx context.Context, runID string, step domain.ExecutionStep) error
	UpdateStep(ctx context.Context, runID string, step domain.ExecutionStep) error
	RecordToolInvocation(ctx context.Context, invocation ToolInvocation) error
	RecordUsage(ctx context.Context, usage UsageRecord) error
}
