package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/ports"
)

// Memory keeps run and step records in process memory. It is the default
// ledger for embedded use and the inspection point for tests.
type Memory struct {
	mu          sync.RWMutex
	runs        map[string]ports.RunRecord
	steps       map[string][]domain.ExecutionStep
	invocations []ports.ToolInvocation
	usage       []ports.UsageRecord
}

var _ ports.Ledger = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		runs:  make(map[string]ports.RunRecord),
		steps: make(map[string][]domain.ExecutionStep),
	}
}

func (m *Memory) CreateRun(_ context.Context, run ports.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) UpdateRun(_ context.Context, runID string, update ports.RunUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("update run %s: %w", runID, domain.ErrLedgerNotFound)
	}
	run.Status = update.Status
	run.Output = update.Output
	run.Error = update.Error
	run.CompletedAt = update.CompletedAt
	m.runs[runID] = run
	return nil
}

func (m *Memory) CreateStep(_ context.Context, runID string, step domain.ExecutionStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[runID] = append(m.steps[runID], step)
	return nil
}

func (m *Memory) UpdateStep(_ context.Context, runID string, step domain.ExecutionStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	steps := m.steps[runID]
	for i := range steps {
		if steps[i].ID == step.ID {
			steps[i] = step
			return nil
		}
	}
	return fmt.Errorf("update step %s in run %s: %w", step.ID, runID, domain.ErrLedgerNotFound)
}

func (m *Memory) RecordToolInvocation(_ context.Context, invocation ports.ToolInvocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invocations = append(m.invocations, invocation)
	return nil
}

func (m *Memory) RecordUsage(_ context.Context, usage ports.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = append(m.usage, usage)
	return nil
}

// Run returns the stored record for runID.
func (m *Memory) Run(runID string) (ports.RunRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[runID]
	return run, ok
}

// Runs returns every stored run record in no particular order.
func (m *Memory) Runs() []ports.RunRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ports.RunRecord, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run)
	}
	return out
}

// Steps returns the steps recorded for runID in creation order.
func (m *Memory) Steps(runID string) []domain.ExecutionStep {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ExecutionStep, len(m.steps[runID]))
	copy(out, m.steps[runID])
	return out
}

// Invocations returns all recorded tool invocations.
func (m *Memory) Invocations() []ports.ToolInvocation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ports.ToolInvocation, len(m.invocations))
	copy(out, m.invocations)
	return out
}

// Usage returns all recorded usage entries.
func (m *Memory) Usage() []ports.UsageRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ports.UsageRecord, len(m.usage))
	copy(out, m.usage)
	return out
}
