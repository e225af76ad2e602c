package ledger

import (
	"context"

	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/ports"
)

// Nop discards every record. For callers that opt out of persistence.
type Nop struct{}

var _ ports.Ledger = Nop{}

func NewNop() Nop { return Nop{} }

func (Nop) CreateRun(context.Context, ports.RunRecord) error                   { return nil }
func (Nop) UpdateRun(context.Context, string, ports.RunUpdate) error           { return nil }
func (Nop) CreateStep(context.Context, string, domain.ExecutionStep) error     { return nil }
func (Nop) UpdateStep(context.Context, string, domain.ExecutionStep) error     { return nil }
func (Nop) RecordToolInvocation(context.Context, ports.ToolInvocation) error   { return nil }
func (Nop) RecordUsage(context.Context, ports.UsageRecord) error               { return nil }
