// Package loopline provides an embeddable workflow execution engine for
// AI agents.
//
// An agent is defined as a graph of typed nodes (start, llm, tool, rule,
// connector, end) joined by edges. Loopline walks the graph from its start
// node, dispatches each node to a handler, and threads a shared variables
// map through the run. It provides:
//   - Graph execution with conditional branching on rule nodes
//   - LLM calls routed to a provider by model name prefix
//   - Tool dispatch for API, webhook, email, and AI tools
//   - Per-user sliding-window rate limiting on provider calls
//   - A durable run ledger (in-memory or Badger-backed)
//
// Basic usage:
//
//	engine, err := loopline.New(loopline.NewConfigBuilder().
//	    WithCredential(loopline.ProviderOpenAI, apiKey).
//	    Build())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	result := engine.Execute(ctx, definition,
//	    map[string]interface{}{"message": "hello"}, "agent-1", "user-1")
package loopline

import (
	"context"

	"github.com/loopline-ai/loopline/internal/adapters/engine"
	"github.com/loopline-ai/loopline/internal/adapters/ledger"
	"github.com/loopline-ai/loopline/internal/adapters/lock"
	"github.com/loopline-ai/loopline/internal/adapters/providers"
	"github.com/loopline-ai/loopline/internal/adapters/ratelimit"
	"github.com/loopline-ai/loopline/internal/adapters/tools"
	"github.com/loopline-ai/loopline/internal/adapters/transport"
	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/ports"
)

// WorkflowDefinition is the executable agent graph: nodes, edges, and
// run-level settings.
type WorkflowDefinition = domain.WorkflowDefinition

// WorkflowNode is one typed node in the graph.
type WorkflowNode = domain.WorkflowNode

// NodeData carries a node's display label and handler configuration.
type NodeData = domain.NodeData

// WorkflowEdge is a directed connection between two nodes.
type WorkflowEdge = domain.WorkflowEdge

// WorkflowSettings holds run-level limits such as the execution timeout.
type WorkflowSettings = domain.WorkflowSettings

// NodeType identifies which handler executes a node.
type NodeType = domain.NodeType

// Node type constants.
const (
	NodeTypeStart     = domain.NodeTypeStart
	NodeTypeLLM       = domain.NodeTypeLLM
	NodeTypeTool      = domain.NodeTypeTool
	NodeTypeRule      = domain.NodeTypeRule
	NodeTypeCondition = domain.NodeTypeCondition
	NodeTypeConnector = domain.NodeTypeConnector
	NodeTypeWebhook   = domain.NodeTypeWebhook
	NodeTypeRAG       = domain.NodeTypeRAG
	NodeTypeIntent    = domain.NodeTypeIntent
	NodeTypeEnd       = domain.NodeTypeEnd
)

// ExecutionResult is the structured outcome of one run. Execution failures
// are reported here, never as a Go error.
type ExecutionResult = domain.ExecutionResult

// ExecutionStep records one node visit within a run.
type ExecutionStep = domain.ExecutionStep

// StepStatus is the lifecycle state of a single step.
type StepStatus = domain.StepStatus

// Step status constants.
const (
	StepStatusRunning   = domain.StepStatusRunning
	StepStatusCompleted = domain.StepStatusCompleted
	StepStatusFailed    = domain.StepStatusFailed
)

// ToolDefinition describes a callable tool and its ownership.
type ToolDefinition = domain.ToolDefinition

// ToolConfig is the transport configuration of an API or webhook tool.
type ToolConfig = domain.ToolConfig

// ToolResult is the structured outcome of one tool dispatch.
type ToolResult = domain.ToolResult

// ToolType constants.
const (
	ToolTypeAPI     = domain.ToolTypeAPI
	ToolTypeWebhook = domain.ToolTypeWebhook
	ToolTypeEmail   = domain.ToolTypeEmail
	ToolTypeAI      = domain.ToolTypeAI
	ToolTypeCustom  = domain.ToolTypeCustom
)

// Provider identifies an LLM vendor.
type Provider = domain.Provider

// Provider constants.
const (
	ProviderOpenAI    = domain.ProviderOpenAI
	ProviderAnthropic = domain.ProviderAnthropic
	ProviderGoogle    = domain.ProviderGoogle
	ProviderCohere    = domain.ProviderCohere
)

// CompletionRequest is a provider-neutral LLM call.
type CompletionRequest = domain.CompletionRequest

// CompletionResponse carries the generated text, token usage, and cost.
type CompletionResponse = domain.CompletionResponse

// Message is one chat turn in a completion request.
type Message = domain.Message

// TokenUsage counts prompt and completion tokens for one call.
type TokenUsage = domain.TokenUsage

// Ledger is the write-only sink for run, step, tool, and usage records.
type Ledger = ports.Ledger

// CredentialStore resolves the active API key for a provider.
type CredentialStore = ports.CredentialStore

// RunRecord is the ledger's view of one run.
type RunRecord = ports.RunRecord

// UsageRecord is the ledger's view of one LLM call's token consumption.
type UsageRecord = ports.UsageRecord

// ProviderForModel returns the provider responsible for a model name,
// resolved by prefix. Unknown prefixes route to OpenAI.
func ProviderForModel(model string) Provider {
	return domain.ProviderForModel(model)
}

// Engine is the assembled execution stack: workflow executor, tool
// dispatcher, provider router, and their shared ledger.
type Engine struct {
	executor   *engine.Executor
	dispatcher *tools.Dispatcher
	registry   *tools.Registry
	router     *providers.Router
	limiter    *ratelimit.SlidingWindow
	sink       ports.Ledger
	closers    []func() error
}

// New assembles an Engine from cfg. A nil cfg gets the full default
// stack: in-memory ledger, process-local locks and rate limits, and the
// built-in provider adapters.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger

	var closers []func() error

	sink := cfg.Ledger
	if sink == nil {
		if cfg.DataDir != "" {
			badgerSink, err := ledger.OpenBadger(cfg.DataDir, logger)
			if err != nil {
				return nil, err
			}
			closers = append(closers, badgerSink.Close)
			sink = badgerSink
		} else {
			sink = ledger.NewMemory()
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = transport.NewClient(nil, logger)
	}

	limiter := ratelimit.NewSlidingWindow(ratelimit.Config{
		Limit:  cfg.RateLimit,
		Window: cfg.RateLimitWindow,
	}, logger)
	closers = append(closers, func() error {
		limiter.Close()
		return nil
	})

	credentials := cfg.Credentials
	if credentials == nil {
		credentials = providers.StaticCredentials{}
	}

	router := providers.NewRouter(providers.RouterDeps{
		Credentials:   credentials,
		Limiter:       limiter,
		Ledger:        sink,
		HTTPClient:    httpClient,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		Limit:         cfg.RateLimit,
		WindowSeconds: int(cfg.RateLimitWindow.Seconds()),
		Logger:        logger,
	})

	registry := tools.NewRegistry()
	for _, tool := range cfg.Tools {
		registry.Register(tool)
	}
	dispatcher := tools.NewDispatcher(registry, httpClient, sink, logger)

	handlers := engine.NewHandlerRegistry(router, dispatcher, logger)
	executor := engine.NewExecutor(handlers, lock.NewManager(logger), sink, logger)

	return &Engine{
		executor:   executor,
		dispatcher: dispatcher,
		registry:   registry,
		router:     router,
		limiter:    limiter,
		sink:       sink,
		closers:    closers,
	}, nil
}

// Execute runs a workflow definition for the given agent and user. The
// outcome, including any failure, is reported in the result; Execute
// itself never returns an error. A second call for the same agent and
// user while one is in flight fails fast with a concurrency error.
func (e *Engine) Execute(ctx context.Context, def WorkflowDefinition, input interface{}, agentID, userID string) ExecutionResult {
	return e.executor.Execute(ctx, def, input, agentID, userID)
}

// ExecuteTool dispatches a single tool outside of any workflow run.
func (e *Engine) ExecuteTool(ctx context.Context, toolID string, input map[string]interface{}, userID string) (ToolResult, error) {
	return e.dispatcher.ExecuteTool(ctx, toolID, input, userID)
}

// Generate issues one LLM call through the provider router, applying
// credential lookup, rate limiting, and usage recording.
func (e *Engine) Generate(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return e.router.Generate(ctx, req)
}

// RegisterTool makes a tool available to tool nodes and ExecuteTool.
func (e *Engine) RegisterTool(tool ToolDefinition) {
	e.registry.Register(tool)
}

// ValidateKey checks an API key for a provider. With live false only the
// key's shape is checked; with live true the key is verified against the
// provider where an adapter supports it.
func (e *Engine) ValidateKey(ctx context.Context, provider Provider, key string, live bool) (bool, error) {
	return e.router.ValidateKey(ctx, provider, key, live)
}

// Ledger exposes the engine's record sink, for callers that read records
// back through a concrete implementation.
func (e *Engine) Ledger() Ledger {
	return e.sink
}

// Close releases the engine's background resources. Engines built with a
// caller-supplied ledger do not close it.
func (e *Engine) Close() error {
	var firstErr error
	for _, closeFn := range e.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
