package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/ports"
)

const (
	defaultModel        = "gpt-3.5-turbo"
	defaultSystemPrompt = "You are a helpful assistant."
	defaultTemperature  = 0.7
	defaultUserMessage  = "Hello"
)

// HandlerRegistry is the explicit dispatch table from node type to
// handler. Aliases (condition→rule, webhook→connector, rag/intent→llm)
// are registered intentionally rather than inferred, so a reused type can
// diverge later without silent propagation.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[domain.NodeType]ports.NodeHandler
}

func NewHandlerRegistry(llm ports.CompletionClient, toolExec ports.ToolExecutor, logger *slog.Logger) *HandlerRegistry {
	if logger == nil {
		logger = slog.Default()
	}

	r := &HandlerRegistry{handlers: make(map[domain.NodeType]ports.NodeHandler)}

	r.Register(domain.NodeTypeStart, ports.NodeHandlerFunc(executeStart))
	r.Register(domain.NodeTypeLLM, &llmHandler{client: llm})
	r.Register(domain.NodeTypeTool, &toolHandler{executor: toolExec})
	r.Register(domain.NodeTypeRule, ports.NodeHandlerFunc(executeRule))
	r.Register(domain.NodeTypeConnector, ports.NodeHandlerFunc(executeConnector))
	r.Register(domain.NodeTypeEnd, ports.NodeHandlerFunc(executeEnd))

	r.Alias(domain.NodeTypeCondition, domain.NodeTypeRule)
	r.Alias(domain.NodeTypeWebhook, domain.NodeTypeConnector)
	r.Alias(domain.NodeTypeRAG, domain.NodeTypeLLM)
	r.Alias(domain.NodeTypeIntent, domain.NodeTypeLLM)

	return r
}

func (r *HandlerRegistry) Register(nodeType domain.NodeType, handler ports.NodeHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[nodeType] = handler
}

// Alias points one node type at another's registered handler. The target
// must already be registered.
func (r *HandlerRegistry) Alias(alias, target domain.NodeType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if handler, ok := r.handlers[target]; ok {
		r.handlers[alias] = handler
	}
}

func (r *HandlerRegistry) Get(nodeType domain.NodeType) (ports.NodeHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[nodeType]
	return handler, ok
}

func executeStart(_ context.Context, _ domain.WorkflowNode, ec *domain.ExecutionContext) (interface{}, error) {
	return map[string]interface{}{
		"message":   "Workflow started",
		"input":     ec.Input,
		"timestamp": time.Now().Format(time.RFC3339),
	}, nil
}

type llmHandler struct {
	client ports.CompletionClient
}

func (h *llmHandler) Execute(ctx context.Context, node domain.WorkflowNode, ec *domain.ExecutionContext) (interface{}, error) {
	model := node.ConfigString("model", defaultModel)
	systemPrompt := node.ConfigString("systemPrompt", defaultSystemPrompt)
	temperature := node.ConfigFloat("temperature", defaultTemperature)

	userMessage := ec.InputText()
	if userMessage == "" {
		userMessage = defaultUserMessage
	}

	response, err := h.client.Generate(ctx, domain.CompletionRequest{
		Model: model,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: systemPrompt},
			{Role: domain.RoleUser, Content: userMessage},
		},
		Temperature: &temperature,
		UserID:      ec.UserID,
	})
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"content":      response.Content,
		"model":        response.Model,
		"usage":        response.Usage,
		"finishReason": response.FinishReason,
		"cost":         response.Cost,
	}, nil
}

type toolHandler struct {
	executor ports.ToolExecutor
}

func (h *toolHandler) Execute(ctx context.Context, node domain.WorkflowNode, ec *domain.ExecutionContext) (interface{}, error) {
	toolID := node.ConfigString("toolId", "")
	if toolID == "" {
		return nil, domain.ErrNoToolSelected
	}

	input := resolveParameterValues(node.ConfigMap("parameterValues"), ec.Variables)

	result, err := h.executor.ExecuteTool(ctx, toolID, input, ec.UserID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"toolId":        toolID,
		"output":        result.Output,
		"executionTime": result.ExecutionTime.Milliseconds(),
	}, nil
}

// resolveParameterValues interpolates values of the exact form "{{name}}"
// against the variables map. Unresolved names pass through as the literal
// string.
func resolveParameterValues(params map[string]interface{}, variables map[string]interface{}) map[string]interface{} {
	input := make(map[string]interface{}, len(params))
	for key, value := range params {
		text, ok := value.(string)
		if !ok {
			input[key] = value
			continue
		}
		name, isRef := variableReference(text)
		if !isRef {
			input[key] = value
			continue
		}
		if resolved, exists := variables[name]; exists {
			input[key] = resolved
		} else {
			input[key] = text
		}
	}
	return input
}

func variableReference(text string) (string, bool) {
	if len(text) < 5 || text[:2] != "{{" || text[len(text)-2:] != "}}" {
		return "", false
	}
	return text[2 : len(text)-2], true
}

func executeRule(_ context.Context, node domain.WorkflowNode, ec *domain.ExecutionContext) (interface{}, error) {
	condition := node.ConfigString("condition", "")
	result := evaluateCondition(condition, ec.InputText())

	return map[string]interface{}{
		"condition": condition,
		"result":    result,
		"action":    node.ConfigString("action", "continue"),
		"message":   fmt.Sprintf("Condition evaluated to %t", result),
	}, nil
}

func executeConnector(_ context.Context, node domain.WorkflowNode, _ *domain.ExecutionContext) (interface{}, error) {
	// Placeholder integration point, not a real external call.
	return map[string]interface{}{
		"type":      node.ConfigString("connectorType", "generic"),
		"action":    node.ConfigString("action", "execute"),
		"status":    "success",
		"message":   "Connector executed successfully",
		"timestamp": time.Now().Format(time.RFC3339),
	}, nil
}

func executeEnd(_ context.Context, _ domain.WorkflowNode, ec *domain.ExecutionContext) (interface{}, error) {
	return map[string]interface{}{
		"message":     "Workflow completed",
		"finalOutput": domain.SnapshotVariables(ec.Variables),
		"timestamp":   time.Now().Format(time.RFC3339),
	}, nil
}
