package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopline-ai/loopline/internal/domain"
)

type fakeCompletionClient struct {
	lastReq domain.CompletionRequest
	reply   *domain.CompletionResponse
	err     error
}

func (f *fakeCompletionClient) Generate(_ context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	if f.reply != nil {
		return f.reply, nil
	}
	return &domain.CompletionResponse{Content: "stub reply", Model: req.Model, FinishReason: "stop"}, nil
}

type fakeToolExecutor struct {
	lastToolID string
	lastInput  map[string]interface{}
	lastUserID string
	result     domain.ToolResult
	err        error
}

func (f *fakeToolExecutor) ExecuteTool(_ context.Context, toolID string, input map[string]interface{}, userID string) (domain.ToolResult, error) {
	f.lastToolID = toolID
	f.lastInput = input
	f.lastUserID = userID
	if f.err != nil {
		return domain.ToolResult{Success: false, Error: f.err.Error()}, f.err
	}
	return f.result, nil
}

func node(nodeType domain.NodeType, config map[string]interface{}) domain.WorkflowNode {
	return domain.WorkflowNode{
		ID:   "n1",
		Type: nodeType,
		Data: domain.NodeData{Config: config},
	}
}

func TestStartHandlerPassesInputThrough(t *testing.T) {
	ec := domain.NewExecutionContext("agent", "user", map[string]interface{}{"message": "hello"})

	output, err := executeStart(context.Background(), node(domain.NodeTypeStart, nil), ec)
	require.NoError(t, err)

	out := output.(map[string]interface{})
	assert.Equal(t, "Workflow started", out["message"])
	assert.Equal(t, ec.Input, out["input"])
	assert.NotEmpty(t, out["timestamp"])
}

func TestLLMHandlerDefaults(t *testing.T) {
	client := &fakeCompletionClient{}
	handler := &llmHandler{client: client}
	ec := domain.NewExecutionContext("agent", "user-1", nil)

	output, err := handler.Execute(context.Background(), node(domain.NodeTypeLLM, nil), ec)
	require.NoError(t, err)

	assert.Equal(t, "gpt-3.5-turbo", client.lastReq.Model)
	assert.Equal(t, "user-1", client.lastReq.UserID)
	require.Len(t, client.lastReq.Messages, 2)
	assert.Equal(t, domain.RoleSystem, client.lastReq.Messages[0].Role)
	assert.Equal(t, "You are a helpful assistant.", client.lastReq.Messages[0].Content)
	assert.Equal(t, "Hello", client.lastReq.Messages[1].Content, "missing input falls back to the default message")
	require.NotNil(t, client.lastReq.Temperature)
	assert.InDelta(t, 0.7, *client.lastReq.Temperature, 1e-9)

	out := output.(map[string]interface{})
	assert.Equal(t, "stub reply", out["content"])
}

func TestLLMHandlerResolvesMessageChain(t *testing.T) {
	client := &fakeCompletionClient{}
	handler := &llmHandler{client: client}

	ec := domain.NewExecutionContext("agent", "user", map[string]interface{}{"message": "from map"})
	_, err := handler.Execute(context.Background(), node(domain.NodeTypeLLM, nil), ec)
	require.NoError(t, err)
	assert.Equal(t, "from map", client.lastReq.Messages[1].Content)

	ec = domain.NewExecutionContext("agent", "user", "bare string input")
	_, err = handler.Execute(context.Background(), node(domain.NodeTypeLLM, nil), ec)
	require.NoError(t, err)
	assert.Equal(t, "bare string input", client.lastReq.Messages[1].Content)
}

func TestLLMHandlerReadsConfig(t *testing.T) {
	client := &fakeCompletionClient{}
	handler := &llmHandler{client: client}
	ec := domain.NewExecutionContext("agent", "user", nil)

	_, err := handler.Execute(context.Background(), node(domain.NodeTypeLLM, map[string]interface{}{
		"model":        "claude-3-opus",
		"systemPrompt": "You are a pirate.",
		"temperature":  0.2,
	}), ec)
	require.NoError(t, err)

	assert.Equal(t, "claude-3-opus", client.lastReq.Model)
	assert.Equal(t, "You are a pirate.", client.lastReq.Messages[0].Content)
	assert.InDelta(t, 0.2, *client.lastReq.Temperature, 1e-9)
}

func TestToolHandlerRequiresToolID(t *testing.T) {
	handler := &toolHandler{executor: &fakeToolExecutor{}}
	ec := domain.NewExecutionContext("agent", "user", nil)

	_, err := handler.Execute(context.Background(), node(domain.NodeTypeTool, nil), ec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoToolSelected))
	assert.Contains(t, err.Error(), "No tool selected")
}

func TestToolHandlerInterpolatesVariables(t *testing.T) {
	executor := &fakeToolExecutor{result: domain.ToolResult{Success: true, Output: "done"}}
	handler := &toolHandler{executor: executor}

	ec := domain.NewExecutionContext("agent", "user-9", map[string]interface{}{"message": "hi"})
	ec.SetVariable("llm-1", map[string]interface{}{"content": "generated text"})

	_, err := handler.Execute(context.Background(), node(domain.NodeTypeTool, map[string]interface{}{
		"toolId": "tool-42",
		"parameterValues": map[string]interface{}{
			"text":    "{{llm-1}}",
			"missing": "{{nope}}",
			"literal": "plain value",
			"number":  float64(7),
		},
	}), ec)
	require.NoError(t, err)

	assert.Equal(t, "tool-42", executor.lastToolID)
	assert.Equal(t, "user-9", executor.lastUserID)
	assert.Equal(t, map[string]interface{}{"content": "generated text"}, executor.lastInput["text"])
	assert.Equal(t, "{{nope}}", executor.lastInput["missing"], "unresolved names pass through unchanged")
	assert.Equal(t, "plain value", executor.lastInput["literal"])
	assert.Equal(t, float64(7), executor.lastInput["number"])
}

func TestRuleHandlerOutput(t *testing.T) {
	ec := domain.NewExecutionContext("agent", "user", map[string]interface{}{"message": "please help me"})

	output, err := executeRule(context.Background(), node(domain.NodeTypeRule, map[string]interface{}{
		"condition": "contains('help')",
		"action":    "escalate",
	}), ec)
	require.NoError(t, err)

	out := output.(map[string]interface{})
	assert.Equal(t, "contains('help')", out["condition"])
	assert.Equal(t, true, out["result"])
	assert.Equal(t, "escalate", out["action"])
	assert.Contains(t, out["message"], "true")
}

func TestConnectorHandlerEnvelope(t *testing.T) {
	ec := domain.NewExecutionContext("agent", "user", nil)

	output, err := executeConnector(context.Background(), node(domain.NodeTypeConnector, map[string]interface{}{
		"connectorType": "slack",
		"action":        "post_message",
	}), ec)
	require.NoError(t, err)

	out := output.(map[string]interface{})
	assert.Equal(t, "slack", out["type"])
	assert.Equal(t, "post_message", out["action"])
	assert.Equal(t, "success", out["status"])
}

func TestEndHandlerSnapshotsVariables(t *testing.T) {
	ec := domain.NewExecutionContext("agent", "user", "hi")
	ec.SetVariable("llm-1", map[string]interface{}{"content": "reply"})

	output, err := executeEnd(context.Background(), node(domain.NodeTypeEnd, nil), ec)
	require.NoError(t, err)

	out := output.(map[string]interface{})
	final := out["finalOutput"].(map[string]interface{})
	assert.Equal(t, "hi", final["input"])
	assert.Contains(t, final, "llm-1")

	// The snapshot must not track later writes.
	ec.SetVariable("late", "value")
	assert.NotContains(t, final, "late")
}

func TestRegistryAliases(t *testing.T) {
	registry := NewHandlerRegistry(&fakeCompletionClient{}, &fakeToolExecutor{}, nil)

	rule, ok := registry.Get(domain.NodeTypeRule)
	require.True(t, ok)
	condition, ok := registry.Get(domain.NodeTypeCondition)
	require.True(t, ok)
	assert.Equal(t, reflect.ValueOf(rule).Pointer(), reflect.ValueOf(condition).Pointer())

	connector, _ := registry.Get(domain.NodeTypeConnector)
	webhook, ok := registry.Get(domain.NodeTypeWebhook)
	require.True(t, ok)
	assert.Equal(t, reflect.ValueOf(connector).Pointer(), reflect.ValueOf(webhook).Pointer())

	llm, _ := registry.Get(domain.NodeTypeLLM)
	rag, ok := registry.Get(domain.NodeTypeRAG)
	require.True(t, ok)
	assert.Equal(t, llm, rag)
	intent, ok := registry.Get(domain.NodeTypeIntent)
	require.True(t, ok)
	assert.Equal(t, llm, intent)

	_, ok = registry.Get(domain.NodeType("mystery"))
	assert.False(t, ok)
}
