package loopline_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopline-ai/loopline"
)

func openAIStub(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"data":[]}`))
			return
		}
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test-key-0123456789", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    "chatcmpl-1",
			"model": "gpt-3.5-turbo",
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19},
		})
	}))
}

func supportAgent() loopline.WorkflowDefinition {
	return loopline.WorkflowDefinition{
		Nodes: []loopline.WorkflowNode{
			{ID: "start", Type: loopline.NodeTypeStart},
			{ID: "reply", Type: loopline.NodeTypeLLM, Data: loopline.NodeData{Config: map[string]interface{}{
				"model":        "gpt-3.5-turbo",
				"systemPrompt": "You are a support agent.",
			}}},
			{ID: "done", Type: loopline.NodeTypeEnd},
		},
		Edges: []loopline.WorkflowEdge{
			{ID: "e1", Source: "start", Target: "reply"},
			{ID: "e2", Source: "reply", Target: "done"},
		},
	}
}

func TestEngineEndToEnd(t *testing.T) {
	server := openAIStub(t, "Your order ships tomorrow.")
	defer server.Close()

	engine, err := loopline.New(loopline.NewConfigBuilder().
		WithCredential(loopline.ProviderOpenAI, "sk-test-key-0123456789").
		WithOpenAIBaseURL(server.URL).
		Build())
	require.NoError(t, err)
	defer engine.Close()

	result := engine.Execute(context.Background(), supportAgent(),
		map[string]interface{}{"message": "Where is my order?"}, "agent-1", "user-1")

	require.True(t, result.Success, "error: %s", result.Error)
	require.Len(t, result.Steps, 3)

	llmOut := result.Steps[1].Output.(map[string]interface{})
	assert.Equal(t, "Your order ships tomorrow.", llmOut["content"])

	final := result.Steps[2].Output.(map[string]interface{})["finalOutput"].(map[string]interface{})
	assert.Equal(t, llmOut, final["reply"])
}

func TestEngineWithoutCredentialFails(t *testing.T) {
	engine, err := loopline.New(nil)
	require.NoError(t, err)
	defer engine.Close()

	result := engine.Execute(context.Background(), supportAgent(),
		map[string]interface{}{"message": "hi"}, "agent-1", "user-1")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "credential")
}

func TestEngineRoutesNonOpenAIToStub(t *testing.T) {
	engine, err := loopline.New(loopline.NewConfigBuilder().
		WithCredential(loopline.ProviderAnthropic, "sk-ant-test-key-0123456789").
		Build())
	require.NoError(t, err)
	defer engine.Close()

	def := supportAgent()
	def.Nodes[1].Data.Config["model"] = "claude-3-haiku"

	result := engine.Execute(context.Background(), def,
		map[string]interface{}{"message": "hello there"}, "agent-1", "user-1")

	require.True(t, result.Success, "error: %s", result.Error)
	llmOut := result.Steps[1].Output.(map[string]interface{})
	assert.NotEmpty(t, llmOut["content"])
}

func TestEngineExecuteTool(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	engine, err := loopline.New(loopline.NewConfigBuilder().
		WithTool(loopline.ToolDefinition{
			ID:      "order-lookup",
			Name:    "Order Lookup",
			Type:    loopline.ToolTypeAPI,
			BuiltIn: true,
			Config: loopline.ToolConfig{
				Endpoint: server.URL + "/orders/{orderId}",
				Method:   http.MethodGet,
			},
		}).
		Build())
	require.NoError(t, err)
	defer engine.Close()

	result, err := engine.ExecuteTool(context.Background(), "order-lookup",
		map[string]interface{}{"orderId": "42"}, "user-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "/orders/42", gotPath)
}

func TestEngineValidateKeyShape(t *testing.T) {
	engine, err := loopline.New(nil)
	require.NoError(t, err)
	defer engine.Close()

	ok, err := engine.ValidateKey(context.Background(), loopline.ProviderOpenAI, "sk-test-key-0123456789", false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = engine.ValidateKey(context.Background(), loopline.ProviderOpenAI, "bad", false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngineRateLimit(t *testing.T) {
	server := openAIStub(t, "ok")
	defer server.Close()

	engine, err := loopline.New(loopline.NewConfigBuilder().
		WithCredential(loopline.ProviderOpenAI, "sk-test-key-0123456789").
		WithOpenAIBaseURL(server.URL).
		WithRateLimit(2, time.Minute).
		Build())
	require.NoError(t, err)
	defer engine.Close()

	req := loopline.CompletionRequest{
		Model:    "gpt-3.5-turbo",
		Messages: []loopline.Message{{Role: "user", Content: "hi"}},
		UserID:   "user-1",
	}

	for i := 0; i < 2; i++ {
		_, err := engine.Generate(context.Background(), req)
		require.NoError(t, err)
	}

	_, err = engine.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
