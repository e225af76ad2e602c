package tools

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopline-ai/loopline/internal/adapters/ledger"
	"github.com/loopline-ai/loopline/internal/adapters/transport"
	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/xjson"
)

func newTestDispatcher() (*Dispatcher, *Registry, *ledger.Memory) {
	registry := NewRegistry()
	sink := ledger.NewMemory()
	dispatcher := NewDispatcher(registry, transport.NewClient(nil, nil), sink, nil)
	return dispatcher, registry, sink
}

func TestToolNotFound(t *testing.T) {
	dispatcher, _, sink := newTestDispatcher()

	result, err := dispatcher.ExecuteTool(context.Background(), "missing", nil, "user-1")
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "tool not found")

	invocations := sink.Invocations()
	require.Len(t, invocations, 1)
	assert.Equal(t, "failed", invocations[0].Status)
}

func TestOwnershipEnforced(t *testing.T) {
	dispatcher, registry, _ := newTestDispatcher()
	registry.Register(domain.ToolDefinition{
		ID:      "private-tool",
		Name:    "Private",
		Type:    domain.ToolTypeCustom,
		OwnerID: "owner-1",
	})

	_, err := dispatcher.ExecuteTool(context.Background(), "private-tool", nil, "intruder")
	assert.True(t, domain.IsAccessDenied(err))

	result, err := dispatcher.ExecuteTool(context.Background(), "private-tool", nil, "owner-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestBuiltInToolSkipsOwnership(t *testing.T) {
	dispatcher, registry, _ := newTestDispatcher()
	registry.Register(domain.ToolDefinition{
		ID:      "shared-tool",
		Name:    "Shared",
		Type:    domain.ToolTypeCustom,
		BuiltIn: true,
	})

	result, err := dispatcher.ExecuteTool(context.Background(), "shared-tool", map[string]interface{}{"x": 1}, "anyone")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestAPIToolURLTemplating(t *testing.T) {
	var gotPath string
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"found": true}`))
	}))
	defer server.Close()

	dispatcher, registry, _ := newTestDispatcher()
	registry.Register(domain.ToolDefinition{
		ID:      "lookup",
		Name:    "Lookup",
		Type:    domain.ToolTypeAPI,
		BuiltIn: true,
		Config: domain.ToolConfig{
			Endpoint: server.URL + "/items/{id}?q={term}",
			Method:   http.MethodGet,
		},
	})

	result, err := dispatcher.ExecuteTool(context.Background(), "lookup", map[string]interface{}{
		"id":   42,
		"term": "two words",
	}, "user-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "/items/42", gotPath)
	assert.Equal(t, "q=two+words", gotQuery)

	output := result.Output.(map[string]interface{})
	assert.Equal(t, 200, output["status"])
	assert.Equal(t, map[string]interface{}{"found": true}, output["data"])
}

func TestWebhookToolSendsJSONBody(t *testing.T) {
	var gotBody map[string]interface{}
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		xjson.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	dispatcher, registry, _ := newTestDispatcher()
	registry.Register(domain.ToolDefinition{
		ID:      "notify",
		Type:    domain.ToolTypeWebhook,
		BuiltIn: true,
		Config: domain.ToolConfig{
			Endpoint: server.URL + "/hook",
			Method:   http.MethodPost,
		},
	})

	_, err := dispatcher.ExecuteTool(context.Background(), "notify", map[string]interface{}{"event": "done"}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]interface{}{"event": "done"}, gotBody)
}

func TestEmailStubValidation(t *testing.T) {
	dispatcher, registry, _ := newTestDispatcher()
	registry.Register(domain.ToolDefinition{
		ID:      "mailer",
		Type:    domain.ToolTypeEmail,
		BuiltIn: true,
	})
	ctx := context.Background()

	_, err := dispatcher.ExecuteTool(ctx, "mailer", map[string]interface{}{"to": "a@b.c"}, "user-1")
	assert.True(t, domain.IsValidationError(err), "missing subject and body")

	result, err := dispatcher.ExecuteTool(ctx, "mailer", map[string]interface{}{
		"to":      "a@b.c",
		"subject": "Hi",
		"body":    "Hello there",
	}, "user-1")
	require.NoError(t, err)
	output := result.Output.(map[string]interface{})
	assert.NotEmpty(t, output["messageId"])
	assert.Equal(t, "sent", output["status"])
}

func TestSearchStub(t *testing.T) {
	dispatcher, registry, _ := newTestDispatcher()
	registry.Register(domain.ToolDefinition{
		ID:      "search",
		Type:    domain.ToolTypeAI,
		BuiltIn: true,
	})
	ctx := context.Background()

	_, err := dispatcher.ExecuteTool(ctx, "search", map[string]interface{}{}, "user-1")
	assert.True(t, domain.IsValidationError(err))

	result, err := dispatcher.ExecuteTool(ctx, "search", map[string]interface{}{"query": "workflow engines"}, "user-1")
	require.NoError(t, err)
	output := result.Output.(map[string]interface{})
	assert.Equal(t, "workflow engines", output["query"])
	assert.Len(t, output["results"], 2)
}

func TestCustomToolEchoes(t *testing.T) {
	dispatcher, registry, sink := newTestDispatcher()
	registry.Register(domain.ToolDefinition{
		ID:      "echo",
		Name:    "Echo",
		Type:    domain.ToolTypeCustom,
		BuiltIn: true,
	})

	input := map[string]interface{}{"payload": "value"}
	result, err := dispatcher.ExecuteTool(context.Background(), "echo", input, "user-1")
	require.NoError(t, err)

	output := result.Output.(map[string]interface{})
	assert.Equal(t, input, output["input"])
	assert.Contains(t, output["message"], "Echo")

	invocations := sink.Invocations()
	require.Len(t, invocations, 1)
	assert.Equal(t, "completed", invocations[0].Status)
	assert.Equal(t, "echo", invocations[0].ToolID)
	assert.Positive(t, invocations[0].Duration)
}

func TestSubstituteParamsLeavesUnmatched(t *testing.T) {
	endpoint := substituteParams("https://api.example.com/{a}/{b}", map[string]interface{}{"a": "x y"})
	assert.Equal(t, "https://api.example.com/x+y/{b}", endpoint)
}
