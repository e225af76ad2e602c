package tools

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/ports"
)

const defaultToolTimeout = 30 * time.Second

// Dispatcher resolves a tool by id, enforces ownership, and executes it.
// API and webhook tools go out through the transport client; email, ai,
// and custom tools are validated stubs.
type Dispatcher struct {
	registry   ports.ToolRegistry
	httpClient ports.HTTPClient
	ledger     ports.Ledger
	logger     *slog.Logger
}

var _ ports.ToolExecutor = (*Dispatcher)(nil)

func NewDispatcher(registry ports.ToolRegistry, httpClient ports.HTTPClient, sink ports.Ledger, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry:   registry,
		httpClient: httpClient,
		ledger:     sink,
		logger:     logger.With("component", "tool-dispatcher"),
	}
}

func (d *Dispatcher) ExecuteTool(ctx context.Context, toolID string, input map[string]interface{}, userID string) (domain.ToolResult, error) {
	started := time.Now()

	tool, err := d.registry.GetTool(ctx, toolID)
	if err != nil {
		return d.finish(ctx, toolID, userID, input, started, nil, fmt.Errorf("resolve tool %s: %w", toolID, err))
	}
	if tool == nil {
		return d.finish(ctx, toolID, userID, input, started, nil, fmt.Errorf("%w: %s", domain.ErrToolNotFound, toolID))
	}
	if !tool.BuiltIn && tool.OwnerID != userID {
		return d.finish(ctx, toolID, userID, input, started, nil, domain.NewAccessDeniedError(toolID, userID))
	}

	var output interface{}
	switch tool.Type {
	case domain.ToolTypeAPI, domain.ToolTypeWebhook:
		output, err = d.executeHTTP(ctx, tool, input)
	case domain.ToolTypeEmail:
		output, err = executeEmailStub(input)
	case domain.ToolTypeAI:
		output, err = executeSearchStub(input)
	default:
		output = map[string]interface{}{
			"message": fmt.Sprintf("Tool %s executed", tool.Name),
			"input":   input,
		}
	}

	return d.finish(ctx, toolID, userID, input, started, output, err)
}

// finish records the invocation to the ledger and shapes the result.
// Ledger write failures are logged and swallowed.
func (d *Dispatcher) finish(ctx context.Context, toolID, userID string, input map[string]interface{}, started time.Time, output interface{}, execErr error) (domain.ToolResult, error) {
	duration := time.Since(started)

	result := domain.ToolResult{
		Success:       execErr == nil,
		Output:        output,
		ExecutionTime: duration,
	}
	status := "completed"
	if execErr != nil {
		result.Error = execErr.Error()
		status = "failed"
	}

	if d.ledger != nil {
		err := d.ledger.RecordToolInvocation(ctx, ports.ToolInvocation{
			ID:       uuid.New().String(),
			ToolID:   toolID,
			UserID:   userID,
			Status:   status,
			Input:    input,
			Output:   output,
			Error:    result.Error,
			Duration: duration,
			At:       started,
		})
		if err != nil {
			d.logger.Error("tool invocation record failed", "tool_id", toolID, "error", err.Error())
		}
	}

	return result, execErr
}

func (d *Dispatcher) executeHTTP(ctx context.Context, tool *domain.ToolDefinition, input map[string]interface{}) (interface{}, error) {
	if tool.Config.Endpoint == "" {
		return nil, domain.NewValidationError("endpoint", "tool "+tool.ID+" has no endpoint configured")
	}

	method := strings.ToUpper(tool.Config.Method)
	if method == "" {
		method = http.MethodGet
	}

	endpoint := substituteParams(tool.Config.Endpoint, input)

	timeout := defaultToolTimeout
	if tool.Config.TimeoutSeconds > 0 {
		timeout = time.Duration(tool.Config.TimeoutSeconds) * time.Second
	}

	cfg := ports.RequestConfig{
		URL:     endpoint,
		Method:  method,
		Headers: tool.Config.Headers,
		Timeout: timeout,
	}
	if mutating(method) {
		cfg.Body = input
	}

	d.logger.Debug("calling tool endpoint", "tool_id", tool.ID, "method", method, "url", endpoint)

	res, err := d.httpClient.Do(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"status": res.Status,
		"data":   res.Data,
	}, nil
}

// substituteParams replaces {name} placeholders in the endpoint with
// percent-encoded values from input. Unmatched placeholders are left
// untouched.
func substituteParams(endpoint string, input map[string]interface{}) string {
	for key, value := range input {
		placeholder := "{" + key + "}"
		if !strings.Contains(endpoint, placeholder) {
			continue
		}
		encoded := url.QueryEscape(fmt.Sprintf("%v", value))
		endpoint = strings.ReplaceAll(endpoint, placeholder, encoded)
	}
	return endpoint
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

func executeEmailStub(input map[string]interface{}) (interface{}, error) {
	for _, field := range []string{"to", "subject", "body"} {
		if v, ok := input[field].(string); !ok || v == "" {
			return nil, domain.NewValidationError(field, "email tool requires "+field)
		}
	}
	return map[string]interface{}{
		"messageId": uuid.New().String(),
		"to":        input["to"],
		"subject":   input["subject"],
		"status":    "sent",
	}, nil
}

func executeSearchStub(input map[string]interface{}) (interface{}, error) {
	query, ok := input["query"].(string)
	if !ok || query == "" {
		return nil, domain.NewValidationError("query", "ai tool requires query")
	}
	return map[string]interface{}{
		"query": query,
		"results": []interface{}{
			map[string]interface{}{"title": "Result 1 for " + query, "snippet": "First canned search result."},
			map[string]interface{}{"title": "Result 2 for " + query, "snippet": "Second canned search result."},
		},
	}, nil
}
