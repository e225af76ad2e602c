package domain

import "time"

type ToolType string

const (
	ToolTypeAPI     ToolType = "api"
	ToolTypeWebhook ToolType = "webhook"
	ToolTypeEmail   ToolType = "email"
	ToolTypeAI      ToolType = "ai"
	ToolTypeCustom  ToolType = "custom"
)

// ToolDefinition describes a reusable external capability invocable by id
// from inside a workflow. Definitions come from the external tool registry;
// ownership is enforced at dispatch time.
type ToolDefinition struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Type    ToolType   `json:"type"`
	Config  ToolConfig `json:"config"`
	OwnerID string     `json:"owner_id,omitempty"`
	BuiltIn bool       `json:"built_in"`
}

type ToolConfig struct {
	Endpoint       string                 `json:"endpoint,omitempty"`
	Method         string                 `json:"method,omitempty"`
	Headers        map[string]string      `json:"headers,omitempty"`
	Parameters     map[string]interface{} `json:"parameters,omitempty"`
	TimeoutSeconds int                    `json:"timeout,omitempty"`
}

// ToolResult is the outcome of a single tool invocation.
type ToolResult struct {
	Success       bool          `json:"success"`
	Output        interface{}   `json:"output,omitempty"`
	Error         string        `json:"error,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
}
