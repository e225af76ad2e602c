package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecutionContextSeedsInput(t *testing.T) {
	input := map[string]interface{}{"message": "hello"}
	ec := NewExecutionContext("agent-1", "user-1", input)

	assert.NotEmpty(t, ec.ExecutionID)
	assert.Equal(t, "agent-1", ec.AgentID)
	assert.Equal(t, "user-1", ec.UserID)
	assert.Equal(t, input, ec.Variables[VariableInput])

	other := NewExecutionContext("agent-1", "user-1", input)
	assert.NotEqual(t, ec.ExecutionID, other.ExecutionID)
}

func TestInputText(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"message map", map[string]interface{}{"message": "hi there"}, "hi there"},
		{"map without message", map[string]interface{}{"other": "x"}, ""},
		{"non-string message", map[string]interface{}{"message": 7}, ""},
		{"plain string", "raw text", "raw text"},
		{"nil input", nil, ""},
		{"numeric input", 42, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := NewExecutionContext("a", "u", tt.input)
			assert.Equal(t, tt.want, ec.InputText())
		})
	}
}

func TestSetVariableAccumulates(t *testing.T) {
	ec := NewExecutionContext("a", "u", "start")
	ec.SetVariable("n1", "one")
	ec.SetVariable("n2", "two")
	ec.SetVariable("n1", "revisited")

	assert.Len(t, ec.Variables, 3)
	assert.Equal(t, "revisited", ec.Variables["n1"])
	assert.Equal(t, "start", ec.Variables[VariableInput])
}

func TestExecutionStepLifecycle(t *testing.T) {
	node := WorkflowNode{ID: "n1", Type: NodeTypeLLM}

	step := NewExecutionStep(node, "in")
	assert.Equal(t, StepStatusRunning, step.Status)
	assert.Equal(t, "n1", step.NodeID)
	assert.Equal(t, NodeTypeLLM, step.NodeType)
	assert.Nil(t, step.CompletedAt)

	step.Complete(map[string]interface{}{"content": "out"})
	assert.Equal(t, StepStatusCompleted, step.Status)
	require.NotNil(t, step.CompletedAt)
	assert.Empty(t, step.Error)

	failed := NewExecutionStep(node, nil)
	failed.Fail("provider unavailable")
	assert.Equal(t, StepStatusFailed, failed.Status)
	assert.Equal(t, "provider unavailable", failed.Error)
	require.NotNil(t, failed.CompletedAt)
}
