package domain

type NodeType string

const (
	NodeTypeStart     NodeType = "start"
	NodeTypeLLM       NodeType = "llm"
	NodeTypeTool      NodeType = "tool"
	NodeTypeRule      NodeType = "rule"
	NodeTypeCondition NodeType = "condition"
	NodeTypeConnector NodeType = "connector"
	NodeTypeWebhook   NodeType = "webhook"
	NodeTypeRAG       NodeType = "rag"
	NodeTypeIntent    NodeType = "intent"
	NodeTypeEnd       NodeType = "end"
)

// WorkflowDefinition is the read-only graph authored by the external
// builder. The engine never mutates it during a run.
type WorkflowDefinition struct {
	Nodes    []WorkflowNode   `json:"nodes"`
	Edges    []WorkflowEdge   `json:"edges"`
	Settings WorkflowSettings `json:"settings"`
}

type WorkflowNode struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`
	Data NodeData `json:"data"`
}

type NodeData struct {
	Label  string                 `json:"label"`
	Config map[string]interface{} `json:"config"`
}

type WorkflowEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type WorkflowSettings struct {
	TimeoutSeconds int  `json:"timeout"`
	MaxRetries     int  `json:"retries"`
	Parallelism    int  `json:"parallelism"`
	LoggingEnabled bool `json:"logging"`
}

// Validate checks the structural invariants the executor relies on:
// unique node ids, edge endpoints that exist, and exactly one start node.
func (d *WorkflowDefinition) Validate() error {
	seen := make(map[string]struct{}, len(d.Nodes))
	starts := 0
	for _, node := range d.Nodes {
		if node.ID == "" {
			return NewValidationError("nodes", "node id must not be empty")
		}
		if _, dup := seen[node.ID]; dup {
			return NewValidationError("nodes", "duplicate node id: "+node.ID)
		}
		seen[node.ID] = struct{}{}
		if node.Type == NodeTypeStart {
			starts++
		}
	}
	if starts == 0 {
		return ErrMissingStartNode
	}
	if starts > 1 {
		return NewValidationError("nodes", "workflow must have exactly one start node")
	}
	for _, edge := range d.Edges {
		if _, ok := seen[edge.Source]; !ok {
			return NewValidationError("edges", "edge "+edge.ID+" references unknown source node: "+edge.Source)
		}
		if _, ok := seen[edge.Target]; !ok {
			return NewValidationError("edges", "edge "+edge.ID+" references unknown target node: "+edge.Target)
		}
	}
	return nil
}

// StartNode returns the unique start node of the definition.
func (d *WorkflowDefinition) StartNode() (*WorkflowNode, error) {
	for i := range d.Nodes {
		if d.Nodes[i].Type == NodeTypeStart {
			return &d.Nodes[i], nil
		}
	}
	return nil, ErrMissingStartNode
}

// NodeByID returns the node with the given id, or nil.
func (d *WorkflowDefinition) NodeByID(id string) *WorkflowNode {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i]
		}
	}
	return nil
}

// OutgoingEdges returns the edges leaving the given node in authored order.
func (d *WorkflowDefinition) OutgoingEdges(nodeID string) []WorkflowEdge {
	var out []WorkflowEdge
	for _, edge := range d.Edges {
		if edge.Source == nodeID {
			out = append(out, edge)
		}
	}
	return out
}

// ConfigString reads a string-valued config entry with a fallback.
func (n *WorkflowNode) ConfigString(key, fallback string) string {
	if n.Data.Config == nil {
		return fallback
	}
	if v, ok := n.Data.Config[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// ConfigFloat reads a numeric config entry with a fallback. JSON decoding
// produces float64 for all numbers, but int is accepted for definitions
// built in code.
func (n *WorkflowNode) ConfigFloat(key string, fallback float64) float64 {
	if n.Data.Config == nil {
		return fallback
	}
	switch v := n.Data.Config[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// ConfigMap reads a map-valued config entry, or nil.
func (n *WorkflowNode) ConfigMap(key string) map[string]interface{} {
	if n.Data.Config == nil {
		return nil
	}
	if v, ok := n.Data.Config[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}
