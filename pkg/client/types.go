package client

import (
	coregraph "github.com/hyder110/GraphFlow/internal/core/graph"
)

// Aliases keep callers on a single import for the wire entities, and let
// code outside this module build definitions.
type (
	Graph           = coregraph.Graph
	GraphSummary    = coregraph.GraphSummary
	GraphDefinition = coregraph.GraphDefinition
	Node            = coregraph.Node
	NodeType        = coregraph.NodeType
	NodeConfig      = coregraph.NodeConfig
	LLMConfig       = coregraph.LLMConfig
	ToolConfig      = coregraph.ToolConfig
	TransformConfig = coregraph.TransformConfig
	HumanConfig     = coregraph.HumanConfig
	RawConfig       = coregraph.RawConfig
	Edge            = coregraph.Edge
	EdgeType        = coregraph.EdgeType
	Condition       = coregraph.Condition
	ConditionType   = coregraph.ConditionType
	Extra           = coregraph.Extra
	Timestamp       = coregraph.Timestamp
)

// Node and edge tags, and the START/END sentinels.
const (
	NodeTypeLLM         = coregraph.NodeTypeLLM
	NodeTypeTool        = coregraph.NodeTypeTool
	NodeTypeTransform   = coregraph.NodeTypeTransform
	NodeTypeHuman       = coregraph.NodeTypeHuman
	EdgeTypeConditional = coregraph.EdgeTypeConditional
	ConditionKeyValue   = coregraph.ConditionKeyValue
	Start               = coregraph.Start
	End                 = coregraph.End
)

// CreateGraphRequest is the body of POST /api/graphs.
type CreateGraphRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	Definition  GraphDefinition `json:"definition"`
	UserID      *int            `json:"user_id,omitempty" validate:"omitempty,min=1"`
}

// GraphPatch is the body of PUT /api/graphs/{id}. The service replaces
// name, description and definition together, so callers send all three.
type GraphPatch struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	Definition  GraphDefinition `json:"definition"`
}

// RunRequest is the body of POST /api/graphs/{id}/run.
type RunRequest struct {
	Input interface{} `json:"input"`
}

// RunResult is the engine's answer to a run. FinalOutput is absent when the
// graph does not write one.
type RunResult struct {
	Output      interface{} `json:"output"`
	FinalOutput interface{} `json:"final_output,omitempty"`
}

// DeleteResult confirms a deletion.
type DeleteResult struct {
	Message string `json:"message"`
}

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status string `json:"status"`
}
