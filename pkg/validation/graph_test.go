package validation

import (
	"testing"

	coregraph "github.com/hyder110/GraphFlow/internal/core/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func temp(v float64) *float64 { return &v }

// routerDefinition loops a decider through two workers until it routes to END.
func routerDefinition() *coregraph.GraphDefinition {
	return &coregraph.GraphDefinition{
		Nodes: []coregraph.Node{
			{ID: "decider", Type: coregraph.NodeTypeLLM, Config: &coregraph.LLMConfig{ModelName: "gpt-4", Temperature: temp(0.2), OutputKey: "action"}},
			{ID: "search", Type: coregraph.NodeTypeTool, Config: &coregraph.ToolConfig{ToolType: "search", MaxResults: 3, OutputKey: "results"}},
			{ID: "review", Type: coregraph.NodeTypeHuman, Config: &coregraph.HumanConfig{InputKey: "results", OutputKey: "approved"}},
			{ID: "format", Type: coregraph.NodeTypeTransform, Config: &coregraph.TransformConfig{TransformType: "extract_json", InputKey: "approved", OutputKey: "final_output"}},
		},
		Edges: []coregraph.Edge{
			{Source: coregraph.Start, Target: "decider"},
			{
				Source: "decider",
				Target: "search",
				Type:   coregraph.EdgeTypeConditional,
				Condition: &coregraph.Condition{
					Type:     coregraph.ConditionKeyValue,
					Key:      "action",
					ValueMap: map[string]string{"search": "search", "review": "review"},
					Default:  "format",
				},
				Destinations: []string{"search", "review", "format"},
			},
			{Source: "search", Target: "decider"},
			{Source: "review", Target: "decider"},
			{Source: "format", Target: coregraph.End},
		},
		StateType: "dict",
	}
}

func TestValidateDefinition(t *testing.T) {
	t.Run("valid definition with conditional routing", func(t *testing.T) {
		assert.NoError(t, ValidateDefinition(routerDefinition()))
	})

	t.Run("nil definition", func(t *testing.T) {
		assert.Error(t, ValidateDefinition(nil))
	})

	t.Run("no entry edge", func(t *testing.T) {
		d := routerDefinition()
		d.Edges = d.Edges[1:]
		assert.ErrorIs(t, ValidateDefinition(d), coregraph.ErrNoEntryEdge)
	})

	t.Run("two entry edges", func(t *testing.T) {
		d := routerDefinition()
		d.Edges = append(d.Edges, coregraph.Edge{Source: coregraph.Start, Target: "format"})
		assert.ErrorIs(t, ValidateDefinition(d), coregraph.ErrMultipleEntryEdges)
	})

	t.Run("unreachable node", func(t *testing.T) {
		d := routerDefinition()
		d.Edges[1].Condition.ValueMap = map[string]string{"search": "search"}
		d.Edges[1].Destinations = []string{"search", "format"}
		err := ValidateDefinition(d)
		assert.ErrorIs(t, err, coregraph.ErrUnreachableNode)
		assert.Contains(t, err.Error(), "review")
	})

	t.Run("no path to END", func(t *testing.T) {
		d := routerDefinition()
		d.Edges[4] = coregraph.Edge{Source: "format", Target: "decider"}
		assert.ErrorIs(t, ValidateDefinition(d), coregraph.ErrNoPathToEnd)
	})

	t.Run("value map outside destinations", func(t *testing.T) {
		d := routerDefinition()
		d.Edges[1].Destinations = []string{"search", "format"}
		assert.ErrorIs(t, ValidateDefinition(d), coregraph.ErrConditionTargetNotDestination)
	})

	t.Run("config schema violations are field level", func(t *testing.T) {
		d := routerDefinition()
		d.Nodes[0].Config.(*coregraph.LLMConfig).Temperature = temp(3)
		d.Nodes[1].Config.(*coregraph.ToolConfig).ToolType = "calculator"

		err := ValidateDefinition(d)
		require.Error(t, err)
		verrs, ok := err.(ValidationErrors)
		require.True(t, ok)
		require.Len(t, verrs, 2)
		assert.Equal(t, "definition.nodes.0.config.temperature", verrs[0].Field)
		assert.Equal(t, "definition.nodes.1.config.tool_type", verrs[1].Field)
	})

	t.Run("zero temperature is valid", func(t *testing.T) {
		d := routerDefinition()
		d.Nodes[0].Config.(*coregraph.LLMConfig).Temperature = temp(0)
		assert.NoError(t, ValidateDefinition(d))
	})

	t.Run("unknown model only rejected on request", func(t *testing.T) {
		d := routerDefinition()
		d.Nodes[0].Config.(*coregraph.LLMConfig).ModelName = "local-llama"
		assert.NoError(t, ValidateDefinition(d))

		err := ValidateDefinition(d, GraphValidationOptions{RequireKnownModels: true})
		verrs, ok := err.(ValidationErrors)
		require.True(t, ok)
		assert.Equal(t, "unknown model", verrs[0].Message)
	})

	t.Run("cycle check is opt-in", func(t *testing.T) {
		d := routerDefinition()
		assert.NoError(t, ValidateDefinition(d))
		assert.ErrorIs(t, ValidateDefinition(d, GraphValidationOptions{CheckCycles: true}), ErrCyclicDefinition)
	})
}

func TestHasCycle_Linear(t *testing.T) {
	d := &coregraph.GraphDefinition{
		Nodes: []coregraph.Node{
			{ID: "a", Type: coregraph.NodeTypeHuman, Config: &coregraph.HumanConfig{}},
			{ID: "b", Type: coregraph.NodeTypeHuman, Config: &coregraph.HumanConfig{}},
		},
		Edges: []coregraph.Edge{
			{Source: coregraph.Start, Target: "a"},
			{Source: "a", Target: "b"},
			{Source: "b", Target: coregraph.End},
		},
	}
	assert.False(t, hasCycle(d))
	assert.NoError(t, ValidateDefinition(d, GraphValidationOptions{CheckCycles: true}))
}
