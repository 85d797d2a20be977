package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }

func linearDefinition() GraphDefinition {
	return GraphDefinition{
		Nodes: []Node{
			{ID: "llm", Type: NodeTypeLLM, Config: &LLMConfig{ModelName: "gpt-3.5-turbo", Temperature: float(0), InputKey: "input", OutputKey: "output"}},
		},
		Edges: []Edge{
			{Source: Start, Target: "llm"},
			{Source: "llm", Target: End},
		},
		StateType: "dict",
	}
}

func TestGraphDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *GraphDefinition)
		wantErr error
	}{
		{
			name:    "valid definition",
			mutate:  func(d *GraphDefinition) {},
			wantErr: nil,
		},
		{
			name:    "no nodes",
			mutate:  func(d *GraphDefinition) { d.Nodes = nil },
			wantErr: ErrNoNodes,
		},
		{
			name: "duplicate node",
			mutate: func(d *GraphDefinition) {
				d.Nodes = append(d.Nodes, d.Nodes[0])
			},
			wantErr: ErrDuplicateNode,
		},
		{
			name: "reserved node id",
			mutate: func(d *GraphDefinition) {
				d.Nodes[0].ID = End
			},
			wantErr: ErrReservedNodeID,
		},
		{
			name: "config mismatch",
			mutate: func(d *GraphDefinition) {
				d.Nodes[0].Config = &ToolConfig{ToolType: "search", OutputKey: "x"}
			},
			wantErr: ErrConfigTypeMismatch,
		},
		{
			name: "unknown target",
			mutate: func(d *GraphDefinition) {
				d.Edges = append(d.Edges, Edge{Source: "llm", Target: "missing"})
			},
			wantErr: ErrTargetNodeNotFound,
		},
		{
			name: "unknown source",
			mutate: func(d *GraphDefinition) {
				d.Edges = append(d.Edges, Edge{Source: "ghost", Target: End})
			},
			wantErr: ErrSourceNodeNotFound,
		},
		{
			name: "END as source",
			mutate: func(d *GraphDefinition) {
				d.Edges = append(d.Edges, Edge{Source: End, Target: "llm"})
			},
			wantErr: ErrEndAsSource,
		},
		{
			name: "conditional without condition",
			mutate: func(d *GraphDefinition) {
				d.Edges[1].Type = EdgeTypeConditional
			},
			wantErr: ErrMissingCondition,
		},
		{
			name: "unconditional with condition",
			mutate: func(d *GraphDefinition) {
				d.Edges[1].Condition = &Condition{Key: "k"}
			},
			wantErr: ErrUnexpectedCondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := linearDefinition()
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEdge_ConditionTargetsMustBeDestinations(t *testing.T) {
	e := Edge{
		Source: "decide",
		Target: "a",
		Type:   EdgeTypeConditional,
		Condition: &Condition{
			Type:     ConditionKeyValue,
			Key:      "action",
			ValueMap: map[string]string{"go": "a", "stop": "b"},
			Default:  "a",
		},
		Destinations: []string{"a"},
	}
	assert.ErrorIs(t, e.Validate(), ErrConditionTargetNotDestination)

	e.Destinations = append(e.Destinations, "b")
	assert.NoError(t, e.Validate())
	assert.ElementsMatch(t, []string{"a", "a", "b", "a", "b", "a"}, e.Successors())
}

func TestNode_UnmarshalJSON(t *testing.T) {
	t.Run("selects variant by type", func(t *testing.T) {
		var n Node
		err := json.Unmarshal([]byte(`{"id":"search","type":"tool","config":{"tool_type":"search","max_results":3,"output_key":"results"}}`), &n)
		require.NoError(t, err)

		cfg, ok := n.Config.(*ToolConfig)
		require.True(t, ok)
		assert.Equal(t, 3, cfg.MaxResults)
		assert.Equal(t, NodeTypeTool, n.Config.NodeType())
	})

	t.Run("unknown type is carried verbatim", func(t *testing.T) {
		var n Node
		require.NoError(t, json.Unmarshal([]byte(`{"id":"x","type":"robot","config":{"arms":2}}`), &n))

		raw, ok := n.Config.(*RawConfig)
		require.True(t, ok)
		assert.Equal(t, NodeType("robot"), raw.NodeType())
		assert.ErrorIs(t, n.Validate(), ErrUnknownNodeType)

		data, err := json.Marshal(n)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"x","type":"robot","config":{"arms":2}}`, string(data))
	})

	t.Run("missing config decodes to empty variant", func(t *testing.T) {
		var n Node
		require.NoError(t, json.Unmarshal([]byte(`{"id":"h","type":"human"}`), &n))
		assert.Equal(t, &HumanConfig{}, n.Config)
	})

	t.Run("zero temperature survives encoding", func(t *testing.T) {
		d := linearDefinition()
		data, err := json.Marshal(d)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"temperature":0`)

		var back GraphDefinition
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, d, back)
	})
}

func TestGraphDefinition_Clone(t *testing.T) {
	d := linearDefinition()
	d.Edges = append(d.Edges, Edge{
		Source:       "llm",
		Target:       End,
		Type:         EdgeTypeConditional,
		Condition:    &Condition{Key: "k", ValueMap: map[string]string{"v": End}},
		Destinations: []string{End},
	})

	cp := d.Clone()
	require.Equal(t, d, cp)

	*cp.Nodes[0].Config.(*LLMConfig).Temperature = 1.5
	cp.Edges[2].Condition.ValueMap["v"] = "llm"
	cp.Edges[2].Destinations[0] = "llm"

	assert.Equal(t, 0.0, *d.Nodes[0].Config.(*LLMConfig).Temperature)
	assert.Equal(t, End, d.Edges[2].Condition.ValueMap["v"])
	assert.Equal(t, End, d.Edges[2].Destinations[0])
}

func TestGraphDefinition_KeepsUnmodelledKeys(t *testing.T) {
	doc := `{
		"nodes": [
			{"id": "a", "type": "llm", "position": {"x": 10, "y": 20},
			 "config": {"output_key": "out", "max_tokens": 256, "system_prompt": "be brief"}},
			{"id": "r", "type": "router", "config": {"routes": ["a"]}}
		],
		"edges": [
			{"id": "e1", "source": "START", "target": "a"},
			{"source": "a", "target": "END", "type": "conditional", "destinations": ["END"],
			 "condition": {"key": "k", "value_map": {"v": "END"}, "weight": 0.5}}
		],
		"state_type": "dict",
		"metadata": {"layout": "dagre"}
	}`

	var d GraphDefinition
	require.NoError(t, json.Unmarshal([]byte(doc), &d))

	cfg := d.Nodes[0].Config.(*LLMConfig)
	assert.Equal(t, "out", cfg.OutputKey)
	assert.JSONEq(t, `256`, string(cfg.Extra["max_tokens"]))
	assert.JSONEq(t, `{"x": 10, "y": 20}`, string(d.Nodes[0].Extra["position"]))
	assert.JSONEq(t, `"e1"`, string(d.Edges[0].Extra["id"]))
	assert.JSONEq(t, `0.5`, string(d.Edges[1].Condition.Extra["weight"]))
	assert.JSONEq(t, `{"layout": "dagre"}`, string(d.Extra["metadata"]))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(data))

	data, err = json.Marshal(d.Clone())
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(data), "clones keep unmodelled keys")
}

func TestGraphDefinition_CloneCopiesExtra(t *testing.T) {
	var d GraphDefinition
	require.NoError(t, json.Unmarshal([]byte(`{"nodes":[{"id":"a","type":"human","position":{"x":1}}],"edges":[],"metadata":{"v":1}}`), &d))

	cp := d.Clone()
	cp.Extra["metadata"][5] = '9'
	cp.Nodes[0].Extra["position"] = json.RawMessage(`{"x":2}`)

	assert.JSONEq(t, `{"v":1}`, string(d.Extra["metadata"]))
	assert.JSONEq(t, `{"x":1}`, string(d.Nodes[0].Extra["position"]))
}
