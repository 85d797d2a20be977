package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyder110/GraphFlow/pkg/client"
)

// Everything an outside caller needs is reachable from the client package.
func TestPublicSurface_BuildsAndSendsDefinition(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":3,"name":"Mine","definition":{"nodes":[],"edges":[]},"created_at":"2025-01-01T00:00:00Z","updated_at":null}`))
	}))
	t.Cleanup(ts.Close)

	c, err := client.New(client.Config{BaseURL: ts.URL})
	require.NoError(t, err)

	temp := 0.0
	def := client.GraphDefinition{
		Nodes: []client.Node{
			{ID: "ask", Type: client.NodeTypeLLM, Config: &client.LLMConfig{ModelName: "gpt-4", Temperature: &temp, OutputKey: "final_output"}},
		},
		Edges: []client.Edge{
			{Source: client.Start, Target: "ask"},
			{Source: "ask", Target: client.End},
		},
		StateType: "dict",
	}
	g, err := c.CreateGraph(context.Background(), client.CreateGraphRequest{Name: "Mine", Definition: def})
	require.NoError(t, err)
	assert.Equal(t, 3, g.ID)
	assert.Equal(t, "application/json", got)
}
