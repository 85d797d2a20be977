package validation

import (
	"errors"
	"fmt"

	coregraph "github.com/hyder110/GraphFlow/internal/core/graph"
)

// GraphValidationOptions controls optional validation checks.
type GraphValidationOptions struct {
	// CheckCycles enables detection of directed cycles.
	CheckCycles bool
	// RequireKnownModels rejects llm nodes whose model is not in KnownModels.
	RequireKnownModels bool
}

// ErrCyclicDefinition is returned when CheckCycles finds a cycle.
var ErrCyclicDefinition = errors.New("cyclic dependency detected")

// ValidateDefinition performs full validation of a graph definition: the
// structural checks of the core entity, the per-type config schema of every
// node, and the START/END path invariants. It is intended for definitions
// loaded from the catalog or from files; responses from the graph service
// are passed through unchecked.
func ValidateDefinition(def *coregraph.GraphDefinition, opts ...GraphValidationOptions) error {
	if def == nil {
		return fmt.Errorf("definition is nil")
	}

	var cfg GraphValidationOptions
	if len(opts) > 0 {
		cfg = opts[0]
	}

	if err := def.Validate(); err != nil {
		return err
	}

	// Per-variant config schemas
	var schemaErrs ValidationErrors
	for i := range def.Nodes {
		n := &def.Nodes[i]
		if err := ValidateWithPlayground(n.Config); err != nil {
			verrs, ok := err.(ValidationErrors)
			if !ok {
				return fmt.Errorf("node %s: %w", n.ID, err)
			}
			for _, v := range verrs {
				v.Field = fmt.Sprintf("definition.nodes.%d.config.%s", i, v.Field)
				schemaErrs = append(schemaErrs, v)
			}
		}
		if cfg.RequireKnownModels {
			if llm, ok := n.Config.(*coregraph.LLMConfig); ok && llm.ModelName != "" && !IsKnownModel(llm.ModelName) {
				schemaErrs = append(schemaErrs, ValidationError{
					Field:   fmt.Sprintf("definition.nodes.%d.config.model_name", i),
					Value:   llm.ModelName,
					Message: "unknown model",
					Type:    "value_error.model_name",
				})
			}
		}
	}
	if len(schemaErrs) > 0 {
		return schemaErrs
	}

	if err := checkPaths(def); err != nil {
		return err
	}

	if cfg.CheckCycles && hasCycle(def) {
		return ErrCyclicDefinition
	}
	return nil
}

// adjacency maps each source to every node its edges can lead to.
func adjacency(def *coregraph.GraphDefinition) map[string][]string {
	adj := make(map[string][]string, len(def.Nodes)+1)
	for i := range def.Edges {
		e := &def.Edges[i]
		adj[e.Source] = append(adj[e.Source], e.Successors()...)
	}
	return adj
}

// checkPaths enforces a single entry edge, reachability of every node from
// START and at least one path to END.
func checkPaths(def *coregraph.GraphDefinition) error {
	entries := 0
	for _, e := range def.Edges {
		if e.Source == coregraph.Start {
			entries++
		}
	}
	switch {
	case entries == 0:
		return coregraph.ErrNoEntryEdge
	case entries > 1:
		return coregraph.ErrMultipleEntryEdges
	}

	adj := adjacency(def)
	reached := map[string]bool{coregraph.Start: true}
	queue := []string{coregraph.Start}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adj[u] {
			if !reached[v] {
				reached[v] = true
				queue = append(queue, v)
			}
		}
	}

	for _, n := range def.Nodes {
		if !reached[n.ID] {
			return fmt.Errorf("%w: %s", coregraph.ErrUnreachableNode, n.ID)
		}
	}
	if !reached[coregraph.End] {
		return coregraph.ErrNoPathToEnd
	}
	return nil
}

// hasCycle detects any cycle in a directed graph using DFS with coloring.
func hasCycle(def *coregraph.GraphDefinition) bool {
	const (
		white = 0 // unvisited
		gray  = 1 // visiting
		black = 2 // visited
	)
	color := make(map[string]int, len(def.Nodes))
	adj := adjacency(def)
	var dfs func(string) bool
	dfs = func(u string) bool {
		color[u] = gray
		for _, v := range adj[u] {
			if color[v] == gray {
				return true // back-edge
			}
			if color[v] == white {
				if dfs(v) {
					return true
				}
			}
		}
		color[u] = black
		return false
	}
	for _, n := range def.Nodes {
		if color[n.ID] == white {
			if dfs(n.ID) {
				return true
			}
		}
	}
	return false
}
