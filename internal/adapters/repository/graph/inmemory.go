// Package graphrepo stores graphs for the development stub server
package graphrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hyder110/GraphFlow/internal/core/graph"
)

// InMemoryGraphRepository provides an in-memory implementation of a graph repository
// PRINCIPLES:
// - KISS: Simple map-based storage with a monotonic id sequence
// - SRP: Only responsible for graph persistence
// - Thread-safe
type InMemoryGraphRepository struct {
	mu     sync.RWMutex
	graphs map[int]*graph.Graph
	nextID int
	now    func() time.Time
}

// NewInMemoryGraphRepository creates an empty repository; ids start at 1.
func NewInMemoryGraphRepository() *InMemoryGraphRepository {
	return &InMemoryGraphRepository{
		graphs: make(map[int]*graph.Graph),
		nextID: 1,
		now:    time.Now,
	}
}

// Create assigns the next id and creation time to g and stores a copy.
func (r *InMemoryGraphRepository) Create(_ context.Context, g *graph.Graph) (*graph.Graph, error) {
	if err := g.Definition.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneGraph(g)
	stored.ID = r.nextID
	stored.CreatedAt = graph.NewTimestamp(r.now())
	stored.UpdatedAt = nil
	r.nextID++
	r.graphs[stored.ID] = stored
	return cloneGraph(stored), nil
}

// Get returns a copy of the graph with the given id.
func (r *InMemoryGraphRepository) Get(_ context.Context, id int) (*graph.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.graphs[id]
	if !ok {
		return nil, graph.ErrGraphNotFound
	}
	return cloneGraph(g), nil
}

// List returns copies of every graph ordered by id.
func (r *InMemoryGraphRepository) List(_ context.Context) ([]*graph.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*graph.Graph, 0, len(r.graphs))
	for _, g := range r.graphs {
		out = append(out, cloneGraph(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update replaces name, description and definition of an existing graph.
func (r *InMemoryGraphRepository) Update(_ context.Context, id int, name, description string, def graph.GraphDefinition) (*graph.Graph, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.graphs[id]
	if !ok {
		return nil, graph.ErrGraphNotFound
	}
	updated := graph.NewTimestamp(r.now())
	g.Name = name
	g.Description = description
	g.Definition = def.Clone()
	g.UpdatedAt = &updated
	return cloneGraph(g), nil
}

// Delete removes the graph with the given id.
func (r *InMemoryGraphRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.graphs[id]; !ok {
		return graph.ErrGraphNotFound
	}
	delete(r.graphs, id)
	return nil
}

// Len returns the number of stored graphs.
func (r *InMemoryGraphRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.graphs)
}

func cloneGraph(g *graph.Graph) *graph.Graph {
	cp := *g
	cp.Definition = g.Definition.Clone()
	if g.UserID != nil {
		uid := *g.UserID
		cp.UserID = &uid
	}
	if g.UpdatedAt != nil {
		ts := *g.UpdatedAt
		cp.UpdatedAt = &ts
	}
	return &cp
}
