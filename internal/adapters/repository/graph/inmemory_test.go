package graphrepo

import (
	"context"
	"sync"
	"testing"
	"time"

	coregraph "github.com/hyder110/GraphFlow/internal/core/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func humanDefinition(ids ...string) coregraph.GraphDefinition {
	def := coregraph.GraphDefinition{StateType: "dict"}
	prev := coregraph.Start
	for _, id := range ids {
		def.Nodes = append(def.Nodes, coregraph.Node{ID: id, Type: coregraph.NodeTypeHuman, Config: &coregraph.HumanConfig{InputKey: "input", OutputKey: "final_output"}})
		def.Edges = append(def.Edges, coregraph.Edge{Source: prev, Target: id})
		prev = id
	}
	def.Edges = append(def.Edges, coregraph.Edge{Source: prev, Target: coregraph.End})
	return def
}

func fixedClock(repo *InMemoryGraphRepository) time.Time {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	repo.now = func() time.Time { return at }
	return at
}

func TestInMemoryGraphRepository_Get_NotFound(t *testing.T) {
	repo := NewInMemoryGraphRepository()

	g, err := repo.Get(context.Background(), 42)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, coregraph.ErrGraphNotFound)
}

func TestInMemoryGraphRepository_CreateAndGet(t *testing.T) {
	repo := NewInMemoryGraphRepository()
	at := fixedClock(repo)
	ctx := context.Background()

	first, err := repo.Create(ctx, &coregraph.Graph{Name: "one", Definition: humanDefinition("a")})
	require.NoError(t, err)
	second, err := repo.Create(ctx, &coregraph.Graph{Name: "two", Definition: humanDefinition("a", "b")})
	require.NoError(t, err)

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
	assert.True(t, at.Equal(first.CreatedAt.Time))
	assert.Nil(t, first.UpdatedAt)

	loaded, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
}

func TestInMemoryGraphRepository_CreateInvalid(t *testing.T) {
	repo := NewInMemoryGraphRepository()

	def := humanDefinition("a")
	def.Edges = append(def.Edges, coregraph.Edge{Source: "a", Target: "missing"})

	_, err := repo.Create(context.Background(), &coregraph.Graph{Name: "bad", Definition: def})
	assert.ErrorIs(t, err, coregraph.ErrTargetNodeNotFound)
	assert.Equal(t, 0, repo.Len())
}

func TestInMemoryGraphRepository_CopiesDoNotLeak(t *testing.T) {
	repo := NewInMemoryGraphRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &coregraph.Graph{Name: "one", Definition: humanDefinition("a")})
	require.NoError(t, err)
	created.Definition.Nodes[0].ID = "mutated"

	loaded, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.Definition.Nodes[0].ID)
}

func TestInMemoryGraphRepository_Update(t *testing.T) {
	repo := NewInMemoryGraphRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &coregraph.Graph{Name: "one", Definition: humanDefinition("a")})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, "renamed", "now with b", humanDefinition("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "now with b", updated.Description)
	assert.Len(t, updated.Definition.Nodes, 2)
	require.NotNil(t, updated.UpdatedAt)

	_, err = repo.Update(ctx, 99, "x", "", humanDefinition("a"))
	assert.ErrorIs(t, err, coregraph.ErrGraphNotFound)
}

func TestInMemoryGraphRepository_ListAndDelete(t *testing.T) {
	repo := NewInMemoryGraphRepository()
	ctx := context.Background()

	for _, name := range []string{"one", "two", "three"} {
		_, err := repo.Create(ctx, &coregraph.Graph{Name: name, Definition: humanDefinition("a")})
		require.NoError(t, err)
	}
	require.NoError(t, repo.Delete(ctx, 2))
	assert.ErrorIs(t, repo.Delete(ctx, 2), coregraph.ErrGraphNotFound)

	graphs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, graphs, 2)
	assert.Equal(t, 1, graphs[0].ID)
	assert.Equal(t, 3, graphs[1].ID)

	// ids are never reused
	g, err := repo.Create(ctx, &coregraph.Graph{Name: "four", Definition: humanDefinition("a")})
	require.NoError(t, err)
	assert.Equal(t, 4, g.ID)
}

func TestInMemoryGraphRepository_ConcurrentCreate(t *testing.T) {
	repo := NewInMemoryGraphRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan int, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := repo.Create(ctx, &coregraph.Graph{Name: "g", Definition: humanDefinition("a")})
			assert.NoError(t, err)
			ids <- g.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Equal(t, 50, repo.Len())
}
