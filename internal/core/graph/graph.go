// Package graph provides the core graph domain entities
// following Clean Architecture principles with zero external dependencies.
package graph

import "fmt"

// Reserved node identifiers marking a definition's entry and exit.
const (
	Start = "START"
	End   = "END"
)

// IsSentinel reports whether id is START or END.
func IsSentinel(id string) bool {
	return id == Start || id == End
}

// GraphDefinition is the unit of persisted work
// PRINCIPLES:
// - KISS: ordered nodes and edges, nothing derived
// - SRP: only responsible for definition structure, not execution
type GraphDefinition struct {
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
	StateType string `json:"state_type,omitempty"`
	// Extra keeps definition-level keys such as layout metadata.
	Extra Extra `json:"-"`
}

func (d *GraphDefinition) UnmarshalJSON(data []byte) error {
	type plain GraphDefinition
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*d = GraphDefinition(p)
	d.Extra = extra
	return nil
}

func (d GraphDefinition) MarshalJSON() ([]byte, error) {
	type plain GraphDefinition
	return encodeWithExtra(plain(d), d.Extra)
}

// Validate ensures definition integrity: unique node ids, known edge
// endpoints and well-formed conditions. Path invariants are checked by
// the validation package.
func (d *GraphDefinition) Validate() error {
	if len(d.Nodes) == 0 {
		return ErrNoNodes
	}
	ids := make(map[string]struct{}, len(d.Nodes))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if err := n.Validate(); err != nil {
			return err
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	known := func(id string) bool {
		_, ok := ids[id]
		return ok || IsSentinel(id)
	}
	for i := range d.Edges {
		e := &d.Edges[i]
		if err := e.Validate(); err != nil {
			return err
		}
		if !known(e.Source) {
			return fmt.Errorf("%w: %s", ErrSourceNodeNotFound, e.Source)
		}
		for _, t := range e.Successors() {
			if !known(t) {
				return fmt.Errorf("%w: %s", ErrTargetNodeNotFound, t)
			}
		}
	}
	return nil
}

// Node returns the node with the given id.
func (d *GraphDefinition) Node(id string) (*Node, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy that shares no memory with d.
func (d GraphDefinition) Clone() GraphDefinition {
	out := GraphDefinition{StateType: d.StateType, Extra: d.Extra.Clone()}
	if d.Nodes != nil {
		out.Nodes = make([]Node, len(d.Nodes))
		for i, n := range d.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}
	if d.Edges != nil {
		out.Edges = make([]Edge, len(d.Edges))
		for i, e := range d.Edges {
			out.Edges[i] = e.Clone()
		}
	}
	return out
}

// Graph is the server-owned workflow entity. The client only holds
// a transient copy for display.
type Graph struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Definition  GraphDefinition `json:"definition"`
	UserID      *int            `json:"user_id,omitempty"`
	CreatedAt   Timestamp       `json:"created_at"`
	UpdatedAt   *Timestamp      `json:"updated_at"`
}

// Summary projects a graph onto its listing fields.
func (g *Graph) Summary() GraphSummary {
	return GraphSummary{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// GraphSummary is one entry of the graph listing.
type GraphSummary struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   Timestamp  `json:"created_at"`
	UpdatedAt   *Timestamp `json:"updated_at"`
}
