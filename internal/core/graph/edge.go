// Package graph provides edge definitions
package graph

import "fmt"

// EdgeType represents the type of edge
type EdgeType string

const (
	// EdgeTypeDefault is an unconditional edge; it is encoded by omitting the type
	EdgeTypeDefault EdgeType = ""
	// EdgeTypeConditional routes on a state value
	EdgeTypeConditional EdgeType = "conditional"
)

// ConditionType selects how a conditional edge picks its destination
type ConditionType string

// ConditionKeyValue routes on the string form of one state field.
const ConditionKeyValue ConditionType = "key_value"

// Condition describes the routing of a conditional edge.
type Condition struct {
	Type     ConditionType     `json:"type,omitempty"`
	Key      string            `json:"key"`
	ValueMap map[string]string `json:"value_map"`
	Default  string            `json:"default,omitempty"`
	Extra    Extra             `json:"-"`
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	type plain Condition
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*c = Condition(p)
	c.Extra = extra
	return nil
}

func (c Condition) MarshalJSON() ([]byte, error) {
	type plain Condition
	return encodeWithExtra(plain(c), c.Extra)
}

// Edge represents a connection between nodes
// PRINCIPLES:
// - KISS: Simple edge representation
// - SRP: Only responsible for edge data
type Edge struct {
	Source       string     `json:"source"`
	Target       string     `json:"target"`
	Type         EdgeType   `json:"type,omitempty"`
	Condition    *Condition `json:"condition,omitempty"`
	Destinations []string   `json:"destinations,omitempty"`
	Extra        Extra      `json:"-"`
}

func (e *Edge) UnmarshalJSON(data []byte) error {
	type plain Edge
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*e = Edge(p)
	e.Extra = extra
	return nil
}

func (e Edge) MarshalJSON() ([]byte, error) {
	type plain Edge
	return encodeWithExtra(plain(e), e.Extra)
}

// IsConditional checks if edge is conditional
func (e *Edge) IsConditional() bool {
	return e.Type == EdgeTypeConditional
}

// Validate ensures edge integrity without looking at the surrounding definition.
func (e *Edge) Validate() error {
	if e.Source == "" {
		return ErrInvalidSource
	}
	if e.Target == "" {
		return ErrInvalidTarget
	}
	if e.Source == End {
		return ErrEndAsSource
	}
	if e.Target == Start {
		return ErrStartAsTarget
	}
	switch e.Type {
	case EdgeTypeDefault:
		if e.Condition != nil || len(e.Destinations) > 0 {
			return fmt.Errorf("%w: %s -> %s", ErrUnexpectedCondition, e.Source, e.Target)
		}
		return nil
	case EdgeTypeConditional:
		return e.validateCondition()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEdgeType, e.Type)
	}
}

func (e *Edge) validateCondition() error {
	c := e.Condition
	if c == nil {
		return fmt.Errorf("%w: %s -> %s", ErrMissingCondition, e.Source, e.Target)
	}
	if c.Type != "" && c.Type != ConditionKeyValue {
		return fmt.Errorf("%w: %q", ErrUnknownConditionType, c.Type)
	}
	if c.Key == "" {
		return fmt.Errorf("%w: %s -> %s", ErrMissingConditionKey, e.Source, e.Target)
	}
	dest := make(map[string]struct{}, len(e.Destinations))
	for _, d := range e.Destinations {
		dest[d] = struct{}{}
	}
	for value, target := range c.ValueMap {
		if _, ok := dest[target]; !ok {
			return fmt.Errorf("%w: value %q routes to %q", ErrConditionTargetNotDestination, value, target)
		}
	}
	if c.Default != "" {
		if _, ok := dest[c.Default]; !ok {
			return fmt.Errorf("%w: default routes to %q", ErrConditionTargetNotDestination, c.Default)
		}
	}
	return nil
}

// Successors returns every node an edge can lead to.
func (e *Edge) Successors() []string {
	if !e.IsConditional() {
		return []string{e.Target}
	}
	out := append([]string{e.Target}, e.Destinations...)
	if e.Condition != nil {
		for _, t := range e.Condition.ValueMap {
			out = append(out, t)
		}
		if e.Condition.Default != "" {
			out = append(out, e.Condition.Default)
		}
	}
	return out
}

// Clone returns a deep copy of the edge.
func (e Edge) Clone() Edge {
	if e.Destinations != nil {
		e.Destinations = append([]string(nil), e.Destinations...)
	}
	if e.Condition != nil {
		c := *e.Condition
		if c.ValueMap != nil {
			c.ValueMap = make(map[string]string, len(e.Condition.ValueMap))
			for k, v := range e.Condition.ValueMap {
				c.ValueMap[k] = v
			}
		}
		c.Extra = e.Condition.Extra.Clone()
		e.Condition = &c
	}
	e.Extra = e.Extra.Clone()
	return e
}
