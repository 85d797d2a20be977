// Package graph provides node definitions
package graph

import (
	"encoding/json"
	"fmt"
)

// NodeType represents the type of node
type NodeType string

const (
	// NodeTypeLLM prompts a language model
	NodeTypeLLM NodeType = "llm"
	// NodeTypeTool invokes an external tool such as search
	NodeTypeTool NodeType = "tool"
	// NodeTypeTransform reshapes a state value
	NodeTypeTransform NodeType = "transform"
	// NodeTypeHuman hands control to a human
	NodeTypeHuman NodeType = "human"
)

// NodeTypes lists every recognized node type in declaration order.
var NodeTypes = []NodeType{NodeTypeLLM, NodeTypeTool, NodeTypeTransform, NodeTypeHuman}

// Node represents a typed unit of work within a definition.
// PRINCIPLES:
// - KISS: the type tag selects exactly one config variant
// - SRP: only responsible for node data
type Node struct {
	ID     string     `json:"id"`
	Type   NodeType   `json:"type"`
	Config NodeConfig `json:"config"`
	Extra  Extra      `json:"-"`
}

// NodeConfig is the closed set of per-type node configurations.
// Only the variants in this package implement it.
type NodeConfig interface {
	NodeType() NodeType
	clone() NodeConfig
}

// LLMConfig configures an llm node.
type LLMConfig struct {
	ModelName      string   `json:"model_name,omitempty" validate:"omitempty,model_name"`
	Temperature    *float64 `json:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	PromptTemplate string   `json:"prompt_template,omitempty" validate:"omitempty,max=20000"`
	InputKey       string   `json:"input_key,omitempty" validate:"omitempty,state_key"`
	InputKeys      []string `json:"input_keys,omitempty" validate:"omitempty,dive,state_key"`
	OutputKey      string   `json:"output_key" validate:"required,state_key"`
	Extra          Extra    `json:"-"`
}

// ToolConfig configures a tool node.
type ToolConfig struct {
	ToolType   string `json:"tool_type" validate:"required,oneof=search"`
	MaxResults int    `json:"max_results,omitempty" validate:"omitempty,min=1,max=50"`
	InputKey   string `json:"input_key,omitempty" validate:"omitempty,state_key"`
	OutputKey  string `json:"output_key" validate:"required,state_key"`
	Extra      Extra  `json:"-"`
}

// TransformConfig configures a transform node.
type TransformConfig struct {
	TransformType string `json:"transform_type" validate:"required,oneof=extract_json pass_through"`
	InputKey      string `json:"input_key,omitempty" validate:"omitempty,state_key"`
	OutputKey     string `json:"output_key" validate:"required,state_key"`
	Extra         Extra  `json:"-"`
}

// HumanConfig configures a human-in-the-loop node.
type HumanConfig struct {
	InputKey  string `json:"input_key,omitempty" validate:"omitempty,state_key"`
	OutputKey string `json:"output_key,omitempty" validate:"omitempty,state_key"`
	Extra     Extra  `json:"-"`
}

// RawConfig is the config of a node type outside the modelled set. It is
// carried verbatim so such graphs can be read, run and updated; validation
// rejects it.
type RawConfig struct {
	Type NodeType
	Raw  json.RawMessage
}

func (*LLMConfig) NodeType() NodeType       { return NodeTypeLLM }
func (*ToolConfig) NodeType() NodeType      { return NodeTypeTool }
func (*TransformConfig) NodeType() NodeType { return NodeTypeTransform }
func (*HumanConfig) NodeType() NodeType     { return NodeTypeHuman }
func (c *RawConfig) NodeType() NodeType     { return c.Type }

func (c *LLMConfig) clone() NodeConfig {
	cp := *c
	if c.Temperature != nil {
		t := *c.Temperature
		cp.Temperature = &t
	}
	if c.InputKeys != nil {
		cp.InputKeys = append([]string(nil), c.InputKeys...)
	}
	cp.Extra = c.Extra.Clone()
	return &cp
}

func (c *ToolConfig) clone() NodeConfig      { cp := *c; cp.Extra = c.Extra.Clone(); return &cp }
func (c *TransformConfig) clone() NodeConfig { cp := *c; cp.Extra = c.Extra.Clone(); return &cp }
func (c *HumanConfig) clone() NodeConfig     { cp := *c; cp.Extra = c.Extra.Clone(); return &cp }

func (c *RawConfig) clone() NodeConfig {
	return &RawConfig{Type: c.Type, Raw: append(json.RawMessage(nil), c.Raw...)}
}

func (c *LLMConfig) UnmarshalJSON(data []byte) error {
	type plain LLMConfig
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*c = LLMConfig(p)
	c.Extra = extra
	return nil
}

func (c LLMConfig) MarshalJSON() ([]byte, error) {
	type plain LLMConfig
	return encodeWithExtra(plain(c), c.Extra)
}

func (c *ToolConfig) UnmarshalJSON(data []byte) error {
	type plain ToolConfig
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*c = ToolConfig(p)
	c.Extra = extra
	return nil
}

func (c ToolConfig) MarshalJSON() ([]byte, error) {
	type plain ToolConfig
	return encodeWithExtra(plain(c), c.Extra)
}

func (c *TransformConfig) UnmarshalJSON(data []byte) error {
	type plain TransformConfig
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*c = TransformConfig(p)
	c.Extra = extra
	return nil
}

func (c TransformConfig) MarshalJSON() ([]byte, error) {
	type plain TransformConfig
	return encodeWithExtra(plain(c), c.Extra)
}

func (c *HumanConfig) UnmarshalJSON(data []byte) error {
	type plain HumanConfig
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*c = HumanConfig(p)
	c.Extra = extra
	return nil
}

func (c HumanConfig) MarshalJSON() ([]byte, error) {
	type plain HumanConfig
	return encodeWithExtra(plain(c), c.Extra)
}

func (c RawConfig) MarshalJSON() ([]byte, error) {
	if len(c.Raw) == 0 {
		return []byte("null"), nil
	}
	return c.Raw, nil
}

// NewNodeConfig returns an empty config variant for the given type.
func NewNodeConfig(t NodeType) (NodeConfig, error) {
	switch t {
	case NodeTypeLLM:
		return &LLMConfig{}, nil
	case NodeTypeTool:
		return &ToolConfig{}, nil
	case NodeTypeTransform:
		return &TransformConfig{}, nil
	case NodeTypeHuman:
		return &HumanConfig{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
	}
}

// UnmarshalJSON decodes the config variant selected by the type tag.
// Unknown types decode into a RawConfig.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID     string          `json:"id"`
		Type   NodeType        `json:"type"`
		Config json.RawMessage `json:"config"`
	}
	extra, err := decodeWithExtra(data, &raw)
	if err != nil {
		return err
	}
	hasConfig := len(raw.Config) > 0 && string(raw.Config) != "null"

	cfg, err := NewNodeConfig(raw.Type)
	switch {
	case err != nil:
		rc := &RawConfig{Type: raw.Type}
		if hasConfig {
			rc.Raw = append(json.RawMessage(nil), raw.Config...)
		}
		cfg = rc
	case hasConfig:
		if err := json.Unmarshal(raw.Config, cfg); err != nil {
			return fmt.Errorf("node %q: decoding %s config: %w", raw.ID, raw.Type, err)
		}
	}
	n.ID = raw.ID
	n.Type = raw.Type
	n.Config = cfg
	n.Extra = extra
	return nil
}

func (n Node) MarshalJSON() ([]byte, error) {
	type plain Node
	return encodeWithExtra(plain(n), n.Extra)
}

// Validate ensures node integrity
// PRINCIPLES:
// - SRP: Single responsibility - validation only
// - KISS: Simple validation, <10 lines
func (n *Node) Validate() error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if IsSentinel(n.ID) {
		return fmt.Errorf("%w: %s", ErrReservedNodeID, n.ID)
	}
	if n.Config == nil {
		return fmt.Errorf("%w: %s", ErrNilConfig, n.ID)
	}
	if _, ok := n.Config.(*RawConfig); ok {
		return fmt.Errorf("%w: node %s has type %q", ErrUnknownNodeType, n.ID, n.Type)
	}
	if n.Config.NodeType() != n.Type {
		return fmt.Errorf("%w: node %s is %q but config is %q", ErrConfigTypeMismatch, n.ID, n.Type, n.Config.NodeType())
	}
	return nil
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	if n.Config != nil {
		n.Config = n.Config.clone()
	}
	n.Extra = n.Extra.Clone()
	return n
}
