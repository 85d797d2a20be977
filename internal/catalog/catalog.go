// Package catalog holds the fixed set of starter graph definitions. The
// catalog is loaded once from an embedded YAML document; every template is
// validated at load time and callers only ever receive copies.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	coregraph "github.com/hyder110/GraphFlow/internal/core/graph"
	"github.com/hyder110/GraphFlow/pkg/validation"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var embedded []byte

// FilterAll selects every template.
const FilterAll = "all"

// Difficulty levels in ascending order.
const (
	Beginner     = "Beginner"
	Intermediate = "Intermediate"
	Advanced     = "Advanced"
)

// ErrDuplicateTemplate is returned when two templates share an id.
var ErrDuplicateTemplate = errors.New("duplicate template id")

// Template is an immutable starter definition plus gallery metadata.
type Template struct {
	ID          string                    `json:"id" validate:"required,node_id"`
	Name        string                    `json:"name" validate:"required"`
	Description string                    `json:"description"`
	Difficulty  string                    `json:"difficulty" validate:"required,oneof=Beginner Intermediate Advanced"`
	Tags        []string                  `json:"tags"`
	Nodes       int                       `json:"nodes" validate:"min=0"`
	Edges       int                       `json:"edges" validate:"min=0"`
	Image       string                    `json:"image,omitempty"`
	Definition  coregraph.GraphDefinition `json:"definition"`
}

// Clone returns a deep copy of t.
func (t Template) Clone() Template {
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	t.Definition = t.Definition.Clone()
	return t
}

// Matches reports whether t is selected by filter: empty or "all" selects
// everything, otherwise difficulty or any tag must equal filter ignoring case.
func (t *Template) Matches(filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, FilterAll) {
		return true
	}
	if strings.EqualFold(t.Difficulty, filter) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.EqualFold(tag, filter) {
			return true
		}
	}
	return false
}

// Catalog is a read-only, ordered template collection. Safe for concurrent
// use since nothing mutates it after construction.
type Catalog struct {
	templates []Template
	byID      map[string]int
}

// Default loads the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Parse builds a catalog from a YAML document with a top-level "templates"
// list. Each definition must pass validation.ValidateDefinition.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Templates []map[string]interface{} `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	// Definitions decode through JSON so node configs go through the same
	// type-tagged decoding the service responses use.
	raw, err := json.Marshal(doc.Templates)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	var templates []Template
	if err := json.Unmarshal(raw, &templates); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{templates: templates, byID: make(map[string]int, len(templates))}
	for i := range templates {
		t := &templates[i]
		if err := validation.ValidateWithPlayground(t); err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, t.ID)
		}
		if err := validation.ValidateDefinition(&t.Definition); err != nil {
			return nil, fmt.Errorf("template %s: %w", t.ID, err)
		}
		c.byID[t.ID] = i
	}
	return c, nil
}

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.templates) }

// List returns copies of the templates selected by filter, in declared order.
func (c *Catalog) List(filter string) []Template {
	out := make([]Template, 0, len(c.templates))
	for i := range c.templates {
		if c.templates[i].Matches(filter) {
			out = append(out, c.templates[i].Clone())
		}
	}
	return out
}

// Get returns a copy of the template with the given id.
func (c *Catalog) Get(id string) (Template, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Template{}, false
	}
	return c.templates[i].Clone(), true
}
