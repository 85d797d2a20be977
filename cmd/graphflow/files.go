package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	coregraph "github.com/hyder110/GraphFlow/internal/core/graph"
	"github.com/hyder110/GraphFlow/pkg/validation"
)

// readDefinition loads a definition file. Comments and trailing commas are
// allowed; the file is stripped to plain JSON before decoding. A file may
// hold the definition itself or a graph object with a "definition" field.
// Keys the model does not know are kept and sent to the service as they
// are; node types it does not know fail validation.
func readDefinition(path string, opts ...validation.GraphValidationOptions) (*coregraph.GraphDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	stripped := jsonc.ToJSON(data)

	var wrapper struct {
		Definition json.RawMessage `json:"definition"`
	}
	if err := json.Unmarshal(stripped, &wrapper); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(wrapper.Definition) > 0 {
		stripped = wrapper.Definition
	}

	var def coregraph.GraphDefinition
	if err := json.Unmarshal(stripped, &def); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := validation.ValidateDefinition(&def, opts...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &def, nil
}

// parseInput reads a run input: JSON when it parses, otherwise the text itself.
func parseInput(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal(jsonc.ToJSON([]byte(raw)), &v); err == nil {
		return v
	}
	return raw
}
