package dto

import "fmt"

// FlowState is the state of a template instantiation flow.
type FlowState int32

const (
	FlowIdle FlowState = iota
	FlowSubmitting
	FlowRedirecting
	FlowFailed
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowSubmitting:
		return "submitting"
	case FlowRedirecting:
		return "redirecting"
	case FlowFailed:
		return "failed"
	default:
		return fmt.Sprintf("FlowState(%d)", int32(s))
	}
}

// InstantiationFailedMessage is shown when creation fails for a reason the
// graph service did not explain.
const InstantiationFailedMessage = "Failed to create graph from template. Please try again."

// Outcome is the result of a successful instantiation.
type Outcome struct {
	TemplateID   string `json:"template_id"`
	GraphID      int    `json:"graph_id"`
	GraphName    string `json:"graph_name"`
	RedirectPath string `json:"redirect_path"`
}

// EditorPath is the editor location of a graph.
func EditorPath(graphID int) string {
	return fmt.Sprintf("/graph/%d", graphID)
}
