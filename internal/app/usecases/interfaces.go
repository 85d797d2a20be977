package usecases

import (
	"context"

	"github.com/hyder110/GraphFlow/internal/catalog"
	"github.com/hyder110/GraphFlow/pkg/client"
)

// TemplateSource looks up catalog templates
// PRINCIPLES:
// - ISP: the flow only needs lookup by id
// - DIP: satisfied by *catalog.Catalog
type TemplateSource interface {
	Get(id string) (catalog.Template, bool)
}

// GraphCreator creates graphs on the graph service
// PRINCIPLES:
// - ISP: one method, the only remote call the flow makes
// - DIP: satisfied by *client.Client
type GraphCreator interface {
	CreateGraph(ctx context.Context, req client.CreateGraphRequest) (*client.Graph, error)
}

// GraphRunner reads and runs stored graphs
type GraphRunner interface {
	// GetGraph fetches the stored graph, used for its definition fingerprint
	GetGraph(ctx context.Context, id int) (*client.Graph, error)

	// RunGraph executes the graph on the service
	RunGraph(ctx context.Context, id int, input interface{}) (*client.RunResult, error)
}
