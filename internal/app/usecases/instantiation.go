package usecases

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hyder110/GraphFlow/internal/app/dto"
	"github.com/hyder110/GraphFlow/internal/infrastructure/logging"
	"github.com/hyder110/GraphFlow/internal/infrastructure/metrics"
	"github.com/hyder110/GraphFlow/pkg/client"
)

// DefaultOwnerID owns graphs created from templates.
const DefaultOwnerID = 1

// InstantiationFlow turns a catalog template into a new graph on the service
// PRINCIPLES:
// - SRP: coordinates catalog lookup with remote creation, nothing else
// - KISS: one atomic state word is both the state and the in-flight guard
// - DIP: depends on TemplateSource and GraphCreator abstractions
type InstantiationFlow struct {
	templates TemplateSource
	graphs    GraphCreator
	logger    *logging.Logger
	ownerID   int
	observer  func(from, to dto.FlowState)

	state     atomic.Int32
	lastError atomic.Pointer[string]
}

// FlowOption configures an InstantiationFlow.
type FlowOption func(*InstantiationFlow)

// WithOwnerID sets the user id sent with created graphs.
func WithOwnerID(id int) FlowOption {
	return func(f *InstantiationFlow) { f.ownerID = id }
}

// WithObserver registers a callback for every state transition. It runs on
// the goroutine that calls Select or NavigationStarted.
func WithObserver(fn func(from, to dto.FlowState)) FlowOption {
	return func(f *InstantiationFlow) { f.observer = fn }
}

// NewInstantiationFlow creates an idle flow.
func NewInstantiationFlow(templates TemplateSource, graphs GraphCreator, logger *logging.Logger, opts ...FlowOption) *InstantiationFlow {
	if logger == nil {
		logger = logging.Discard()
	}
	f := &InstantiationFlow{
		templates: templates,
		graphs:    graphs,
		logger:    logger.Named("instantiation"),
		ownerID:   DefaultOwnerID,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the current flow state.
func (f *InstantiationFlow) State() dto.FlowState {
	return dto.FlowState(f.state.Load())
}

// LastError returns the message of the most recent failed submission, or ""
// once a new selection starts.
func (f *InstantiationFlow) LastError() string {
	if msg := f.lastError.Load(); msg != nil {
		return *msg
	}
	return ""
}

// Select instantiates the template with the given id. A selection while
// another is submitting is rejected with dto.ErrInstantiationInFlight and
// sends nothing. A missing template returns dto.ErrTemplateNotFound.
func (f *InstantiationFlow) Select(ctx context.Context, templateID string) (dto.Outcome, error) {
	if !f.begin() {
		metrics.FlowInstantiation("rejected")
		f.logger.Warn("template selection rejected while submitting", logging.WithData(map[string]string{"template_id": templateID}))
		return dto.Outcome{}, dto.ErrInstantiationInFlight
	}
	f.lastError.Store(nil)

	tmpl, ok := f.templates.Get(templateID)
	if !ok {
		f.transition(dto.FlowSubmitting, dto.FlowIdle)
		metrics.FlowInstantiation("template_not_found")
		f.logger.Error("template missing from catalog", logging.WithData(map[string]string{"template_id": templateID}))
		return dto.Outcome{}, fmt.Errorf("%w: %s", dto.ErrTemplateNotFound, templateID)
	}

	ownerID := f.ownerID
	req := client.CreateGraphRequest{
		Name:        tmpl.Name + " (from template)",
		Description: tmpl.Description,
		Definition:  tmpl.Definition,
		UserID:      &ownerID,
	}
	f.logger.Debug("creating graph from template", logging.WithData(map[string]interface{}{
		"template_id": templateID,
		"nodes":       len(req.Definition.Nodes),
	}))

	g, err := f.graphs.CreateGraph(ctx, req)
	if err != nil {
		msg := failureMessage(err)
		f.lastError.Store(&msg)
		f.transition(dto.FlowSubmitting, dto.FlowFailed)
		f.transition(dto.FlowFailed, dto.FlowIdle)
		metrics.FlowInstantiation("failed")
		f.logger.Error("failed to create graph from template", logging.WithData(map[string]string{
			"template_id": templateID,
			"kind":        string(client.KindOf(err)),
			"error":       err.Error(),
		}))
		return dto.Outcome{}, err
	}

	outcome := dto.Outcome{
		TemplateID:   templateID,
		GraphID:      g.ID,
		GraphName:    g.Name,
		RedirectPath: dto.EditorPath(g.ID),
	}
	f.transition(dto.FlowSubmitting, dto.FlowRedirecting)
	metrics.FlowInstantiation("created")
	f.logger.Info("graph created from template", logging.WithData(outcome))
	return outcome, nil
}

// NavigationStarted acknowledges the redirect and returns the flow to Idle.
// It reports false when the flow was not redirecting.
func (f *InstantiationFlow) NavigationStarted() bool {
	return f.transition(dto.FlowRedirecting, dto.FlowIdle)
}

// begin moves any non-submitting state to Submitting.
func (f *InstantiationFlow) begin() bool {
	for {
		cur := dto.FlowState(f.state.Load())
		if cur == dto.FlowSubmitting {
			return false
		}
		if f.transition(cur, dto.FlowSubmitting) {
			return true
		}
	}
}

func (f *InstantiationFlow) transition(from, to dto.FlowState) bool {
	if !f.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	if f.observer != nil {
		f.observer(from, to)
	}
	return true
}

// failureMessage is what the user sees for a failed submission.
func failureMessage(err error) string {
	if client.KindOf(err) == "" {
		return dto.InstantiationFailedMessage
	}
	return client.UserMessage(err)
}
