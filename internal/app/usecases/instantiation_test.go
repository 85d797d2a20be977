package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyder110/GraphFlow/internal/app/dto"
	"github.com/hyder110/GraphFlow/internal/catalog"
	"github.com/hyder110/GraphFlow/internal/infrastructure/logging"
	"github.com/hyder110/GraphFlow/internal/infrastructure/metrics"
	"github.com/hyder110/GraphFlow/pkg/client"
	"github.com/hyder110/GraphFlow/pkg/validation"
)

// fakeCreator records CreateGraph calls. When gate is set each call blocks
// until the gate is closed.
type fakeCreator struct {
	mu      sync.Mutex
	calls   []client.CreateGraphRequest
	entered chan struct{}
	gate    chan struct{}
	err     error
	nextID  int
}

func (f *fakeCreator) CreateGraph(ctx context.Context, req client.CreateGraphRequest) (*client.Graph, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.nextID++
	id := f.nextID
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return &client.Graph{ID: 40 + id, Name: req.Name, Description: req.Description, Definition: req.Definition}, nil
}

func (f *fakeCreator) requests() []client.CreateGraphRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.CreateGraphRequest(nil), f.calls...)
}

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return c
}

func TestInstantiationFlow_QARetrieval(t *testing.T) {
	cat := defaultCatalog(t)
	creator := &fakeCreator{}
	flow := NewInstantiationFlow(cat, creator, logging.Discard())
	created := metrics.FlowInstantiations("created")

	outcome, err := flow.Select(context.Background(), "qa-retrieval")
	require.NoError(t, err)

	calls := creator.requests()
	require.Len(t, calls, 1)
	assert.Equal(t, "Question Answering with Retrieval (from template)", calls[0].Name)

	tmpl, ok := cat.Get("qa-retrieval")
	require.True(t, ok)
	assert.Equal(t, tmpl.Description, calls[0].Description)
	if diff := cmp.Diff(tmpl.Definition, calls[0].Definition); diff != "" {
		t.Fatalf("definition mismatch (-template +sent):\n%s", diff)
	}
	require.NotNil(t, calls[0].UserID)
	assert.Equal(t, DefaultOwnerID, *calls[0].UserID)

	assert.Equal(t, 41, outcome.GraphID)
	assert.Equal(t, "/graph/41", outcome.RedirectPath)
	assert.Equal(t, dto.FlowRedirecting, flow.State())
	assert.Equal(t, created+1, metrics.FlowInstantiations("created"))

	assert.True(t, flow.NavigationStarted())
	assert.Equal(t, dto.FlowIdle, flow.State())
	assert.False(t, flow.NavigationStarted())
}

func TestInstantiationFlow_SentDefinitionIsACopy(t *testing.T) {
	cat := defaultCatalog(t)
	creator := &fakeCreator{}
	flow := NewInstantiationFlow(cat, creator, nil)

	_, err := flow.Select(context.Background(), "react-agent")
	require.NoError(t, err)

	sent := creator.requests()[0]
	sent.Definition.Nodes[0].ID = "mutated"

	tmpl, _ := cat.Get("react-agent")
	assert.NotEqual(t, "mutated", tmpl.Definition.Nodes[0].ID)
}

func TestInstantiationFlow_ValidationErrorReturnsToIdle(t *testing.T) {
	rejection := &client.Error{
		Kind:       client.KindValidation,
		Op:         client.OpCreateGraph,
		StatusCode: 422,
		Fields:     validation.ValidationErrors{{Field: "definition.nodes", Message: "field required"}},
	}
	creator := &fakeCreator{err: rejection}

	var transitions []string
	flow := NewInstantiationFlow(defaultCatalog(t), creator, logging.Discard(),
		WithObserver(func(from, to dto.FlowState) { transitions = append(transitions, from.String()+"->"+to.String()) }))

	outcome, err := flow.Select(context.Background(), "qa-retrieval")
	assert.ErrorIs(t, err, client.ErrValidation)
	assert.Zero(t, outcome)
	assert.Equal(t, dto.FlowIdle, flow.State())
	assert.Equal(t, "The graph was rejected: definition.nodes: field required", flow.LastError())
	assert.Equal(t, []string{"idle->submitting", "submitting->failed", "failed->idle"}, transitions)
	assert.False(t, flow.NavigationStarted())

	// A retry starts clean
	creator.err = nil
	_, err = flow.Select(context.Background(), "qa-retrieval")
	require.NoError(t, err)
	assert.Empty(t, flow.LastError())
	assert.Len(t, creator.requests(), 2)
}

func TestInstantiationFlow_UnexplainedFailure(t *testing.T) {
	creator := &fakeCreator{err: errors.New("boom")}
	flow := NewInstantiationFlow(defaultCatalog(t), creator, nil)

	_, err := flow.Select(context.Background(), "plan-and-execute")
	require.Error(t, err)
	assert.Equal(t, dto.InstantiationFailedMessage, flow.LastError())
	assert.Equal(t, dto.FlowIdle, flow.State())
}

func TestInstantiationFlow_TemplateNotFound(t *testing.T) {
	creator := &fakeCreator{}
	flow := NewInstantiationFlow(defaultCatalog(t), creator, nil)

	_, err := flow.Select(context.Background(), "no-such-template")
	assert.ErrorIs(t, err, dto.ErrTemplateNotFound)
	assert.Contains(t, err.Error(), "no-such-template")
	assert.Empty(t, creator.requests())
	assert.Equal(t, dto.FlowIdle, flow.State())
}

func TestInstantiationFlow_SecondSelectionWhileSubmitting(t *testing.T) {
	creator := &fakeCreator{entered: make(chan struct{}, 1), gate: make(chan struct{})}
	flow := NewInstantiationFlow(defaultCatalog(t), creator, logging.Discard(), WithOwnerID(9))
	rejected := metrics.FlowInstantiations("rejected")

	done := make(chan error, 1)
	go func() {
		_, err := flow.Select(context.Background(), "qa-retrieval")
		done <- err
	}()

	<-creator.entered
	assert.Equal(t, dto.FlowSubmitting, flow.State())

	_, err := flow.Select(context.Background(), "react-agent")
	assert.ErrorIs(t, err, dto.ErrInstantiationInFlight)
	assert.Len(t, creator.requests(), 1)
	assert.Equal(t, rejected+1, metrics.FlowInstantiations("rejected"))

	close(creator.gate)
	require.NoError(t, <-done)

	calls := creator.requests()
	require.Len(t, calls, 1)
	assert.Equal(t, 9, *calls[0].UserID)
	assert.Equal(t, dto.FlowRedirecting, flow.State())
}

func TestInstantiationFlow_ConcurrentSelectionsSendOne(t *testing.T) {
	creator := &fakeCreator{entered: make(chan struct{}, 16), gate: make(chan struct{})}
	flow := NewInstantiationFlow(defaultCatalog(t), creator, nil)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := flow.Select(context.Background(), "qa-retrieval")
			results <- err
		}()
	}

	<-creator.entered
	close(creator.gate)
	wg.Wait()
	close(results)

	var ok, inFlight int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, dto.ErrInstantiationInFlight):
			inFlight++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// Late goroutines may start after the first finished; every success sent exactly one request.
	assert.Equal(t, len(creator.requests()), ok)
	assert.Equal(t, 8, ok+inFlight)
	assert.GreaterOrEqual(t, ok, 1)
}
