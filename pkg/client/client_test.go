package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	coregraph "github.com/hyder110/GraphFlow/internal/core/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService records every request and answers with a fixed response.
type fakeService struct {
	server   *httptest.Server
	requests atomic.Int32

	mu       sync.Mutex
	last     *http.Request
	lastBody []byte
}

func newFakeService(t *testing.T, status int, body string) *fakeService {
	t.Helper()
	f := &fakeService{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		reqBody, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.last = r.Clone(context.Background())
		f.lastBody = reqBody
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeService) request() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeService) body() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody
}

func (f *fakeService) client(t *testing.T, token string) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: f.server.URL + "/", Token: token, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func sampleDefinition() GraphDefinition {
	return GraphDefinition{
		Nodes: []coregraph.Node{{
			ID:     "answerer",
			Type:   coregraph.NodeTypeLLM,
			Config: &coregraph.LLMConfig{ModelName: "gpt-3.5-turbo", InputKey: "input", OutputKey: "output"},
		}},
		Edges: []coregraph.Edge{
			{Source: coregraph.Start, Target: "answerer"},
			{Source: "answerer", Target: coregraph.End},
		},
		StateType: "dict",
	}
}

const graphJSON = `{
	"id": 12,
	"name": "QA",
	"description": "demo",
	"definition": {"nodes": [{"id": "answerer", "type": "llm", "config": {"model_name": "gpt-3.5-turbo", "input_key": "input", "output_key": "output"}}],
		"edges": [{"source": "START", "target": "answerer"}, {"source": "answerer", "target": "END"}], "state_type": "dict"},
	"created_at": "2025-01-02T03:04:05",
	"updated_at": null
}`

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestCreateGraph(t *testing.T) {
	f := newFakeService(t, http.StatusOK, graphJSON)
	c := f.client(t, "")

	owner := 1
	g, err := c.CreateGraph(context.Background(), CreateGraphRequest{
		Name:        "QA",
		Description: "demo",
		Definition:  sampleDefinition(),
		UserID:      &owner,
	})
	require.NoError(t, err)

	assert.Equal(t, 12, g.ID)
	assert.Equal(t, "QA", g.Name)
	require.Len(t, g.Definition.Nodes, 1)
	assert.IsType(t, &coregraph.LLMConfig{}, g.Definition.Nodes[0].Config)
	assert.Nil(t, g.UpdatedAt)

	assert.Equal(t, int32(1), f.requests.Load())
	assert.Equal(t, http.MethodPost, f.request().Method)
	assert.Equal(t, "/api/graphs", f.request().URL.Path)
	assert.Equal(t, "application/json", f.request().Header.Get("Content-Type"))
	assert.Equal(t, "application/json", f.request().Header.Get("Accept"))
	assert.Empty(t, f.request().Header.Get("Authorization"))

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(f.body(), &sent))
	assert.Equal(t, "QA", sent["name"])
	assert.Equal(t, float64(1), sent["user_id"])
	assert.Contains(t, sent, "definition")
}

func TestRequestHeaders(t *testing.T) {
	f := newFakeService(t, http.StatusOK, `[]`)
	c := f.client(t, "s3cret")

	graphs, err := c.ListGraphs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, graphs)
	assert.NotNil(t, graphs)

	assert.Equal(t, "Bearer s3cret", f.request().Header.Get("Authorization"))
	_, err = uuid.Parse(f.request().Header.Get("X-Request-ID"))
	assert.NoError(t, err)
	assert.Empty(t, f.request().Header.Get("Content-Type"), "GET carries no body")
}

func TestOperations_PathsAndMethods(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		call   func(c *Client) error
		method string
		path   string
	}{
		{"list", `[{"id":1,"name":"a","created_at":"2025-01-01T00:00:00Z","updated_at":null}]`, func(c *Client) error {
			graphs, err := c.ListGraphs(context.Background())
			if err == nil && len(graphs) != 1 {
				return errors.New("expected one graph")
			}
			return err
		}, http.MethodGet, "/api/graphs"},
		{"get", graphJSON, func(c *Client) error {
			_, err := c.GetGraph(context.Background(), 12)
			return err
		}, http.MethodGet, "/api/graphs/12"},
		{"update", graphJSON, func(c *Client) error {
			_, err := c.UpdateGraph(context.Background(), 12, GraphPatch{Name: "QA", Definition: sampleDefinition()})
			return err
		}, http.MethodPut, "/api/graphs/12"},
		{"delete", `{"message":"Graph deleted successfully"}`, func(c *Client) error {
			res, err := c.DeleteGraph(context.Background(), 12)
			if err == nil && res.Message != "Graph deleted successfully" {
				return errors.New("unexpected message")
			}
			return err
		}, http.MethodDelete, "/api/graphs/12"},
		{"run", `{"output":"Paris","final_output":{"answer":"Paris"}}`, func(c *Client) error {
			res, err := c.RunGraph(context.Background(), 12, "capital of France?")
			if err == nil && res.Output != "Paris" {
				return errors.New("unexpected output")
			}
			return err
		}, http.MethodPost, "/api/graphs/12/run"},
		{"health", `{"status":"ok"}`, func(c *Client) error {
			return c.Health(context.Background())
		}, http.MethodGet, "/api/health"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeService(t, http.StatusOK, tt.body)
			require.NoError(t, tt.call(f.client(t, "")))
			assert.Equal(t, tt.method, f.request().Method)
			assert.Equal(t, tt.path, f.request().URL.Path)
			assert.Equal(t, int32(1), f.requests.Load())
		})
	}
}

func TestGetThenUpdate_PassesDefinitionThrough(t *testing.T) {
	definition := `{
		"nodes": [
			{"id": "a", "type": "llm", "position": {"x": 1, "y": 2},
			 "config": {"output_key": "out", "max_tokens": 512, "system_prompt": "be brief"}},
			{"id": "r", "type": "router", "config": {"routes": {"x": "a"}}}
		],
		"edges": [
			{"id": "e1", "source": "START", "target": "a"},
			{"id": "e2", "source": "a", "target": "r"},
			{"source": "r", "target": "END"}
		],
		"state_type": "dict",
		"metadata": {"editor": "canvas", "zoom": 1.5}
	}`
	f := newFakeService(t, http.StatusOK, `{"id":5,"name":"Custom","description":"d","definition":`+definition+`,"created_at":"2025-01-01T00:00:00Z","updated_at":null}`)
	c := f.client(t, "")

	g, err := c.GetGraph(context.Background(), 5)
	require.NoError(t, err)
	_, err = c.UpdateGraph(context.Background(), 5, GraphPatch{Name: "Renamed", Description: g.Description, Definition: g.Definition})
	require.NoError(t, err)

	var sent struct {
		Name       string          `json:"name"`
		Definition json.RawMessage `json:"definition"`
	}
	require.NoError(t, json.Unmarshal(f.body(), &sent))
	assert.Equal(t, "Renamed", sent.Name)
	assert.JSONEq(t, definition, string(sent.Definition))
}

func TestRunGraph_SendsInput(t *testing.T) {
	f := newFakeService(t, http.StatusOK, `{"output":"ok"}`)
	res, err := f.client(t, "").RunGraph(context.Background(), 3, map[string]string{"question": "why?"})
	require.NoError(t, err)
	assert.Nil(t, res.FinalOutput)
	assert.JSONEq(t, `{"input":{"question":"why?"}}`, string(f.body()))
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		call     func(c *Client) error
		kind     Kind
		sentinel error
		message  string
	}{
		{
			name: "not found", status: http.StatusNotFound, body: `{"detail":"Graph not found"}`,
			call: func(c *Client) error { _, err := c.GetGraph(context.Background(), 999); return err },
			kind: KindNotFound, sentinel: ErrNotFound, message: "Graph not found",
		},
		{
			name: "validation list", status: http.StatusUnprocessableEntity,
			body: `{"detail":[{"loc":["body","name"],"msg":"field required","type":"value_error.missing"}]}`,
			call: func(c *Client) error { _, err := c.CreateGraph(context.Background(), CreateGraphRequest{}); return err },
			kind: KindValidation, sentinel: ErrValidation,
		},
		{
			name: "validation string", status: http.StatusUnprocessableEntity, body: `{"detail":"definition has no nodes"}`,
			call: func(c *Client) error { _, err := c.CreateGraph(context.Background(), CreateGraphRequest{}); return err },
			kind: KindValidation, sentinel: ErrValidation, message: "definition has no nodes",
		},
		{
			name: "execution", status: http.StatusInternalServerError, body: `{"error":"LLM error"}`,
			call: func(c *Client) error { _, err := c.RunGraph(context.Background(), 1, "x"); return err },
			kind: KindExecution, sentinel: ErrExecution, message: "LLM error",
		},
		{
			name: "service on list", status: http.StatusBadGateway, body: `upstream down`,
			call: func(c *Client) error { _, err := c.ListGraphs(context.Background()); return err },
			kind: KindService, sentinel: ErrService, message: "upstream down",
		},
		{
			name: "500 outside run is a service error", status: http.StatusInternalServerError, body: ``,
			call: func(c *Client) error { _, err := c.GetGraph(context.Background(), 1); return err },
			kind: KindService, sentinel: ErrService, message: "Internal Server Error",
		},
		{
			name: "malformed success body", status: http.StatusOK, body: `{"id":`,
			call: func(c *Client) error { _, err := c.GetGraph(context.Background(), 1); return err },
			kind: KindService, sentinel: ErrService, message: "malformed response body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeService(t, tt.status, tt.body)
			err := tt.call(f.client(t, ""))
			require.Error(t, err)

			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(err))
			var cerr *Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.status, cerr.StatusCode)
			if tt.message != "" {
				assert.Equal(t, tt.message, cerr.Message)
			}
			assert.Equal(t, int32(1), f.requests.Load(), "never retried")
		})
	}
}

func TestValidationFields(t *testing.T) {
	f := newFakeService(t, http.StatusUnprocessableEntity,
		`{"detail":[{"loc":["body","definition","nodes",0,"id"],"msg":"field required","type":"value_error.missing"}]}`)

	_, err := f.client(t, "").CreateGraph(context.Background(), CreateGraphRequest{Name: "x"})
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Len(t, cerr.Fields, 1)
	assert.Equal(t, "definition.nodes.0.id", cerr.Fields[0].Field)
	assert.Equal(t, "field required", cerr.Fields[0].Message)
	assert.Equal(t, "The graph was rejected: definition.nodes.0.id: field required", UserMessage(err))
}

func TestNetworkError(t *testing.T) {
	f := newFakeService(t, http.StatusOK, `[]`)
	c := f.client(t, "")
	f.server.Close()

	_, err := c.ListGraphs(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrService)
}

func TestContextCancellation(t *testing.T) {
	f := newFakeService(t, http.StatusOK, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.client(t, "").ListGraphs(ctx)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHealth_UnexpectedStatus(t *testing.T) {
	f := newFakeService(t, http.StatusOK, `{"status":"degraded"}`)
	assert.ErrorIs(t, f.client(t, "").Health(context.Background()), ErrService)
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
	assert.Equal(t, "Graph not found.", UserMessage(&Error{Kind: KindNotFound}))
	assert.Equal(t, "LLM error", UserMessage(&Error{Kind: KindExecution, Message: "LLM error"}))
	assert.Contains(t, UserMessage(&Error{Kind: KindNetwork}), "Unable to reach")
	assert.Contains(t, UserMessage(&Error{Kind: KindService, StatusCode: 503}), "HTTP 503")
	assert.Equal(t, "The graph was rejected: bad", UserMessage(&Error{Kind: KindValidation, Message: "bad"}))
}
