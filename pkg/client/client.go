package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyder110/GraphFlow/internal/infrastructure/metrics"
	"github.com/hyder110/GraphFlow/pkg/validation"
)

// Operation names used in errors, logs and metrics.
const (
	OpListGraphs  = "list_graphs"
	OpCreateGraph = "create_graph"
	OpGetGraph    = "get_graph"
	OpUpdateGraph = "update_graph"
	OpDeleteGraph = "delete_graph"
	OpRunGraph    = "run_graph"
	OpHealth      = "health"
)

// DefaultTimeout bounds a single exchange when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the service root, e.g. "http://localhost:8000".
	BaseURL string
	// Token is sent as a bearer token when non-empty.
	Token string
	// Timeout bounds each exchange. Ignored when HTTPClient is set.
	Timeout time.Duration
	// HTTPClient overrides the transport.
	HTTPClient *http.Client
	// Logger receives request diagnostics. Defaults to discarding them.
	Logger *slog.Logger
}

// Client is a typed client for the graph service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a Client. It fails only when BaseURL is missing.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("graphflow: client requires a base URL")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		httpClient: httpClient,
		log:        log.With("module", "client"),
	}, nil
}

// ListGraphs returns every graph the service holds.
func (c *Client) ListGraphs(ctx context.Context) ([]GraphSummary, error) {
	var out []GraphSummary
	if err := c.do(ctx, OpListGraphs, http.MethodGet, "/api/graphs", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []GraphSummary{}
	}
	return out, nil
}

// CreateGraph stores a new graph. Not idempotent.
func (c *Client) CreateGraph(ctx context.Context, req CreateGraphRequest) (*Graph, error) {
	var out Graph
	if err := c.do(ctx, OpCreateGraph, http.MethodPost, "/api/graphs", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetGraph fetches one graph.
func (c *Client) GetGraph(ctx context.Context, id int) (*Graph, error) {
	var out Graph
	if err := c.do(ctx, OpGetGraph, http.MethodGet, graphPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateGraph replaces a graph's name, description and definition.
func (c *Client) UpdateGraph(ctx context.Context, id int, patch GraphPatch) (*Graph, error) {
	var out Graph
	if err := c.do(ctx, OpUpdateGraph, http.MethodPut, graphPath(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteGraph removes a graph.
func (c *Client) DeleteGraph(ctx context.Context, id int) (*DeleteResult, error) {
	var out DeleteResult
	if err := c.do(ctx, OpDeleteGraph, http.MethodDelete, graphPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunGraph executes a graph on the service. Not idempotent.
func (c *Client) RunGraph(ctx context.Context, id int, input interface{}) (*RunResult, error) {
	var out RunResult
	if err := c.do(ctx, OpRunGraph, http.MethodPost, graphPath(id)+"/run", RunRequest{Input: input}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks that the service is up.
func (c *Client) Health(ctx context.Context) error {
	var out HealthStatus
	if err := c.do(ctx, OpHealth, http.MethodGet, "/api/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return &Error{Kind: KindService, Op: OpHealth, StatusCode: http.StatusOK, Message: "unexpected status " + strconv.Quote(out.Status)}
	}
	return nil
}

func graphPath(id int) string {
	return "/api/graphs/" + strconv.Itoa(id)
}

// do performs one exchange and decodes a 2xx body into result. Non-2xx
// responses and transport failures become *Error.
func (c *Client) do(ctx context.Context, op, method, path string, body, result interface{}) error {
	metrics.ClientRequest(op)
	err := c.exchange(ctx, op, method, path, body, result)
	if err != nil {
		metrics.ClientFailure(op)
		c.log.WarnContext(ctx, "request failed", slog.Any("data", map[string]interface{}{
			"op":    op,
			"kind":  KindOf(err),
			"error": err.Error(),
		}))
	}
	return err
}

func (c *Client) exchange(ctx context.Context, op, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("graphflow: %s: encoding request body: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("graphflow: %s: creating request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.DebugContext(ctx, "request", slog.Any("data", map[string]string{
		"op":         op,
		"method":     method,
		"path":       path,
		"request_id": requestID,
	}))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(op, resp.StatusCode, data)
	}
	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return &Error{Kind: KindService, Op: op, StatusCode: resp.StatusCode, Message: "malformed response body", Err: err}
	}
	return nil
}

// errorBody covers both error shapes of the service: {"detail": ...}
// where detail is a string or a list of field errors, and {"error": "..."}.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

// parseError maps a non-2xx response onto the error taxonomy.
func parseError(op string, status int, data []byte) *Error {
	e := &Error{Op: op, StatusCode: status}

	var body errorBody
	structured := json.Unmarshal(data, &body) == nil
	if structured {
		e.Message = body.Error
		if len(body.Detail) > 0 {
			var detail string
			if json.Unmarshal(body.Detail, &detail) == nil {
				e.Message = detail
			} else if fields, err := validation.UnmarshalValidationErrors(data); err == nil {
				e.Fields = fields
			}
		}
	}
	if e.Message == "" && len(e.Fields) == 0 {
		e.Message = strings.TrimSpace(string(data))
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
	}

	switch {
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	case op == OpRunGraph && status >= http.StatusInternalServerError:
		e.Kind = KindExecution
	default:
		e.Kind = KindService
	}
	return e
}
