package stub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"strconv"
	"time"

	graphrepo "github.com/hyder110/GraphFlow/internal/adapters/repository/graph"
	coregraph "github.com/hyder110/GraphFlow/internal/core/graph"
	"github.com/hyder110/GraphFlow/internal/infrastructure/logging"
	"github.com/hyder110/GraphFlow/internal/infrastructure/metrics"
	"github.com/hyder110/GraphFlow/pkg/validation"
)

// MockOutput is the run output of every graph.
const MockOutput = "This is a mock response. The actual implementation will run the LangGraph."

const notFoundDetail = "Graph not found"

// Config configures a Server.
type Config struct {
	// Token, when set, is required as a bearer token on /api/graphs routes.
	Token string
	// Repository stores graphs; a fresh one is created when nil.
	Repository *graphrepo.InMemoryGraphRepository
	Logger     *logging.Logger
}

// Server serves the graph service API from memory.
type Server struct {
	repo     *graphrepo.InMemoryGraphRepository
	validate *validation.Middleware
	logger   *logging.Logger
	handler  http.Handler
}

// New builds a server and its routes.
func New(cfg Config) *Server {
	if cfg.Repository == nil {
		cfg.Repository = graphrepo.NewInMemoryGraphRepository()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	s := &Server{
		repo:     cfg.Repository,
		validate: validation.NewMiddleware(nil),
		logger:   cfg.Logger.Named("stub"),
	}

	auth := s.validate.RequireBearer(cfg.Token)
	mux := http.NewServeMux()
	mux.Handle("GET /api/graphs", auth(http.HandlerFunc(s.listGraphs)))
	mux.Handle("POST /api/graphs", auth(http.HandlerFunc(s.createGraph)))
	mux.Handle("GET /api/graphs/{id}", auth(http.HandlerFunc(s.getGraph)))
	mux.Handle("PUT /api/graphs/{id}", auth(http.HandlerFunc(s.updateGraph)))
	mux.Handle("DELETE /api/graphs/{id}", auth(http.HandlerFunc(s.deleteGraph)))
	mux.Handle("POST /api/graphs/{id}/run", auth(http.HandlerFunc(s.runGraph)))
	mux.HandleFunc("GET /api/health", s.health)
	mux.Handle("GET /debug/vars", expvar.Handler())
	mux.Handle("GET /metrics", metrics.Handler())

	s.handler = s.logRequests(mux)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Seed stores g as if it had been created through the API.
func (s *Server) Seed(ctx context.Context, g *coregraph.Graph) (*coregraph.Graph, error) {
	created, err := s.repo.Create(ctx, g)
	if err != nil {
		return nil, err
	}
	metrics.SetStubGraphs(s.repo.Len())
	return created, nil
}

// graphBody is the body of create and update requests.
type graphBody struct {
	Name        string                     `json:"name" validate:"required,max=200"`
	Description string                     `json:"description"`
	Definition  *coregraph.GraphDefinition `json:"definition" validate:"required"`
	UserID      *int                       `json:"user_id,omitempty" validate:"omitempty,min=1"`
}

// Validate checks what struct tags cannot express.
func (b *graphBody) Validate() error {
	if len(b.Definition.Nodes) == 0 {
		return validation.ValidationErrors{{Field: "definition.nodes", Message: "field required", Type: "value_error.missing"}}
	}
	if err := b.Definition.Validate(); err != nil {
		return validation.ValidationErrors{{Field: "definition", Message: err.Error(), Type: "value_error"}}
	}
	return nil
}

type runBody struct {
	Input json.RawMessage `json:"input"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listGraphs(w http.ResponseWriter, r *http.Request) {
	graphs, err := s.repo.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	summaries := make([]coregraph.GraphSummary, 0, len(graphs))
	for _, g := range graphs {
		summaries = append(summaries, g.Summary())
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) createGraph(w http.ResponseWriter, r *http.Request) {
	var body graphBody
	if !s.validate.DecodeJSON(w, r, &body) {
		return
	}
	g, err := s.Seed(r.Context(), &coregraph.Graph{
		Name:        body.Name,
		Description: body.Description,
		Definition:  *body.Definition,
		UserID:      body.UserID,
	})
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.logger.Info("graph created", logging.WithData(map[string]interface{}{"id": g.ID, "name": g.Name}))
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := graphID(w, r)
	if !ok {
		return
	}
	g, err := s.repo.Get(r.Context(), id)
	if err != nil {
		s.repositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) updateGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := graphID(w, r)
	if !ok {
		return
	}
	// Unknown ids are reported before the body is looked at.
	if _, err := s.repo.Get(r.Context(), id); err != nil {
		s.repositoryError(w, err)
		return
	}
	var body graphBody
	if !s.validate.DecodeJSON(w, r, &body) {
		return
	}
	g, err := s.repo.Update(r.Context(), id, body.Name, body.Description, *body.Definition)
	if err != nil {
		s.repositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) deleteGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := graphID(w, r)
	if !ok {
		return
	}
	if err := s.repo.Delete(r.Context(), id); err != nil {
		s.repositoryError(w, err)
		return
	}
	metrics.SetStubGraphs(s.repo.Len())
	writeJSON(w, http.StatusOK, map[string]string{"message": "Graph deleted successfully"})
}

func (s *Server) runGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := graphID(w, r)
	if !ok {
		return
	}
	if _, err := s.repo.Get(r.Context(), id); err != nil {
		s.repositoryError(w, err)
		return
	}
	var body runBody
	if !s.validate.DecodeJSON(w, r, &body) {
		return
	}
	if len(body.Input) == 0 || bytes.Equal(body.Input, []byte("null")) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error running graph: input is required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "success",
		"graph_id":     id,
		"input":        body.Input,
		"output":       MockOutput,
		"final_output": MockOutput,
	})
}

// graphID parses the {id} path segment. Non-integer ids are a 422, as the
// service types the segment as an integer.
func graphID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		validation.WriteValidationErrors(w, http.StatusUnprocessableEntity, validation.ValidationErrors{{
			Field:   "graph_id",
			Value:   raw,
			Message: "value is not a valid integer",
			Type:    "type_error.integer",
		}})
		return 0, false
	}
	return id, true
}

func (s *Server) repositoryError(w http.ResponseWriter, err error) {
	if errors.Is(err, coregraph.ErrGraphNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": notFoundDetail})
		return
	}
	s.internalError(w, err)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", logging.WithData(map[string]string{"error": err.Error()}))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests counts every request by route pattern and logs it.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.StubRequest(route)

		data := map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if id := r.Header.Get("X-Request-ID"); id != "" {
			data["request_id"] = id
		}
		msg := fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		if rec.status >= http.StatusInternalServerError {
			s.logger.Warn(msg, logging.WithData(data))
			return
		}
		s.logger.Debug(msg, logging.WithData(data))
	})
}
