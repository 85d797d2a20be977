package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyder110/GraphFlow/internal/app/dto"
	"github.com/hyder110/GraphFlow/internal/app/services"
	"github.com/hyder110/GraphFlow/internal/core/run"
	"github.com/hyder110/GraphFlow/internal/infrastructure/logging"
	"github.com/hyder110/GraphFlow/pkg/client"
	"github.com/hyder110/GraphFlow/pkg/serialization"
)

// RunService triggers graph runs and journals every exchange
// PRINCIPLES:
// - SRP: run orchestration only; storage lives behind JournalService
// - DIP: depends on GraphRunner abstraction
type RunService struct {
	graphs  GraphRunner
	journal *services.JournalService
	logger  *logging.Logger
	now     func() time.Time
}

// NewRunService creates a new run service
func NewRunService(graphs GraphRunner, journal *services.JournalService, logger *logging.Logger) *RunService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &RunService{
		graphs:  graphs,
		journal: journal,
		logger:  logger.Named("run"),
		now:     time.Now,
	}
}

// Run executes the graph once. The exchange is journaled whatever its
// outcome; a journal failure is logged and reported through
// RunResponse.Journaled, never in place of the run's own result.
func (s *RunService) Run(ctx context.Context, req dto.RunRequest) (*dto.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	g, err := s.graphs.GetGraph(ctx, req.GraphID)
	if err != nil {
		return nil, err
	}
	hash, err := serialization.Fingerprint(g.Definition)
	if err != nil {
		s.logger.Warn("failed to fingerprint definition", logging.WithData(map[string]interface{}{
			"graph_id": req.GraphID,
			"error":    err.Error(),
		}))
	}

	start := s.now()
	result, runErr := s.graphs.RunGraph(ctx, req.GraphID, req.Input)
	end := s.now()

	record := &run.Record{
		ID:             uuid.NewString(),
		GraphID:        req.GraphID,
		DefinitionHash: hash,
		Input:          req.Input,
		Status:         run.StatusSuccess,
		StartedAt:      start,
		CompletedAt:    end,
	}
	if runErr != nil {
		record.Status = run.StatusError
		record.ErrorKind = string(client.KindOf(runErr))
		record.ErrorMessage = client.UserMessage(runErr)
	} else {
		record.Output = result.Output
		record.FinalOutput = result.FinalOutput
	}

	// A cancelled caller still gets its exchange recorded.
	journalErr := s.journal.Record(context.WithoutCancel(ctx), record)

	if runErr != nil {
		s.logger.Warn("graph run failed", logging.WithData(map[string]interface{}{
			"graph_id": req.GraphID,
			"run_id":   record.ID,
			"kind":     record.ErrorKind,
		}))
		return nil, runErr
	}

	s.logger.Info("graph run completed", logging.WithData(map[string]interface{}{
		"graph_id":    req.GraphID,
		"run_id":      record.ID,
		"duration_ms": record.Duration().Milliseconds(),
	}))
	return &dto.RunResponse{
		RunID:       record.ID,
		GraphID:     req.GraphID,
		Output:      result.Output,
		FinalOutput: result.FinalOutput,
		StartTime:   start,
		EndTime:     end,
		Duration:    record.Duration(),
		Journaled:   journalErr == nil,
	}, nil
}

// History lists journaled runs, newest first
func (s *RunService) History(ctx context.Context, filter run.Filter) ([]*run.Record, error) {
	return s.journal.History(ctx, filter)
}

// Get loads one journaled run
func (s *RunService) Get(ctx context.Context, id string) (*run.Record, error) {
	return s.journal.Get(ctx, id)
}
