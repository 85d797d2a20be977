// Package services holds application services shared by the use cases
package services

import (
	"context"
	"fmt"

	"github.com/hyder110/GraphFlow/internal/core/run"
	"github.com/hyder110/GraphFlow/internal/infrastructure/logging"
	"github.com/hyder110/GraphFlow/internal/infrastructure/metrics"
)

// JournalService records run exchanges into a run.Store
// PRINCIPLES:
// - SRP: Manages journal writes and reads for the run use case
// - DIP: Depends on run.Store abstraction
type JournalService struct {
	store   run.Store
	backend string
	logger  *logging.Logger
}

// NewJournalService creates a new journal service. backend labels metrics.
func NewJournalService(store run.Store, backend string, logger *logging.Logger) *JournalService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &JournalService{
		store:   store,
		backend: backend,
		logger:  logger.Named("journal"),
	}
}

// Record stores r. Failures are logged and counted before being returned.
func (s *JournalService) Record(ctx context.Context, r *run.Record) error {
	if err := s.store.Save(ctx, r); err != nil {
		metrics.JournalFailed(s.backend)
		s.logger.Error("failed to record run", logging.WithData(map[string]interface{}{
			"run_id":   r.ID,
			"graph_id": r.GraphID,
			"backend":  s.backend,
			"error":    err.Error(),
		}))
		return fmt.Errorf("failed to record run: %w", err)
	}
	metrics.JournalRecorded(s.backend)
	s.logger.Debug("run recorded", logging.WithData(map[string]interface{}{
		"run_id": r.ID,
		"status": r.Status,
	}))
	return nil
}

// Get loads a single run record
func (s *JournalService) Get(ctx context.Context, id string) (*run.Record, error) {
	r, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return r, nil
}

// History lists run records matching filter, newest first
func (s *JournalService) History(ctx context.Context, filter run.Filter) ([]*run.Record, error) {
	records, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return records, nil
}

// Forget removes a run record
func (s *JournalService) Forget(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}
