package main

import (
	"context"
	"fmt"

	"github.com/hyder110/GraphFlow/internal/adapters/repository/memory"
	"github.com/hyder110/GraphFlow/internal/adapters/repository/postgres"
	"github.com/hyder110/GraphFlow/internal/adapters/repository/sqlite"
	"github.com/hyder110/GraphFlow/internal/core/run"
	"github.com/hyder110/GraphFlow/internal/infrastructure/config"
	"github.com/hyder110/GraphFlow/pkg/serialization"
)

// openJournal opens the run store selected by cfg.
func openJournal(ctx context.Context, cfg config.JournalConfig) (run.Store, func() error, error) {
	serializer, err := serialization.NewJournalSerializer(cfg.Codec, cfg.Compression, cfg.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("run journal: %w", err)
	}

	switch cfg.Backend {
	case config.JournalSQLite:
		store, err := sqlite.Open(ctx, cfg.DSN, serializer)
		if err != nil {
			return nil, nil, fmt.Errorf("run journal: %w", err)
		}
		return store, store.Close, nil
	case config.JournalPostgres:
		store, err := postgres.Open(ctx, cfg.DSN, serializer)
		if err != nil {
			return nil, nil, fmt.Errorf("run journal: %w", err)
		}
		return store, store.Close, nil
	default:
		store := memory.NewJournalStore(memory.JournalConfig{Serializer: serializer})
		return store, store.Close, nil
	}
}
