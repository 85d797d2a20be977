// Package postgres provides the PostgreSQL-backed run journal
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyder110/GraphFlow/internal/core/run"
	"github.com/hyder110/GraphFlow/pkg/serialization"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const journalColumns = "id, graph_id, definition_hash, status, error_kind, error_message, codec, payload, started_at, completed_at"

// JournalStore implements run.Store for PostgreSQL
type JournalStore struct {
	pool       *pgxpool.Pool
	serializer *serialization.Serializer
	tableName  string
}

// Open connects a pool to dsn and prepares the journal table.
func Open(ctx context.Context, dsn string, serializer *serialization.Serializer) (*JournalStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres journal: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres journal: %w", err)
	}

	store := NewJournalStore(pool, serializer)
	if err := store.CreateTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewJournalStore creates a new PostgreSQL run journal
func NewJournalStore(pool *pgxpool.Pool, serializer *serialization.Serializer) *JournalStore {
	if serializer == nil {
		serializer = serialization.DefaultSerializer()
	}
	return &JournalStore{
		pool:       pool,
		serializer: serializer,
		tableName:  "runs",
	}
}

// Save stores a run record in PostgreSQL
func (s *JournalStore) Save(ctx context.Context, r *run.Record) error {
	if r == nil {
		return run.ErrInvalidRecordID
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("run record validation failed: %w", err)
	}

	data, err := s.serializer.Serialize(r.Payload())
	if err != nil {
		return fmt.Errorf("%w: %v", run.ErrSaveFailed, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			graph_id = EXCLUDED.graph_id,
			definition_hash = EXCLUDED.definition_hash,
			status = EXCLUDED.status,
			error_kind = EXCLUDED.error_kind,
			error_message = EXCLUDED.error_message,
			codec = EXCLUDED.codec,
			payload = EXCLUDED.payload,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at
	`, s.tableName, journalColumns)

	_, err = s.pool.Exec(ctx, query,
		r.ID, r.GraphID, r.DefinitionHash, string(r.Status), r.ErrorKind, r.ErrorMessage,
		s.serializer.CodecName(), data, r.StartedAt.UTC(), r.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", run.ErrSaveFailed, err)
	}
	return nil
}

// Load retrieves a run record by ID
func (s *JournalStore) Load(ctx context.Context, id string) (*run.Record, error) {
	if id == "" {
		return nil, run.ErrInvalidRecordID
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", journalColumns, s.tableName)
	r, err := s.scan(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, run.ErrRecordNotFound
		}
		return nil, err
	}
	return r, nil
}

// List retrieves run records based on filter criteria, newest first
func (s *JournalStore) List(ctx context.Context, filter run.Filter) ([]*run.Record, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter validation failed: %w", err)
	}

	query, args := s.buildListQuery(filter)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", run.ErrLoadFailed, err)
	}
	defer rows.Close()

	records := make([]*run.Record, 0)
	for rows.Next() {
		r, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", run.ErrLoadFailed, err)
	}
	return records, nil
}

// Delete removes a run record by ID
func (s *JournalStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return run.ErrInvalidRecordID
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	result, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%w: %v", run.ErrDeleteFailed, err)
	}
	if result.RowsAffected() == 0 {
		return run.ErrRecordNotFound
	}
	return nil
}

// CreateTables creates the necessary database tables
func (s *JournalStore) CreateTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(255) PRIMARY KEY,
			graph_id INTEGER NOT NULL,
			definition_hash VARCHAR(64) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL,
			error_kind VARCHAR(32) NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			codec VARCHAR(16) NOT NULL,
			payload BYTEA NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_%s_graph_id ON %s (graph_id);
		CREATE INDEX IF NOT EXISTS idx_%s_started_at ON %s (started_at DESC);
	`, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close closes the database connection pool
func (s *JournalStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *JournalStore) scan(row pgx.Row) (*run.Record, error) {
	var (
		r      run.Record
		status string
		codec  string
		data   []byte
	)
	err := row.Scan(&r.ID, &r.GraphID, &r.DefinitionHash, &status, &r.ErrorKind, &r.ErrorMessage,
		&codec, &data, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", run.ErrLoadFailed, err)
	}

	if codec != s.serializer.CodecName() {
		return nil, fmt.Errorf("%w: record %s was written with codec %q", run.ErrLoadFailed, r.ID, codec)
	}

	var payload run.Payload
	if err := s.serializer.Deserialize(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", run.ErrLoadFailed, err)
	}
	r.SetPayload(payload)
	r.Status = run.Status(status)
	r.StartedAt = r.StartedAt.UTC()
	r.CompletedAt = r.CompletedAt.UTC()
	return &r, nil
}

// buildListQuery constructs the SQL query for listing run records
func (s *JournalStore) buildListQuery(filter run.Filter) (string, []interface{}) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1", journalColumns, s.tableName)
	args := make([]interface{}, 0)
	argIndex := 1

	if filter.GraphID != 0 {
		query += fmt.Sprintf(" AND graph_id = $%d", argIndex)
		args = append(args, filter.GraphID)
		argIndex++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(filter.Status))
		argIndex++
	}

	if filter.Since != nil {
		query += fmt.Sprintf(" AND started_at >= $%d", argIndex)
		args = append(args, *filter.Since)
		argIndex++
	}

	if filter.Before != nil {
		query += fmt.Sprintf(" AND started_at < $%d", argIndex)
		args = append(args, *filter.Before)
		argIndex++
	}

	query += " ORDER BY started_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	return query, args
}
