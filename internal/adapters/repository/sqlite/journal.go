// Package sqlite provides the SQLite-backed run journal
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hyder110/GraphFlow/internal/core/run"
	"github.com/hyder110/GraphFlow/pkg/serialization"
	_ "modernc.org/sqlite"
)

const journalColumns = "id, graph_id, definition_hash, status, error_kind, error_message, codec, payload, started_at, completed_at"

// JournalStore implements run.Store for SQLite
type JournalStore struct {
	db         *sql.DB
	serializer *serialization.Serializer
	tableName  string
}

// Open opens the SQLite database at dsn and prepares the journal table.
func Open(ctx context.Context, dsn string, serializer *serialization.Serializer) (*JournalStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite journal: %w", err)
	}
	// One writer keeps in-memory databases on a single connection.
	db.SetMaxOpenConns(1)

	store := NewJournalStore(db, serializer)
	if err := store.CreateTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewJournalStore creates a new SQLite run journal
func NewJournalStore(db *sql.DB, serializer *serialization.Serializer) *JournalStore {
	if serializer == nil {
		serializer = serialization.DefaultSerializer()
	}
	return &JournalStore{
		db:         db,
		serializer: serializer,
		tableName:  "runs",
	}
}

// WithTableName allows overriding the default table name with validation.
// Only alphanumeric and underscore are permitted to prevent SQL injection via identifiers.
func (s *JournalStore) WithTableName(name string) *JournalStore {
	if isSafeIdent(name) {
		s.tableName = name
	}
	return s
}

func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			continue
		}
		return false
	}
	return true
}

// Save stores a run record in SQLite
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
		INSERT OR REPLACE INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.tableName, journalColumns)

	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.GraphID, r.DefinitionHash, string(r.Status), r.ErrorKind, r.ErrorMessage,
		s.serializer.CodecName(), data, r.StartedAt.UnixMilli(), r.CompletedAt.UnixMilli())
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

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", journalColumns, s.tableName)
	r, err := s.scan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	rows, err := s.db.QueryContext(ctx, query, args...)
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

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%w: %v", run.ErrDeleteFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return run.ErrRecordNotFound
	}
	return nil
}

// CreateTables creates the necessary database tables
func (s *JournalStore) CreateTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			graph_id INTEGER NOT NULL,
			definition_hash TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			error_kind TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			codec TEXT NOT NULL,
			payload BLOB NOT NULL,
			started_at INTEGER NOT NULL,
			completed_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_%s_graph_id ON %s (graph_id);
		CREATE INDEX IF NOT EXISTS idx_%s_started_at ON %s (started_at);
	`, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *JournalStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *JournalStore) scan(row rowScanner) (*run.Record, error) {
	var (
		r                  run.Record
		status, codec      string
		data               []byte
		started, completed int64
	)
	err := row.Scan(&r.ID, &r.GraphID, &r.DefinitionHash, &status, &r.ErrorKind, &r.ErrorMessage,
		&codec, &data, &started, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	r.StartedAt = time.UnixMilli(started).UTC()
	r.CompletedAt = time.UnixMilli(completed).UTC()
	return &r, nil
}

// buildListQuery constructs the SQL query for listing run records
func (s *JournalStore) buildListQuery(filter run.Filter) (string, []interface{}) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1", journalColumns, s.tableName)
	args := make([]interface{}, 0)

	if filter.GraphID != 0 {
		query += " AND graph_id = ?"
		args = append(args, filter.GraphID)
	}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}

	if filter.Since != nil {
		query += " AND started_at >= ?"
		args = append(args, filter.Since.UnixMilli())
	}

	if filter.Before != nil {
		query += " AND started_at < ?"
		args = append(args, filter.Before.UnixMilli())
	}

	query += " ORDER BY started_at DESC, id DESC"

	// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
	switch {
	case filter.Limit > 0:
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	case filter.Offset > 0:
		query += " LIMIT -1"
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	return query, args
}
