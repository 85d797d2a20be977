// Package memory provides the in-memory run journal
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hyder110/GraphFlow/internal/core/run"
	"github.com/hyder110/GraphFlow/pkg/serialization"
)

// DefaultMaxRecords bounds the journal when no limit is configured.
const DefaultMaxRecords = 1000

// JournalStore implements run.Store with thread-safe in-memory storage
// PRINCIPLES:
// - KISS: Simple map guarded by one RWMutex
// - SRP: Single responsibility for in-memory run storage
// - DIP: Implements run.Store interface
type JournalStore struct {
	mu         sync.RWMutex
	entries    map[string]*journalEntry
	maxRecords int
	serializer *serialization.Serializer
}

// JournalConfig holds configuration for JournalStore
type JournalConfig struct {
	MaxRecords int                       // Oldest records are evicted beyond this count
	Serializer *serialization.Serializer // Payload serializer (optional)
}

// journalEntry keeps the indexed fields live and the payload serialized,
// so callers never share memory with the store.
type journalEntry struct {
	record run.Record
	data   []byte
}

// NewJournalStore creates a new in-memory run journal
// PRINCIPLES:
// - KISS: Simple constructor with sensible defaults
// - YAGNI: Only required configuration
func NewJournalStore(config JournalConfig) *JournalStore {
	if config.MaxRecords <= 0 {
		config.MaxRecords = DefaultMaxRecords
	}
	if config.Serializer == nil {
		config.Serializer = serialization.DefaultSerializer()
	}
	return &JournalStore{
		entries:    make(map[string]*journalEntry),
		maxRecords: config.MaxRecords,
		serializer: config.Serializer,
	}
}

// Save stores a record in memory
func (s *JournalStore) Save(_ context.Context, r *run.Record) error {
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

	indexed := *r
	indexed.SetPayload(run.Payload{})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[r.ID] = &journalEntry{record: indexed, data: data}
	s.evictOldest()
	return nil
}

// Load retrieves a record from memory
func (s *JournalStore) Load(_ context.Context, id string) (*run.Record, error) {
	if id == "" {
		return nil, run.ErrInvalidRecordID
	}
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, run.ErrRecordNotFound
	}
	return s.materialize(entry)
}

// List returns records matching the filter, newest first
func (s *JournalStore) List(_ context.Context, filter run.Filter) ([]*run.Record, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter validation failed: %w", err)
	}

	s.mu.RLock()
	matched := make([]*journalEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if filter.Matches(&entry.record) {
			matched = append(matched, entry)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(matched)

	if filter.Offset >= len(matched) {
		return []*run.Record{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	results := make([]*run.Record, 0, len(matched))
	for _, entry := range matched {
		r, err := s.materialize(entry)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Delete removes a record from memory
func (s *JournalStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return run.ErrInvalidRecordID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return run.ErrRecordNotFound
	}
	delete(s.entries, id)
	return nil
}

// Len returns the number of stored records.
func (s *JournalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close releases nothing; it satisfies the same shape as the SQL stores.
func (s *JournalStore) Close() error { return nil }

func (s *JournalStore) materialize(entry *journalEntry) (*run.Record, error) {
	var payload run.Payload
	if err := s.serializer.Deserialize(entry.data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", run.ErrLoadFailed, err)
	}
	r := entry.record
	r.SetPayload(payload)
	return &r, nil
}

// evictOldest drops the oldest records beyond maxRecords. Caller holds mu.
func (s *JournalStore) evictOldest() {
	excess := len(s.entries) - s.maxRecords
	if excess <= 0 {
		return
	}
	all := make([]*journalEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		all = append(all, entry)
	}
	sortNewestFirst(all)
	for _, entry := range all[len(all)-excess:] {
		delete(s.entries, entry.record.ID)
	}
}

// sortNewestFirst orders by start time descending, then by ID for ties.
func sortNewestFirst(entries []*journalEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].record, entries[j].record
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.After(b.StartedAt)
		}
		return a.ID > b.ID
	})
}
