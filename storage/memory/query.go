package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/graphrag/core"
	"github.com/poiesic/graphrag/storage"
)

const defaultQueryLimit = 5

// QueryStore is an in-memory storage.QueryStore.
type QueryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]core.QueryEmbeddingRecord
	closed  bool
}

var _ storage.QueryStore = (*QueryStore)(nil)

// NewQueryStore creates an empty in-memory query store.
func NewQueryStore() *QueryStore {
	return &QueryStore{records: make(map[uuid.UUID]core.QueryEmbeddingRecord)}
}

// InsertQuery stores a new record at version 1 and returns its id.
func (s *QueryStore) InsertQuery(ctx context.Context, record core.QueryEmbeddingRecord) (uuid.UUID, error) {
	if err := core.ValidateQueryRecord(&record); err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return uuid.Nil, storage.ErrClosed
	}

	record.Id = uuid.New()
	record.Version = 1
	record.IsActive = true
	record.SupersededBy = uuid.Nil
	record.CreatedAt = time.Now()
	s.records[record.Id] = record
	return record.Id, nil
}

// SearchQueries returns records ranked by cosine similarity to embedding.
func (s *QueryStore) SearchQueries(ctx context.Context, embedding []float32, filter storage.QueryFilter) ([]core.QueryEmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrClosed
	}

	limit := filter.Limit
	if limit < 1 {
		limit = defaultQueryLimit
	}

	matches := make([]core.QueryEmbeddingRecord, 0)
	for _, record := range s.records {
		if !record.IsActive && !filter.IncludeInactive {
			continue
		}
		if filter.QueryType != "" && record.QueryType != filter.QueryType {
			continue
		}
		if len(filter.Tables) > 0 && !tablesOverlap(record.Tables, filter.Tables) {
			continue
		}
		matches = append(matches, record)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return core.CosineDistance(embedding, matches[i].Embedding) <
			core.CosineDistance(embedding, matches[j].Embedding)
	})

	if limit > len(matches) {
		limit = len(matches)
	}
	return matches[:limit], nil
}

// Supersede creates a new version of the record, carrying over any field left
// zero in changes, and marks the old record inactive.
func (s *QueryStore) Supersede(ctx context.Context, oldID uuid.UUID, changes core.QueryEmbeddingRecord) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return uuid.Nil, storage.ErrClosed
	}

	old, exists := s.records[oldID]
	if !exists {
		return uuid.Nil, storage.ErrNotFound
	}
	if !old.IsActive {
		return uuid.Nil, storage.ErrInactiveRecord
	}

	next := mergeRecord(old, changes)
	next.Id = uuid.New()
	next.Version = old.Version + 1
	next.IsActive = true
	next.SupersededBy = uuid.Nil
	next.CreatedAt = time.Now()
	s.records[next.Id] = next

	old.IsActive = false
	old.SupersededBy = next.Id
	s.records[oldID] = old

	return next.Id, nil
}

// GetQuery returns the record with the given id.
func (s *QueryStore) GetQuery(ctx context.Context, id uuid.UUID) (core.QueryEmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return core.QueryEmbeddingRecord{}, storage.ErrClosed
	}

	record, exists := s.records[id]
	if !exists {
		return core.QueryEmbeddingRecord{}, storage.ErrNotFound
	}
	return record, nil
}

// Close marks the store closed.
func (s *QueryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func mergeRecord(old, changes core.QueryEmbeddingRecord) core.QueryEmbeddingRecord {
	next := old
	if changes.Question != "" {
		next.Question = changes.Question
	}
	if changes.SQLQuery != "" {
		next.SQLQuery = changes.SQLQuery
	}
	if changes.Description != "" {
		next.Description = changes.Description
	}
	if changes.QueryType != "" {
		next.QueryType = changes.QueryType
	}
	if len(changes.Tables) > 0 {
		next.Tables = changes.Tables
	}
	if len(changes.Columns) > 0 {
		next.Columns = changes.Columns
	}
	if len(changes.Joins) > 0 {
		next.Joins = changes.Joins
	}
	if len(changes.Embedding) > 0 {
		next.Embedding = changes.Embedding
	}
	return next
}

func tablesOverlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
