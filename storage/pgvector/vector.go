// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pgvector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
	"github.com/poiesic/graphrag/core"
	"github.com/poiesic/graphrag/storage"
)

// VectorStore is a Postgres/pgvector implementation of storage.VectorStore.
// Chunks live in the chunks table with an HNSW cosine index.
type VectorStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore creates a vector store on the given pool. The pool is
// shared; Close does not close it.
func NewVectorStore(pool *pgxpool.Pool) *VectorStore {
	return &VectorStore{
		pool:   pool,
		logger: slog.Default().With("component", "pgvector-store"),
	}
}

// Insert stores a single chunk.
func (s *VectorStore) Insert(ctx context.Context, content string, metadata map[string]any, embedding []float32) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chunks (content, metadata, embedding) VALUES ($1, $2, $3)`,
		content, metadata, pgv.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("inserting chunk: %w", err)
	}
	return nil
}

// InsertBatch stores records in a single transaction. A failure on any
// record rolls back the whole batch.
func (s *VectorStore) InsertBatch(ctx context.Context, records []core.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(
			`INSERT INTO chunks (content, metadata, embedding) VALUES ($1, $2, $3)`,
			record.Content, record.Metadata, pgv.NewVector(record.Embedding))
	}

	results := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("inserting chunk batch: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing chunk batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunk batch: %w", err)
	}

	s.logger.Debug("inserted chunk batch", "count", len(records))
	return nil
}

// SearchSimilar returns the contents of the topK nearest chunks by cosine
// distance, closest first.
func (s *VectorStore) SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]string, error) {
	if topK < 1 {
		return nil, storage.ErrInvalidTopK
	}

	rows, err := s.pool.Query(ctx,
		`SELECT content FROM chunks ORDER BY embedding <=> $1 LIMIT $2`,
		pgv.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	contents := make([]string, 0, topK)
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	return contents, nil
}

// Count returns the number of stored chunks.
func (s *VectorStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// Truncate removes all stored chunks.
func (s *VectorStore) Truncate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE TABLE chunks`); err != nil {
		return fmt.Errorf("truncating chunks: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *VectorStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close is a no-op; the pool's owner closes it.
func (s *VectorStore) Close() error {
	return nil
}
