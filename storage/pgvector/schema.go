package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EmbeddingDim is the dimensionality of stored embeddings.
const EmbeddingDim = 768

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,

	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
		id SERIAL PRIMARY KEY,
		content TEXT NOT NULL,
		metadata JSONB,
		embedding vector(%d)
	)`, EmbeddingDim),

	`CREATE INDEX IF NOT EXISTS chunks_embedding_idx
		ON chunks USING hnsw (embedding vector_cosine_ops)`,

	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS query_embeddings (
		id UUID PRIMARY KEY,
		question TEXT NOT NULL,
		sql_query TEXT NOT NULL,
		description TEXT,
		query_type TEXT,
		tables TEXT[],
		columns TEXT[],
		joins JSONB,
		embedding vector(%d),
		version INTEGER NOT NULL DEFAULT 1,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		superseded_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, EmbeddingDim),

	`CREATE INDEX IF NOT EXISTS query_embeddings_embedding_idx
		ON query_embeddings USING hnsw (embedding vector_cosine_ops)`,

	`CREATE INDEX IF NOT EXISTS query_embeddings_active_idx
		ON query_embeddings (is_active) WHERE is_active`,
}

// EnsureSchema creates the pgvector extension, tables, and indexes if they
// do not exist. Safe to call on every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
