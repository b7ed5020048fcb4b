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


package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/poiesic/graphrag/core"
)

// VectorStore persists chunk embeddings and serves nearest-neighbor search.
// Implementations must be safe for concurrent use.
type VectorStore interface {
	// Insert stores a single chunk with its embedding and metadata.
	Insert(ctx context.Context, content string, metadata map[string]any, embedding []float32) error

	// InsertBatch stores multiple records atomically. Either every record is
	// persisted or none are.
	InsertBatch(ctx context.Context, records []core.VectorRecord) error

	// SearchSimilar returns the contents of the topK chunks nearest to
	// embedding by cosine distance, closest first.
	SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]string, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int64, error)

	// Truncate removes all stored chunks.
	Truncate(ctx context.Context) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

// TraversalPolicy controls the optional second hop of a graph neighborhood
// lookup: from neighbors carrying FromLabel, follow the listed relationship
// types one level further.
type TraversalPolicy struct {
	FromLabel         string
	RelationshipTypes []string
}

// DefaultTraversalPolicy extends neighborhoods through clinical visits.
func DefaultTraversalPolicy() TraversalPolicy {
	return TraversalPolicy{
		FromLabel:         "Visit",
		RelationshipTypes: []string{"PRESCRIBED", "TREATED_BY"},
	}
}

// GraphStore persists entity relationships and serves neighborhood lookups.
// Implementations must be safe for concurrent use.
type GraphStore interface {
	// MergeTriplet idempotently upserts both entities and the relationship
	// between them. The predicate is normalized and sanitized into a valid
	// relationship type before storage.
	MergeTriplet(ctx context.Context, triplet core.Triplet) error

	// Neighborhood returns the facts within one hop of entities matching the
	// given name or identifier, plus the second-hop facts admitted by the
	// store's traversal policy.
	Neighborhood(ctx context.Context, entity string) ([]core.GraphFact, error)

	// Export returns up to limit relationships together with their nodes,
	// for visualization.
	Export(ctx context.Context, limit int) ([]core.GraphNode, []core.GraphEdge, error)

	// CountNodes returns the number of entity nodes.
	CountNodes(ctx context.Context) (int64, error)

	// CountRelationships returns the number of relationships.
	CountRelationships(ctx context.Context) (int64, error)

	// Wipe removes all nodes and relationships.
	Wipe(ctx context.Context) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

// QueryFilter narrows a query-embedding search.
type QueryFilter struct {
	// QueryType restricts results to queries of this type when non-empty.
	QueryType string

	// Tables restricts results to queries touching at least one of these
	// tables when non-empty.
	Tables []string

	// IncludeInactive, when true, returns superseded versions as well.
	IncludeInactive bool

	// Limit bounds the number of results. Values below 1 use the store
	// default.
	Limit int
}

// QueryStore persists versioned query embeddings for semantic SQL lookup.
// Implementations must be safe for concurrent use.
type QueryStore interface {
	// InsertQuery stores a new query record at version 1 and returns its id.
	InsertQuery(ctx context.Context, record core.QueryEmbeddingRecord) (uuid.UUID, error)

	// SearchQueries returns active records ranked by similarity to embedding,
	// subject to filter.
	SearchQueries(ctx context.Context, embedding []float32, filter QueryFilter) ([]core.QueryEmbeddingRecord, error)

	// Supersede atomically creates a new version of the record identified by
	// oldID, carrying over any field left zero in changes, and marks the old
	// version inactive with a pointer to its successor. Returns the new
	// record's id.
	Supersede(ctx context.Context, oldID uuid.UUID, changes core.QueryEmbeddingRecord) (uuid.UUID, error)

	// GetQuery returns the record with the given id.
	GetQuery(ctx context.Context, id uuid.UUID) (core.QueryEmbeddingRecord, error)

	// Close releases the store's resources.
	Close() error
}
