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


package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a deterministic identifier derived from content.
// It is used as the key for in-process caches so that identical
// text always resolves to the same cache slot.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Chunk is an atomic unit of source text produced by a chunking strategy.
// Chunks are ephemeral: they are consumed once during ingestion and never
// stored in this form.
type Chunk struct {
	Text     string
	SourceID string
	Index    int
}

// VectorRecord is a persisted chunk with its embedding.
// Records are append-only; they are removed only by a bulk reset.
type VectorRecord struct {
	Id        int64
	Content   string
	Metadata  map[string]any
	Embedding []float32
}

// Triplet is a (subject, predicate, object) fact extracted from text
// for graph storage.
type Triplet struct {
	Subject   string
	Predicate string
	Object    string
}

// GraphFact is a relationship surfaced by graph traversal, including the
// node labels needed to render it for prompt context.
type GraphFact struct {
	Subject      string
	SubjectLabel string
	Predicate    string
	Object       string
	ObjectLabel  string
}

// String renders the fact in the form used for prompt assembly:
// (name:label) -[relationship]-> (name:label).
func (f GraphFact) String() string {
	return "(" + f.Subject + ":" + f.SubjectLabel + ") -[" + f.Predicate + "]-> (" + f.Object + ":" + f.ObjectLabel + ")"
}

// Join describes a join relationship found in an extracted SQL query.
type Join struct {
	FromTable string `json:"from_table"`
	ToTable   string `json:"to_table"`
	Condition string `json:"join_condition"`
}

// SQLQuery is a SQL snippet extracted from document text together with the
// metadata the extractor was able to recover.
type SQLQuery struct {
	SQLQuery  string   `json:"sql_query"`
	QueryType string   `json:"query_type"`
	Tables    []string `json:"tables"`
	Columns   []string `json:"columns"`
	Joins     []Join   `json:"joins"`
}

// QueryEmbeddingRecord is a versioned natural-language/SQL query pair.
//
// Records form supersession chains: within one lineage exactly one record is
// active, its version is the chain maximum, and every inactive record's
// SupersededBy points to its immediate successor. Records are never hard
// deleted in normal operation.
type QueryEmbeddingRecord struct {
	Id           uuid.UUID
	Question     string
	SQLQuery     string
	Description  string
	QueryType    string
	Tables       []string
	Columns      []string
	Joins        []Join
	Embedding    []float32
	Version      int
	IsActive     bool
	SupersededBy uuid.UUID // uuid.Nil while the record is active
	CreatedAt    time.Time
}

// GraphNode is a node exported for graph visualization.
type GraphNode struct {
	Id    string
	Label string
	Type  string
}

// GraphEdge is an edge exported for graph visualization.
type GraphEdge struct {
	Source string
	Label  string
	Target string
}
