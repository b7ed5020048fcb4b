package ai

import (
	"context"

	"github.com/poiesic/graphrag/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// single batched provider call. The returned slice contains embeddings in
	// the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer wraps chat and reasoning completion calls.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete sends the prompt to the chat model and returns the text of the
	// response. The prompt is PII-scrubbed before leaving the process unless
	// WithoutScrubbing is passed. A successful response with absent content
	// yields an empty string, not an error.
	Complete(ctx context.Context, prompt string, opts ...CompleteOption) (string, error)

	// Reason sends the prompt to the reasoning model. Used for tasks that
	// benefit from disambiguation, such as entity extraction.
	Reason(ctx context.Context, prompt string) (string, error)
}

// TripletExtractor extracts (subject, predicate, object) facts from text.
type TripletExtractor interface {
	// ExtractTriplets analyzes text and returns zero or more triplets.
	// A malformed model response yields a *ParseError.
	ExtractTriplets(ctx context.Context, text string) ([]core.Triplet, error)
}

// EntityExtractor extracts the salient named entities from a query.
type EntityExtractor interface {
	// ExtractEntities returns entity names or identifiers mentioned in the
	// query, most important first, bounded to a small fixed count.
	ExtractEntities(ctx context.Context, query string) ([]string, error)
}

// SQLExtractor extracts SQL snippets and their metadata from document text.
type SQLExtractor interface {
	// ExtractSQLQueries returns zero or more SQL queries found in the text.
	// A malformed model response yields a *ParseError.
	ExtractSQLQueries(ctx context.Context, text string) ([]core.SQLQuery, error)
}

// Provider aggregates the AI services for convenient initialization and
// lifecycle management. It is constructed once in the composition root and
// passed by reference to ingestion and retrieval components.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Completer returns the completion service.
	Completer() Completer

	// TripletExtractor returns the triplet extraction service.
	TripletExtractor() TripletExtractor

	// EntityExtractor returns the query entity extraction service.
	EntityExtractor() EntityExtractor

	// SQLExtractor returns the SQL snippet extraction service.
	SQLExtractor() SQLExtractor

	// Close releases resources held by the provider and its services.
	Close() error
}
