package search

import "errors"

var (
	// ErrVectorStoreRequired indicates the searcher was constructed without
	// a vector store.
	ErrVectorStoreRequired = errors.New("vector store is required")

	// ErrGraphStoreRequired indicates the searcher was constructed without
	// a graph store.
	ErrGraphStoreRequired = errors.New("graph store is required")

	// ErrEmbedderRequired indicates the searcher was constructed without an
	// embedding service.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrCompleterRequired indicates the searcher was constructed without a
	// completion service.
	ErrCompleterRequired = errors.New("completer is required")

	// ErrEntityExtractorRequired indicates the searcher was constructed
	// without an entity extractor.
	ErrEntityExtractorRequired = errors.New("entity extractor is required")
)
