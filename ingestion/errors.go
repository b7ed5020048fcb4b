package ingestion

import "errors"

var (
	// ErrVectorStoreRequired indicates the pipeline was constructed without
	// a vector store.
	ErrVectorStoreRequired = errors.New("vector store is required")

	// ErrGraphStoreRequired indicates the pipeline was constructed without
	// a graph store.
	ErrGraphStoreRequired = errors.New("graph store is required")

	// ErrEmbedderRequired indicates the pipeline was constructed without an
	// embedding service.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrExtractorRequired indicates the pipeline was constructed without a
	// triplet extractor.
	ErrExtractorRequired = errors.New("triplet extractor is required")

	// ErrUnsupportedExtension indicates the file's extension is not in the
	// configured allow-list.
	ErrUnsupportedExtension = errors.New("unsupported file extension")

	// ErrFileTooLarge indicates the file exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")

	// ErrNoParser indicates a document format that needs an external parser,
	// but none was configured.
	ErrNoParser = errors.New("no document parser configured for this format")
)
