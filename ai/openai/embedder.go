package openai

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/graphrag/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
//
// The underlying client is initialized lazily, exactly once per instance,
// on the first embedding call; construction itself never dials out.
type Embedder struct {
	config   *ai.Config
	initOnce sync.Once
	initErr  error
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Embedder{
		config: config,
		logger: slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// ensureBackend creates the langchaingo embedding client on first use.
func (e *Embedder) ensureBackend() error {
	e.initOnce.Do(func() {
		e.logger.Info("initializing embedding backend", "model", e.config.EmbeddingModel)

		client, err := openai.New(
			openai.WithBaseURL(e.config.BaseURL),
			openai.WithToken(e.config.APIKey),
			openai.WithEmbeddingModel(e.config.EmbeddingModel),
		)
		if err != nil {
			e.initErr = err
			return
		}

		e.embedder, e.initErr = embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	})
	return e.initErr
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.ensureBackend(); err != nil {
		e.logger.Error("embedding backend initialization failed", "err", err)
		return nil, err
	}

	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}

	return vectors, nil
}
