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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/graphrag/ai"
	"github.com/poiesic/graphrag/core"
	"github.com/poiesic/graphrag/retry"
	"github.com/poiesic/graphrag/storage"
)

// DefaultBatchSize is the number of chunks embedded per provider call.
const DefaultBatchSize = 10

// Pipeline orchestrates document ingestion: parse, chunk, embed, store
// vectors, extract triplets into the graph, and harvest SQL snippets into
// the query store.
type Pipeline struct {
	vectorStore  storage.VectorStore
	graphStore   storage.GraphStore
	queryStore   storage.QueryStore
	embedder     ai.Embedder
	triplets     ai.TripletExtractor
	sqlExtractor ai.SQLExtractor
	chunker      Chunker
	parser       DocumentParser
	tripletPool  *ants.Pool
	retryPolicy  retry.Policy
	batchSize    int
	allowedExts  map[string]bool
	maxFileBytes int64
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets the number of chunks per embedding batch.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = DefaultBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent triplet extraction.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.tripletPool != nil {
			p.tripletPool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.tripletPool = pool
		return nil
	}
}

// WithRetryPolicy sets the backoff policy for embedding and storage calls.
// Default is retry.DefaultPolicy().
func WithRetryPolicy(policy retry.Policy) Option {
	return func(p *Pipeline) error {
		p.retryPolicy = policy
		return nil
	}
}

// WithChunker sets the chunking strategy for plain text.
// Default is ParagraphChunker.
func WithChunker(chunker Chunker) Option {
	return func(p *Pipeline) error {
		if chunker != nil {
			p.chunker = chunker
		}
		return nil
	}
}

// WithDocumentParser sets the parser used for non-plain-text formats.
// Without one, PDF and Office files are rejected.
func WithDocumentParser(parser DocumentParser) Option {
	return func(p *Pipeline) error {
		p.parser = parser
		return nil
	}
}

// WithQueryStore enables the SQL harvesting side channel.
func WithQueryStore(queryStore storage.QueryStore, extractor ai.SQLExtractor) Option {
	return func(p *Pipeline) error {
		p.queryStore = queryStore
		p.sqlExtractor = extractor
		return nil
	}
}

// WithFileLimits sets the extension allow-list and the maximum file size.
// Defaults are DefaultAllowedExtensions and no size limit.
func WithFileLimits(extensions []string, maxSizeMB int) Option {
	return func(p *Pipeline) error {
		if len(extensions) > 0 {
			p.allowedExts = extensionSet(extensions)
		}
		if maxSizeMB > 0 {
			p.maxFileBytes = int64(maxSizeMB) << 20
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	vectorStore storage.VectorStore,
	graphStore storage.GraphStore,
	embedder ai.Embedder,
	triplets ai.TripletExtractor,
	opts ...Option,
) (*Pipeline, error) {
	if vectorStore == nil {
		return nil, ErrVectorStoreRequired
	}
	if graphStore == nil {
		return nil, ErrGraphStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if triplets == nil {
		return nil, ErrExtractorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		vectorStore: vectorStore,
		graphStore:  graphStore,
		embedder:    embedder,
		triplets:    triplets,
		chunker:     ParagraphChunker{},
		tripletPool: pool,
		retryPolicy: retry.DefaultPolicy(),
		batchSize:   DefaultBatchSize,
		allowedExts: extensionSet(DefaultAllowedExtensions),
		logger:      slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// ProcessFiles ingests each file in turn. A failure in one file is logged
// and does not stop the others; the last error is returned.
func (p *Pipeline) ProcessFiles(ctx context.Context, paths []string, progress ProgressFunc) error {
	var lastErr error
	for _, path := range paths {
		if err := p.ProcessFile(ctx, path, progress); err != nil {
			p.logger.Error("error processing file", "file", path, "err", err)
			lastErr = err
		}
	}
	return lastErr
}

// ProcessFile ingests a single file: validate, read or parse, harvest SQL,
// chunk, then embed and store in batches. A batch failure aborts the
// remaining batches of the file.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, progress ProgressFunc) error {
	p.logger.Info("processing file", "file", path)

	if err := p.validateFile(path); err != nil {
		return err
	}

	text, err := p.readText(ctx, path)
	if err != nil {
		return err
	}

	// SQL harvesting is best effort; a failure never blocks ingestion.
	if strings.TrimSpace(text) != "" {
		p.harvestSQL(ctx, text, path)
	}

	chunks := p.chunker.Chunk(text, path)
	return p.ProcessChunks(ctx, path, chunks, progress)
}

// ProcessChunks embeds and stores pre-chunked content in batches. Exposed
// for callers that chunk upstream of the pipeline.
func (p *Pipeline) ProcessChunks(ctx context.Context, sourceID string, chunks []core.Chunk, progress ProgressFunc) error {
	totalChunks := len(chunks)
	totalBatches := (totalChunks + p.batchSize - 1) / p.batchSize

	p.logger.Info("ingesting chunks", "file", sourceID, "chunks", totalChunks, "batches", totalBatches)

	for batchIdx, start := 0, 0; start < totalChunks; batchIdx, start = batchIdx+1, start+p.batchSize {
		end := start + p.batchSize
		if end > totalChunks {
			end = totalChunks
		}
		batch := chunks[start:end]

		p.emit(progress, Event{
			File:            sourceID,
			TotalChunks:     totalChunks,
			TotalBatches:    totalBatches,
			CurrentBatch:    batchIdx + 1,
			ChunksProcessed: start,
			BatchSize:       len(batch),
		})

		if err := p.processBatch(ctx, batch, start, sourceID, progress); err != nil {
			p.emit(progress, Event{File: sourceID, Err: err, BatchIndex: start})
			return fmt.Errorf("processing batch at chunk %d: %w", start, err)
		}
	}
	return nil
}

// processBatch embeds the batch's non-blank chunks in one call, stores the
// vectors transactionally, and fans triplet extraction out to the pool.
func (p *Pipeline) processBatch(ctx context.Context, batch []core.Chunk, startIndex int, sourceID string, progress ProgressFunc) error {
	texts := make([]string, 0, len(batch))
	indices := make([]int, 0, len(batch))
	for i, chunk := range batch {
		text := strings.TrimSpace(chunk.Text)
		if text == "" {
			continue
		}
		texts = append(texts, text)
		indices = append(indices, startIndex+i)
	}
	if len(texts) == 0 {
		return nil
	}

	batchStart := time.Now()

	var embeddings [][]float32
	err := p.retryPolicy.Do(ctx, func() error {
		var embedErr error
		embeddings, embedErr = p.embedder.EmbedTexts(ctx, texts)
		return embedErr
	})
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}

	records := make([]core.VectorRecord, len(texts))
	for i, text := range texts {
		records[i] = core.VectorRecord{
			Content:   text,
			Metadata:  map[string]any{"source": sourceID, "chunk_id": indices[i]},
			Embedding: embeddings[i],
		}
	}

	err = p.retryPolicy.Do(ctx, func() error {
		return p.vectorStore.InsertBatch(ctx, records)
	})
	if err != nil {
		return fmt.Errorf("storing vectors: %w", err)
	}

	// Triplet extraction is per chunk and concurrent. Failures are logged;
	// they never fail the batch.
	var wg sync.WaitGroup
	for _, text := range texts {
		text := text
		wg.Add(1)
		submitErr := p.tripletPool.Submit(func() {
			defer wg.Done()
			p.extractAndStoreTriplets(ctx, text)
		})
		if submitErr != nil {
			wg.Done()
			p.logger.Warn("error submitting triplet task", "err", submitErr)
		}
	}
	wg.Wait()

	duration := time.Since(batchStart)
	rate := float64(len(texts)) / duration.Seconds()
	p.logger.Info("batch processed", "chunks", len(texts), "duration", duration, "chunks_per_second", rate)

	p.emit(progress, Event{
		File:            sourceID,
		BatchCompleted:  true,
		BatchIndex:      startIndex,
		BatchSize:       len(texts),
		Duration:        duration,
		ChunksPerSecond: rate,
	})
	return nil
}

func (p *Pipeline) extractAndStoreTriplets(ctx context.Context, text string) {
	triplets, err := p.triplets.ExtractTriplets(ctx, text)
	if err != nil {
		p.logger.Warn("error extracting triplets", "err", err)
		return
	}
	for _, triplet := range triplets {
		if err := core.ValidateTriplet(core.NormalizeTriplet(triplet)); err != nil {
			p.logger.Warn("skipping invalid triplet", "err", err)
			continue
		}
		if err := p.graphStore.MergeTriplet(ctx, triplet); err != nil {
			p.logger.Warn("error storing triplet", "err", err)
		}
	}
}

// harvestSQL extracts SQL snippets from the full text and stores each with
// its own embedding. Everything here is best effort.
func (p *Pipeline) harvestSQL(ctx context.Context, text, source string) {
	if p.queryStore == nil || p.sqlExtractor == nil {
		return
	}

	queries, err := p.sqlExtractor.ExtractSQLQueries(ctx, text)
	if err != nil {
		p.logger.Warn("error extracting sql queries", "file", source, "err", err)
		return
	}

	for _, query := range queries {
		sql := strings.TrimSpace(query.SQLQuery)
		if sql == "" {
			continue
		}

		embedding, err := p.embedder.EmbedText(ctx, sql)
		if err != nil {
			p.logger.Warn("error embedding sql query", "err", err)
			continue
		}

		_, err = p.queryStore.InsertQuery(ctx, core.QueryEmbeddingRecord{
			Question:    sql,
			SQLQuery:    sql,
			Description: fmt.Sprintf("SQL query extracted from %s", source),
			QueryType:   query.QueryType,
			Tables:      query.Tables,
			Columns:     query.Columns,
			Joins:       query.Joins,
			Embedding:   embedding,
		})
		if err != nil {
			p.logger.Warn("error storing sql query", "err", err)
			continue
		}
		p.logger.Info("stored sql query", "query_type", query.QueryType, "tables", len(query.Tables))
	}
}

// readText returns the file's full text, going through the document parser
// for non-plain formats.
func (p *Pipeline) readText(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if plainTextExtensions[ext] {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading file: %w", err)
		}
		return string(data), nil
	}

	if p.parser == nil {
		return "", fmt.Errorf("%w: %s", ErrNoParser, ext)
	}
	text, err := p.parser.Parse(ctx, path)
	if err != nil {
		return "", fmt.Errorf("parsing document: %w", err)
	}
	return text, nil
}

// Release releases the triplet worker pool. The pipeline should not be used
// after calling Release.
func (p *Pipeline) Release() {
	if p.tripletPool != nil {
		p.tripletPool.Release()
	}
}

func extensionSet(extensions []string) map[string]bool {
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}
