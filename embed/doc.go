// Package embed provides the embedding service used throughout ingestion and
// retrieval. It composes a provider-backed ai.Embedder with PII scrubbing,
// L2 normalization, and a bounded, concurrency-safe LRU cache so that
// repeated text is only ever embedded once.
package embed
