// Package pgvector implements the vector and query stores on Postgres with
// the pgvector extension. Chunk search and query search both rank by cosine
// distance over an HNSW index. Schema management is idempotent and runs at
// startup via EnsureSchema.
package pgvector
