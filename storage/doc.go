// Package storage defines the persistence interfaces for the three stores
// the system depends on: a VectorStore for chunk embeddings, a GraphStore
// for entity relationships, and a QueryStore for versioned query embeddings.
//
// Production implementations live in the pgvector and neo4j subpackages;
// the memory subpackage provides in-process implementations for tests and
// ephemeral use.
package storage
