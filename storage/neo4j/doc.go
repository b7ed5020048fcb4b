// Package neo4j implements the graph store on Neo4j. Triplets become
// Entity nodes joined by typed relationships, and neighborhood lookups
// combine a fulltext name search with exact identifier matching before
// expanding one hop, plus a policy-controlled second hop.
package neo4j
