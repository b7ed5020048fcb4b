// Package memory provides in-process implementations of the storage
// interfaces. They back unit tests and ephemeral deployments where standing
// up Postgres and Neo4j is not worth the trouble. All three stores are
// mutex-guarded and safe for concurrent use.
package memory
