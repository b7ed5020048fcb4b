// Package ingestion turns source documents into retrievable knowledge. Each
// file is validated, read or parsed, chunked, and processed in fixed-size
// batches: one embedding call per batch, a transactional vector write, and
// concurrent per-chunk triplet extraction into the graph store. SQL snippets
// found in the full text are harvested into the query store as a best-effort
// side channel.
package ingestion
