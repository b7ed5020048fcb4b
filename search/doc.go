// Package search implements hybrid retrieval: the query is embedded and its
// entities extracted concurrently, then vector similarity search and graph
// neighborhood lookups run in parallel, and the merged context grounds a
// model-generated answer. Lookup failures degrade to empty context blocks
// rather than failing the search.
package search
