// Package core defines the domain model shared across the graphrag module:
// chunks, vector records, triplets, graph facts, and versioned query
// embedding records, together with the validation rules that govern them.
//
// The package has no dependencies on storage or AI providers; other packages
// depend on core, never the reverse.
package core
