package neo4j

import (
	"testing"

	"github.com/poiesic/graphrag/storage"
	"github.com/stretchr/testify/assert"
)

func TestRelationshipPattern(t *testing.T) {
	store := &Store{policy: storage.DefaultTraversalPolicy()}
	assert.Equal(t, "PRESCRIBED|TREATED_BY", store.relationshipPattern())

	store = &Store{policy: storage.TraversalPolicy{RelationshipTypes: []string{"has condition!", "TREATS"}}}
	assert.Equal(t, "hascondition|TREATS", store.relationshipPattern())

	store = &Store{}
	assert.Equal(t, "RELATES_TO", store.relationshipPattern())
}

func TestNeighborhoodQueryAssembly(t *testing.T) {
	store := &Store{policy: storage.DefaultTraversalPolicy()}
	query := store.neighborhoodQuery()

	// Fulltext branch unioned with the exact-identifier branch, so an
	// identifier like "P20" that never clears the fulltext score threshold
	// still matches.
	assert.Contains(t, query, `db.index.fulltext.queryNodes("entity_names_index", searchTerm)`)
	assert.Contains(t, query, "score > 0.8")
	assert.Contains(t, query, "UNION")
	assert.Contains(t, query, "matchedNode.patientId = searchTerm")
	assert.Contains(t, query, "matchedNode.doctorId = searchTerm")
	assert.Contains(t, query, "matchedNode.visitId = searchTerm")
	assert.Contains(t, query, "WITH DISTINCT matchedNode")

	// Second hop is scoped by the traversal policy and the whole result
	// is capped.
	assert.Contains(t, query, "OPTIONAL MATCH (neighbor)-[r2:PRESCRIBED|TREATED_BY]-(grandchild:Entity)")
	assert.Contains(t, query, "WHERE neighbor:Visit")
	assert.Contains(t, query, "LIMIT 50")

	// A hostile policy cannot break out of the label position.
	store = &Store{policy: storage.TraversalPolicy{FromLabel: "Visit) DETACH DELETE (n", RelationshipTypes: []string{"r]->() DELETE"}}}
	query = store.neighborhoodQuery()
	assert.NotContains(t, query, "DETACH DELETE")
	assert.Contains(t, query, "WHERE neighbor:VisitDETACHDELETEn")
}

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "Visit", sanitizeLabel("Visit"))
	assert.Equal(t, "VisitDROP", sanitizeLabel("Visit; DROP"))
	assert.Equal(t, "Entity", sanitizeLabel(""))
	assert.Equal(t, "Entity", sanitizeLabel("!!!"))
}
