package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/graphrag/core"
)

// MockExtractor is a test double for the extraction interfaces: ai.TripletExtractor,
// ai.EntityExtractor, and ai.SQLExtractor. It allows custom behavior injection
// via function fields.
type MockExtractor struct {
	// ExtractTripletsFunc is called by ExtractTriplets if set.
	// If nil, uses default word-pairing behavior.
	ExtractTripletsFunc func(ctx context.Context, text string) ([]core.Triplet, error)

	// ExtractEntitiesFunc is called by ExtractEntities if set.
	// If nil, uses default capitalized-word extraction.
	ExtractEntitiesFunc func(ctx context.Context, query string) ([]string, error)

	// ExtractSQLQueriesFunc is called by ExtractSQLQueries if set.
	// If nil, returns no queries.
	ExtractSQLQueriesFunc func(ctx context.Context, text string) ([]core.SQLQuery, error)

	mu        sync.Mutex
	callCount int
}

// NewMockExtractor creates a mock extractor with default behavior.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// ExtractTriplets extracts simple mock triplets from text.
// Default behavior: pairs the first three words as (subject, predicate, object).
func (m *MockExtractor) ExtractTriplets(ctx context.Context, text string) ([]core.Triplet, error) {
	m.recordCall()

	if m.ExtractTripletsFunc != nil {
		return m.ExtractTripletsFunc(ctx, text)
	}

	words := strings.Fields(text)
	if len(words) < 3 {
		return []core.Triplet{}, nil
	}
	return []core.Triplet{{
		Subject:   words[0],
		Predicate: words[1],
		Object:    words[2],
	}}, nil
}

// ExtractEntities extracts simple mock entities from a query.
// Default behavior: returns capitalized words, up to five.
func (m *MockExtractor) ExtractEntities(ctx context.Context, query string) ([]string, error) {
	m.recordCall()

	if m.ExtractEntitiesFunc != nil {
		return m.ExtractEntitiesFunc(ctx, query)
	}

	entities := make([]string, 0, 5)
	for _, word := range strings.Fields(query) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if len(word) > 1 && word[0] >= 'A' && word[0] <= 'Z' {
			entities = append(entities, word)
		}
		if len(entities) == 5 {
			break
		}
	}
	return entities, nil
}

// ExtractSQLQueries returns no queries unless ExtractSQLQueriesFunc is set.
func (m *MockExtractor) ExtractSQLQueries(ctx context.Context, text string) ([]core.SQLQuery, error) {
	m.recordCall()

	if m.ExtractSQLQueriesFunc != nil {
		return m.ExtractSQLQueriesFunc(ctx, text)
	}
	return []core.SQLQuery{}, nil
}

// CallCount returns the number of times any extract method was called.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.ExtractTripletsFunc = nil
	m.ExtractEntitiesFunc = nil
	m.ExtractSQLQueriesFunc = nil
}

func (m *MockExtractor) recordCall() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
}
