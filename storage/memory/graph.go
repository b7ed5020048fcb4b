package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/graphrag/core"
	"github.com/poiesic/graphrag/storage"
)

const neighborhoodLimit = 50

type graphNode struct {
	name  string
	label string
}

type graphEdge struct {
	subject   string
	predicate string
	object    string
}

// GraphStore is an in-memory storage.GraphStore. Entity matching is a
// case-insensitive name match instead of a fulltext index.
type GraphStore struct {
	mu     sync.RWMutex
	nodes  map[string]*graphNode
	edges  map[graphEdge]struct{}
	order  []graphEdge
	policy storage.TraversalPolicy
	closed bool
}

var _ storage.GraphStore = (*GraphStore)(nil)

// NewGraphStore creates an empty in-memory graph store with the given
// traversal policy.
func NewGraphStore(policy storage.TraversalPolicy) *GraphStore {
	return &GraphStore{
		nodes:  make(map[string]*graphNode),
		edges:  make(map[graphEdge]struct{}),
		policy: policy,
	}
}

// MergeTriplet idempotently upserts the triplet's entities and relationship.
func (s *GraphStore) MergeTriplet(ctx context.Context, triplet core.Triplet) error {
	normalized := core.NormalizeTriplet(triplet)
	if err := core.ValidateTriplet(normalized); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}

	s.mergeNode(normalized.Subject)
	s.mergeNode(normalized.Object)

	edge := graphEdge{
		subject:   normalized.Subject,
		predicate: core.SanitizeRelationshipType(normalized.Predicate),
		object:    normalized.Object,
	}
	if _, exists := s.edges[edge]; !exists {
		s.edges[edge] = struct{}{}
		s.order = append(s.order, edge)
	}
	return nil
}

func (s *GraphStore) mergeNode(name string) {
	if _, exists := s.nodes[name]; !exists {
		s.nodes[name] = &graphNode{name: name, label: "Entity"}
	}
}

// SetLabel overrides a node's label. Tests use it to stage nodes that
// participate in policy-driven second hops.
func (s *GraphStore) SetLabel(name, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if node, exists := s.nodes[name]; exists {
		node.label = label
	}
}

// Neighborhood returns one-hop facts around entities whose name matches, plus
// second-hop facts admitted by the traversal policy.
func (s *GraphStore) Neighborhood(ctx context.Context, entity string) ([]core.GraphFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrClosed
	}

	matched := make(map[string]bool)
	needle := strings.ToLower(strings.TrimSpace(entity))
	if needle == "" {
		return []core.GraphFact{}, nil
	}
	for name := range s.nodes {
		if strings.Contains(strings.ToLower(name), needle) {
			matched[name] = true
		}
	}

	facts := make([]core.GraphFact, 0)
	seen := make(map[graphEdge]bool)
	neighbors := make(map[string]bool)

	for _, edge := range s.order {
		if !matched[edge.subject] && !matched[edge.object] {
			continue
		}
		if seen[edge] {
			continue
		}
		seen[edge] = true
		facts = append(facts, s.fact(edge))

		if matched[edge.subject] {
			neighbors[edge.object] = true
		}
		if matched[edge.object] {
			neighbors[edge.subject] = true
		}
	}

	for _, edge := range s.order {
		if len(facts) >= neighborhoodLimit {
			break
		}
		if seen[edge] {
			continue
		}
		if !neighbors[edge.subject] || s.nodes[edge.subject].label != s.policy.FromLabel {
			continue
		}
		if !s.policyAllows(edge.predicate) {
			continue
		}
		seen[edge] = true
		facts = append(facts, s.fact(edge))
	}

	if len(facts) > neighborhoodLimit {
		facts = facts[:neighborhoodLimit]
	}
	return facts, nil
}

func (s *GraphStore) policyAllows(predicate string) bool {
	for _, relType := range s.policy.RelationshipTypes {
		if predicate == relType {
			return true
		}
	}
	return false
}

func (s *GraphStore) fact(edge graphEdge) core.GraphFact {
	return core.GraphFact{
		Subject:      edge.subject,
		SubjectLabel: s.nodes[edge.subject].label,
		Predicate:    edge.predicate,
		Object:       edge.object,
		ObjectLabel:  s.nodes[edge.object].label,
	}
}

// Export returns up to limit edges with their nodes.
func (s *GraphStore) Export(ctx context.Context, limit int) ([]core.GraphNode, []core.GraphEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, nil, storage.ErrClosed
	}

	if limit < 1 || limit > len(s.order) {
		limit = len(s.order)
	}

	nodeSet := make(map[string]bool)
	nodes := make([]core.GraphNode, 0)
	edges := make([]core.GraphEdge, 0, limit)
	for _, edge := range s.order[:limit] {
		for _, name := range []string{edge.subject, edge.object} {
			if !nodeSet[name] {
				nodeSet[name] = true
				nodes = append(nodes, core.GraphNode{
					Id:    name,
					Label: name,
					Type:  s.nodes[name].label,
				})
			}
		}
		edges = append(edges, core.GraphEdge{
			Source: edge.subject,
			Label:  edge.predicate,
			Target: edge.object,
		})
	}
	return nodes, edges, nil
}

// CountNodes returns the number of entity nodes.
func (s *GraphStore) CountNodes(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	return int64(len(s.nodes)), nil
}

// CountRelationships returns the number of relationships.
func (s *GraphStore) CountRelationships(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	return int64(len(s.edges)), nil
}

// Wipe removes all nodes and relationships.
func (s *GraphStore) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.nodes = make(map[string]*graphNode)
	s.edges = make(map[graphEdge]struct{})
	s.order = nil
	return nil
}

// Ping reports whether the store is open.
func (s *GraphStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storage.ErrClosed
	}
	return nil
}

// Close marks the store closed.
func (s *GraphStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
