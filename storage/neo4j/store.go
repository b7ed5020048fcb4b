// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package neo4j

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/poiesic/graphrag/core"
	"github.com/poiesic/graphrag/storage"
)

const neighborhoodLimit = 50

// Config holds Neo4j connection settings.
type Config struct {
	URI      string
	User     string
	Password string
	Database string
}

// Store is a Neo4j implementation of storage.GraphStore. Entities are nodes
// labeled Entity with a unique name; relationships carry sanitized types.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	policy   storage.TraversalPolicy
	logger   *slog.Logger
}

var _ storage.GraphStore = (*Store)(nil)

// NewStore connects to Neo4j, verifies connectivity, and returns a graph
// store honoring the given traversal policy.
func NewStore(ctx context.Context, config Config, policy storage.TraversalPolicy) (*Store, error) {
	user := config.User
	if user == "" {
		user = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(config.URI, neo4j.BasicAuth(user, config.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("initializing neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}

	return &Store{
		driver:   driver,
		database: config.Database,
		policy:   policy,
		logger:   slog.Default().With("component", "neo4j-store"),
	}, nil
}

// EnsureSchema creates the constraints and fulltext index the store relies
// on. Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	session := s.writeSession(ctx)
	defer session.Close(ctx)

	stmts := []string{
		`CREATE CONSTRAINT IF NOT EXISTS FOR (e:Entity) REQUIRE e.name IS UNIQUE`,
		`CREATE INDEX IF NOT EXISTS FOR (e:Entity) ON (e.type)`,
		`CREATE FULLTEXT INDEX entity_names_index IF NOT EXISTS FOR (n:Entity) ON EACH [n.name]`,
	}
	for _, stmt := range stmts {
		result, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("applying graph schema: %w", err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("applying graph schema: %w", err)
		}
	}
	return nil
}

// MergeTriplet idempotently upserts both entities and the relationship
// between them. The relationship type is sanitized before being spliced
// into the statement; Cypher has no parameter slot for it.
func (s *Store) MergeTriplet(ctx context.Context, triplet core.Triplet) error {
	normalized := core.NormalizeTriplet(triplet)
	if err := core.ValidateTriplet(normalized); err != nil {
		return err
	}
	relType := core.SanitizeRelationshipType(normalized.Predicate)

	session := s.writeSession(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MERGE (s:Entity {name: $subject})
		MERGE (o:Entity {name: $object})
		MERGE (s)-[r:%s]->(o)`, relType)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{
			"subject": normalized.Subject,
			"object":  normalized.Object,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("merging triplet: %w", err)
	}
	return nil
}

// Neighborhood matches entities by fulltext name search or exact identifier,
// then returns their one-hop facts plus the second-hop facts the traversal
// policy admits.
func (s *Store) Neighborhood(ctx context.Context, entity string) ([]core.GraphFact, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := s.neighborhoodQuery()
	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"name": entity})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("graph search for %q: %w", entity, err)
	}

	facts := make([]core.GraphFact, 0)
	for _, record := range records.([]*neo4j.Record) {
		subject := nameOrUnknown(record, "s")
		object := nameOrUnknown(record, "o")
		facts = append(facts, core.GraphFact{
			Subject:      subject,
			SubjectLabel: displayLabel(record, "sLabels"),
			Predicate:    stringValue(record, "p"),
			Object:       object,
			ObjectLabel:  displayLabel(record, "oLabels"),
		})

		if p2 := stringValue(record, "p2"); p2 != "" {
			facts = append(facts, core.GraphFact{
				Subject:      object,
				SubjectLabel: displayLabel(record, "oLabels"),
				Predicate:    p2,
				Object:       nameOrUnknown(record, "g"),
				ObjectLabel:  displayLabel(record, "gLabels"),
			})
		}
	}

	s.logger.Debug("graph neighborhood", "entity", entity, "facts", len(facts))
	return facts, nil
}

// neighborhoodQuery assembles the entity-matching Cypher: a fulltext branch
// over entity_names_index unioned with an exact-identifier branch, then
// one-hop expansion with the policy-scoped optional second hop.
func (s *Store) neighborhoodQuery() string {
	return fmt.Sprintf(`
		WITH $name AS searchTerm
		CALL {
		  WITH searchTerm
		  CALL db.index.fulltext.queryNodes("entity_names_index", searchTerm)
		  YIELD node, score
		  WHERE score > 0.8
		  RETURN node AS matchedNode
		  LIMIT 5
		  UNION
		  WITH searchTerm
		  MATCH (matchedNode:Entity)
		  WHERE matchedNode.patientId = searchTerm
		     OR matchedNode.doctorId = searchTerm
		     OR matchedNode.visitId = searchTerm
		  RETURN matchedNode
		  LIMIT 5
		}
		WITH DISTINCT matchedNode
		MATCH (matchedNode)-[r]-(neighbor:Entity)
		OPTIONAL MATCH (neighbor)-[r2:%s]-(grandchild:Entity)
		WHERE neighbor:%s
		RETURN DISTINCT
		    matchedNode.name AS s,
		    type(r) AS p,
		    neighbor.name AS o,
		    labels(matchedNode) AS sLabels, labels(neighbor) AS oLabels,
		    type(r2) AS p2,
		    grandchild.name AS g, labels(grandchild) AS gLabels
		LIMIT %d`,
		s.relationshipPattern(), sanitizeLabel(s.policy.FromLabel), neighborhoodLimit)
}

// Export returns up to limit relationships and their nodes.
func (s *Store) Export(ctx context.Context, limit int) ([]core.GraphNode, []core.GraphEdge, error) {
	if limit < 1 {
		limit = 100
	}

	session := s.readSession(ctx)
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (s:Entity)-[r]->(o:Entity)
			RETURN s.name AS source, labels(s) AS sLabels,
			       type(r) AS rel,
			       o.name AS target, labels(o) AS oLabels
			LIMIT $limit`,
			map[string]any{"limit": limit})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("exporting graph: %w", err)
	}

	nodeSet := make(map[string]bool)
	nodes := make([]core.GraphNode, 0)
	edges := make([]core.GraphEdge, 0)
	for _, record := range records.([]*neo4j.Record) {
		source := stringValue(record, "source")
		target := stringValue(record, "target")
		if !nodeSet[source] {
			nodeSet[source] = true
			nodes = append(nodes, core.GraphNode{Id: source, Label: source, Type: displayLabel(record, "sLabels")})
		}
		if !nodeSet[target] {
			nodeSet[target] = true
			nodes = append(nodes, core.GraphNode{Id: target, Label: target, Type: displayLabel(record, "oLabels")})
		}
		edges = append(edges, core.GraphEdge{
			Source: source,
			Label:  stringValue(record, "rel"),
			Target: target,
		})
	}
	return nodes, edges, nil
}

// CountNodes returns the number of entity nodes.
func (s *Store) CountNodes(ctx context.Context) (int64, error) {
	return s.count(ctx, `MATCH (n:Entity) RETURN count(n) AS c`)
}

// CountRelationships returns the number of relationships.
func (s *Store) CountRelationships(ctx context.Context) (int64, error) {
	return s.count(ctx, `MATCH (:Entity)-[r]->(:Entity) RETURN count(r) AS c`)
}

// Wipe removes all nodes and relationships.
func (s *Store) Wipe(ctx context.Context) error {
	session := s.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (n) DETACH DELETE n`, nil)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("wiping graph: %w", err)
	}
	return nil
}

// Ping verifies connectivity to the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close shuts down the underlying driver.
func (s *Store) Close() error {
	return s.driver.Close(context.Background())
}

func (s *Store) count(ctx context.Context, query string) (int64, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	value, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		count, _ := record.Get("c")
		return count, nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting graph: %w", err)
	}
	return value.(int64), nil
}

func (s *Store) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
}

func (s *Store) readSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
}

func (s *Store) relationshipPattern() string {
	types := make([]string, 0, len(s.policy.RelationshipTypes))
	for _, relType := range s.policy.RelationshipTypes {
		types = append(types, core.SanitizeRelationshipType(relType))
	}
	if len(types) == 0 {
		types = append(types, core.DefaultRelationshipType)
	}
	return strings.Join(types, "|")
}

func sanitizeLabel(label string) string {
	clean := core.SanitizeRelationshipType(label)
	if clean == core.DefaultRelationshipType && label != core.DefaultRelationshipType {
		return "Entity"
	}
	return clean
}

func nameOrUnknown(record *neo4j.Record, key string) string {
	if name := stringValue(record, key); name != "" {
		return name
	}
	return "Unknown"
}

func stringValue(record *neo4j.Record, key string) string {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return text
}

// displayLabel picks the most specific label, falling back to Entity.
func displayLabel(record *neo4j.Record, key string) string {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return "Entity"
	}
	labels, ok := value.([]any)
	if !ok {
		return "Entity"
	}
	for _, label := range labels {
		if text, ok := label.(string); ok && text != "Entity" {
			return text
		}
	}
	return "Entity"
}
