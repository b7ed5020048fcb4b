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


package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/graphrag/ai"
	"github.com/poiesic/graphrag/core"
)

// Extractor implements the LLM-driven extraction services: triplets for the
// graph store, SQL snippets for the query store, and salient entities for
// graph traversal.
type Extractor struct {
	completer   ai.Completer
	maxEntities int
	logger      *slog.Logger
}

var (
	_ ai.TripletExtractor = (*Extractor)(nil)
	_ ai.EntityExtractor  = (*Extractor)(nil)
	_ ai.SQLExtractor     = (*Extractor)(nil)
)

// newExtractor is an internal constructor that returns the concrete type.
func newExtractor(completer ai.Completer, maxEntities int) *Extractor {
	if maxEntities <= 0 {
		maxEntities = 8
	}
	return &Extractor{
		completer:   completer,
		maxEntities: maxEntities,
		logger:      slog.Default().With("component", "openai-extractor"),
	}
}

// NewExtractor creates extraction services backed by the given completer.
func NewExtractor(completer ai.Completer, maxEntities int) *Extractor {
	return newExtractor(completer, maxEntities)
}

// ExtractTriplets extracts semantic triplets from text using the chat model.
// A malformed response yields a *ai.ParseError; transport failures pass
// through unchanged.
func (e *Extractor) ExtractTriplets(ctx context.Context, text string) ([]core.Triplet, error) {
	response, err := e.completer.Complete(ctx, fmt.Sprintf(tripletPromptTemplate, text))
	if err != nil {
		return nil, err
	}

	type wireTriplet struct {
		Subject   string `json:"subject"`
		Predicate string `json:"predicate"`
		Object    string `json:"object"`
	}

	items, err := decodeList[wireTriplet](response, "triplets")
	if err != nil {
		e.logger.Warn("error parsing triplet response", "err", err)
		return nil, err
	}

	triplets := make([]core.Triplet, 0, len(items))
	for _, item := range items {
		triplets = append(triplets, core.Triplet{
			Subject:   item.Subject,
			Predicate: item.Predicate,
			Object:    item.Object,
		})
	}

	e.logger.Debug("extracted triplets", "count", len(triplets))
	return triplets, nil
}

// ExtractSQLQueries extracts SQL snippets and their metadata from text.
func (e *Extractor) ExtractSQLQueries(ctx context.Context, text string) ([]core.SQLQuery, error) {
	response, err := e.completer.Complete(ctx, fmt.Sprintf(sqlPromptTemplate, text))
	if err != nil {
		return nil, err
	}

	queries, err := decodeList[core.SQLQuery](response, "queries")
	if err != nil {
		e.logger.Warn("error parsing sql extraction response", "err", err)
		return nil, err
	}

	e.logger.Debug("extracted sql queries", "count", len(queries))
	return queries, nil
}

// ExtractEntities extracts salient entities from a query using the
// reasoning model. The response is a comma-separated list; a trailing
// "Entities:"-style preamble is tolerated.
func (e *Extractor) ExtractEntities(ctx context.Context, query string) ([]string, error) {
	response, err := e.completer.Reason(ctx, fmt.Sprintf(entityPromptTemplate, query))
	if err != nil {
		return nil, err
	}

	clean := strings.TrimSpace(response)
	if idx := strings.LastIndex(clean, ":"); idx >= 0 {
		clean = clean[idx+1:]
	}

	entities := make([]string, 0, e.maxEntities)
	for _, part := range strings.Split(clean, ",") {
		part = strings.TrimSpace(part)
		if len(part) > 1 {
			entities = append(entities, part)
		}
		if len(entities) == e.maxEntities {
			break
		}
	}

	e.logger.Debug("extracted entities", "count", len(entities))
	return entities, nil
}
