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


package core

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultRelationshipType is the fallback relationship type used when a
// predicate is empty after sanitization.
const DefaultRelationshipType = "RELATES_TO"

var relTypePattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// SanitizeRelationshipType sanitizes a predicate for use as a graph
// relationship type. Only alphanumeric characters and underscores survive;
// an empty result falls back to DefaultRelationshipType.
func SanitizeRelationshipType(relType string) string {
	sanitized := relTypePattern.ReplaceAllString(relType, "")
	if sanitized == "" {
		return DefaultRelationshipType
	}
	return sanitized
}

// NormalizeTriplet trims all fields and converts the predicate to the
// UPPER_SNAKE form used for relationship types.
func NormalizeTriplet(t Triplet) Triplet {
	return Triplet{
		Subject:   strings.TrimSpace(t.Subject),
		Predicate: strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(t.Predicate)), " ", "_"),
		Object:    strings.TrimSpace(t.Object),
	}
}

// ValidateTriplet validates a Triplet according to domain rules.
//
// Validation rules:
//   - Subject, Predicate, and Object must all be non-empty after trimming
//
// The predicate is NOT required to be sanitized here; sanitization happens
// at storage time via SanitizeRelationshipType.
func ValidateTriplet(t Triplet) error {
	if strings.TrimSpace(t.Subject) == "" {
		return fmt.Errorf("%w: %w: subject", ErrInvalidTriplet, ErrEmptyTripletField)
	}
	if strings.TrimSpace(t.Predicate) == "" {
		return fmt.Errorf("%w: %w: predicate", ErrInvalidTriplet, ErrEmptyTripletField)
	}
	if strings.TrimSpace(t.Object) == "" {
		return fmt.Errorf("%w: %w: object", ErrInvalidTriplet, ErrEmptyTripletField)
	}
	return nil
}

// ValidateQueryRecord validates a QueryEmbeddingRecord before insertion.
//
// Validation rules:
//   - SQLQuery must not be empty after trimming
//   - Embedding must be present
//
// NOT validated:
//   - Version and IsActive (assigned by the store)
//   - Id (assigned by the store when zero)
func ValidateQueryRecord(record *QueryEmbeddingRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidQueryRecord)
	}
	if strings.TrimSpace(record.SQLQuery) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQueryRecord, ErrEmptySQLQuery)
	}
	if len(record.Embedding) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidQueryRecord, ErrEmptyEmbedding)
	}
	return nil
}
