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

import "errors"

// Domain validation errors
var (
	// ErrInvalidTriplet indicates a Triplet failed validation.
	ErrInvalidTriplet = errors.New("invalid triplet")

	// ErrEmptyTripletField indicates a triplet field is empty after trimming.
	ErrEmptyTripletField = errors.New("triplet field cannot be empty")

	// ErrInvalidQueryRecord indicates a QueryEmbeddingRecord failed validation.
	ErrInvalidQueryRecord = errors.New("invalid query embedding record")

	// ErrEmptySQLQuery indicates the SQLQuery field is empty.
	ErrEmptySQLQuery = errors.New("sql query cannot be empty")

	// ErrEmptyEmbedding indicates a record is missing its embedding vector.
	ErrEmptyEmbedding = errors.New("embedding cannot be empty")
)
