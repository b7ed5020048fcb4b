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


// Package ai provides abstractions for the AI services used by graphrag.
//
// This package defines interfaces for embeddings, completions, and the
// LLM-driven extraction tasks (triplets, query entities, SQL snippets).
// It follows the dependency inversion principle: ingestion and search
// depend on these abstractions rather than concrete implementations.
//
// Concrete implementations live in subpackages:
//
//   - ai/openai: OpenAI-compatible services via langchaingo
//   - ai/mock: test doubles with injectable behavior
//
// A Provider bundles all services and is constructed exactly once, in the
// composition root, then passed by reference to every consumer.
package ai
