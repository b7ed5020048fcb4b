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


package ingestion

import (
	"context"
	"strings"

	"github.com/poiesic/graphrag/core"
)

// Chunker splits source text into chunks for embedding.
type Chunker interface {
	// Chunk splits text into ordered chunks attributed to sourceID.
	Chunk(text, sourceID string) []core.Chunk
}

// DocumentParser converts binary document formats (PDF, DOCX, XLSX) into
// plain text. Implementations typically shell out to an external converter
// service; the pipeline only needs the text back.
type DocumentParser interface {
	// Parse extracts the full text of the document at path.
	Parse(ctx context.Context, path string) (string, error)
}

// ParagraphChunker splits plain text on blank lines. Each non-empty
// paragraph becomes one chunk.
type ParagraphChunker struct{}

var _ Chunker = ParagraphChunker{}

// Chunk splits text into paragraph chunks.
func (ParagraphChunker) Chunk(text, sourceID string) []core.Chunk {
	paragraphs := strings.Split(text, "\n\n")
	chunks := make([]core.Chunk, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		chunks = append(chunks, core.Chunk{
			Text:     paragraph,
			SourceID: sourceID,
			Index:    len(chunks),
		})
	}
	return chunks
}
