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

// Package config provides environment-driven settings for the graphrag module.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Settings holds the full runtime configuration.
// Load populates it from the environment; zero-dependency callers (tests)
// can construct it directly.
type Settings struct {
	// PostgreSQL / pgvector
	PGHost string
	PGPort string
	PGUser string
	PGPwd  string
	PGDB   string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPwd      string
	Neo4jDatabase string

	// Provider (OpenAI-compatible)
	APIKey         string
	BaseURL        string
	ChatModel      string
	ReasonerModel  string
	EmbeddingModel string

	// Ingestion
	EmbeddingBatchSize int
	EmbeddingCacheSize int
	EntityCacheSize    int
	TripletPoolSize    int

	// Search
	VectorTopK int
	GraphTopK  int

	// File validation
	AllowedExtensions []string
	MaxUploadSizeMB   int
}

// Configuration errors
var (
	// ErrMissingPGPassword indicates PG_PWD was not set.
	ErrMissingPGPassword = errors.New("config: PG_PWD is required")

	// ErrMissingNeo4jPassword indicates NEO4J_PWD was not set.
	ErrMissingNeo4jPassword = errors.New("config: NEO4J_PWD is required")

	// ErrMissingAPIKey indicates the provider API key was not set.
	ErrMissingAPIKey = errors.New("config: GRAPHRAG_API_KEY is required")
)

// Load reads settings from the environment, applying defaults for anything
// unset. It does not validate credentials; call Validate before connecting.
func Load() *Settings {
	return &Settings{
		PGHost: getenv("PG_HOST", "127.0.0.1"),
		PGPort: getenv("PG_PORT", "5432"),
		PGUser: getenv("PG_USER", "postgres"),
		PGPwd:  os.Getenv("PG_PWD"),
		PGDB:   getenv("PG_DB", "graphrag"),

		Neo4jURI:      getenv("NEO4J_URI", "bolt://127.0.0.1:7687"),
		Neo4jUser:     getenv("NEO4J_USER", "neo4j"),
		Neo4jPwd:      os.Getenv("NEO4J_PWD"),
		Neo4jDatabase: os.Getenv("NEO4J_DATABASE"),

		APIKey:         os.Getenv("GRAPHRAG_API_KEY"),
		BaseURL:        getenv("GRAPHRAG_BASE_URL", "https://api.deepseek.com/v1"),
		ChatModel:      getenv("GRAPHRAG_CHAT_MODEL", "deepseek-chat"),
		ReasonerModel:  getenv("GRAPHRAG_REASONER_MODEL", "deepseek-reasoner"),
		EmbeddingModel: getenv("GRAPHRAG_EMBED_MODEL", "text-embedding-3-small"),

		EmbeddingBatchSize: getint("GRAPHRAG_BATCH_SIZE", 10),
		EmbeddingCacheSize: getint("GRAPHRAG_EMBED_CACHE_SIZE", 1000),
		EntityCacheSize:    getint("GRAPHRAG_ENTITY_CACHE_SIZE", 1000),
		TripletPoolSize:    getint("GRAPHRAG_TRIPLET_POOL_SIZE", 4),

		VectorTopK: getint("GRAPHRAG_VECTOR_TOP_K", 5),
		GraphTopK:  getint("GRAPHRAG_GRAPH_TOP_K", 10),

		AllowedExtensions: getlist("GRAPHRAG_ALLOWED_EXTENSIONS",
			[]string{".pdf", ".docx", ".xlsx", ".csv", ".txt", ".md", ".sql", ".json", ".xml"}),
		MaxUploadSizeMB: getint("GRAPHRAG_MAX_UPLOAD_SIZE_MB", 100),
	}
}

// Validate checks that the credentials needed to reach the backends are set.
func (s *Settings) Validate() error {
	if s.PGPwd == "" {
		return ErrMissingPGPassword
	}
	if s.Neo4jPwd == "" {
		return ErrMissingNeo4jPassword
	}
	if s.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// PGConnString renders the Postgres DSN.
func (s *Settings) PGConnString() string {
	return "postgres://" + s.PGUser + ":" + s.PGPwd + "@" + s.PGHost + ":" + s.PGPort + "/" + s.PGDB
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getlist(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
