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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// BaseURL is the base URL for the OpenAI-compatible API.
	// Example: "https://api.deepseek.com/v1"
	BaseURL string

	// APIKey authenticates against the provider. Use "none" for local
	// OpenAI-compatible services that don't require authentication.
	APIKey string

	// ChatModel is the model identifier for chat completions.
	ChatModel string

	// ReasonerModel is the model identifier for reasoning tasks such as
	// query entity extraction.
	ReasonerModel string

	// EmbeddingModel is the model identifier for text embeddings.
	EmbeddingModel string

	// MaxEntities bounds how many entities an EntityExtractor returns.
	// Default: 8
	MaxEntities int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBaseURL sets the provider base URL.
func WithBaseURL(url string) ConfigOption {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithReasonerModel sets the reasoning model identifier.
func WithReasonerModel(model string) ConfigOption {
	return func(c *Config) {
		c.ReasonerModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithMaxEntities sets the entity extraction bound.
func WithMaxEntities(n int) ConfigOption {
	return func(c *Config) {
		c.MaxEntities = n
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "http://localhost:11434/v1",
		APIKey:         "none",
		ChatModel:      "deepseek-chat",
		ReasonerModel:  "deepseek-reasoner",
		EmbeddingModel: "text-embedding-3-small",
		MaxEntities:    8,
	}
}

// NewConfig creates a Config with default values and applies the provided
// options. This is the recommended way to create a Config.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithBaseURL("https://api.deepseek.com"),
//	    ai.WithAPIKey(key),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the base URL if missing, which is required by
// most OpenAI-compatible APIs.
func (c *Config) Normalize() {
	if c.BaseURL != "" && !strings.HasSuffix(c.BaseURL, "/v1") {
		c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
		c.BaseURL = c.BaseURL + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.BaseURL == "" {
		return errors.New("ai config: BaseURL is required")
	}
	if c.APIKey == "" {
		return errors.New("ai config: APIKey is required")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.ReasonerModel == "" {
		c.ReasonerModel = c.ChatModel
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.MaxEntities <= 0 {
		c.MaxEntities = 8
	}
	return nil
}
