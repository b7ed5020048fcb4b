// Package openai implements the ai interfaces against any OpenAI-compatible
// API (DeepSeek, Ollama, vLLM, OpenAI itself) via langchaingo.
//
// The embedding backend is created lazily on first use; chat clients are
// created at construction time. All prompt text passes through the PII
// scrubber before leaving the process unless a call explicitly opts out.
package openai
