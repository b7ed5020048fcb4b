package ai

// CompleteOptions holds resolved per-call settings for Completer.Complete.
type CompleteOptions struct {
	// SystemPrompt, when non-empty, is sent as the leading message so
	// providers with prefix caching can reuse the static context.
	SystemPrompt string

	// Model overrides the configured chat model when non-empty.
	Model string

	// SkipScrub disables PII scrubbing for this call.
	SkipScrub bool
}

// CompleteOption configures a single Complete call.
type CompleteOption func(*CompleteOptions)

// WithSystemPrompt sets the system prompt sent as the leading message.
func WithSystemPrompt(prompt string) CompleteOption {
	return func(o *CompleteOptions) {
		o.SystemPrompt = prompt
	}
}

// WithModel overrides the model for this call.
func WithModel(model string) CompleteOption {
	return func(o *CompleteOptions) {
		o.Model = model
	}
}

// WithoutScrubbing disables PII scrubbing of the prompt for this call.
// Use only for text that is already scrubbed or never left the process.
func WithoutScrubbing() CompleteOption {
	return func(o *CompleteOptions) {
		o.SkipScrub = true
	}
}

// ResolveCompleteOptions applies opts to a zero-valued CompleteOptions.
func ResolveCompleteOptions(opts ...CompleteOption) CompleteOptions {
	var resolved CompleteOptions
	for _, opt := range opts {
		opt(&resolved)
	}
	return resolved
}
