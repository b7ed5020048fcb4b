package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/graphrag/ai"
	"github.com/poiesic/graphrag/scrub"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Completer implements ai.Completer using OpenAI-compatible chat APIs.
type Completer struct {
	client        llms.Model
	chatModel     string
	reasonerModel string
	scrubber      *scrub.Scrubber
	logger        *slog.Logger
}

// newCompleter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCompleter(config *ai.Config, scrubber *scrub.Scrubber) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.BaseURL),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Completer{
		client:        client,
		chatModel:     config.ChatModel,
		reasonerModel: config.ReasonerModel,
		scrubber:      scrubber,
		logger:        slog.Default().With("component", "openai-completer"),
	}, nil
}

// NewCompleter creates a new completion client using the provided
// configuration. The scrubber may be nil to disable PII scrubbing entirely.
//
// Returns ai.Completer interface to enforce abstraction.
func NewCompleter(config *ai.Config, scrubber *scrub.Scrubber) (ai.Completer, error) {
	return newCompleter(config, scrubber)
}

// Complete sends the prompt to the chat model and returns the response text.
// The prompt is scrubbed before leaving the process unless disabled per call.
// The system prompt, when present, leads the message list so providers with
// prefix caching can reuse the static context.
func (c *Completer) Complete(ctx context.Context, prompt string, opts ...ai.CompleteOption) (string, error) {
	resolved := ai.ResolveCompleteOptions(opts...)

	safePrompt := prompt
	if !resolved.SkipScrub && c.scrubber != nil {
		safePrompt = c.scrubber.Scrub(prompt)
	}

	content := make([]llms.MessageContent, 0, 2)
	if resolved.SystemPrompt != "" {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(resolved.SystemPrompt)},
		})
	}
	content = append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(safePrompt)},
	})

	targetModel := c.chatModel
	if resolved.Model != "" {
		targetModel = resolved.Model
	}

	response, err := c.client.GenerateContent(ctx, content, llms.WithModel(targetModel))
	if err != nil {
		c.logger.Error("completion call failed", "model", targetModel, "err", err)
		return "", fmt.Errorf("%w: %w", ai.ErrCompletion, err)
	}

	if len(response.Choices) == 0 || response.Choices[0].Content == "" {
		c.logger.Warn("completion returned no content", "model", targetModel)
		return "", nil
	}

	return response.Choices[0].Content, nil
}

// Reason sends the prompt to the reasoning model.
func (c *Completer) Reason(ctx context.Context, prompt string) (string, error) {
	return c.Complete(ctx, prompt, ai.WithModel(c.reasonerModel))
}
