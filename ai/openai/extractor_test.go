package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/graphrag/ai"
	"github.com/poiesic/graphrag/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTriplets(t *testing.T) {
	ctx := context.Background()

	t.Run("bare list response", func(t *testing.T) {
		completer := mock.NewMockCompleter()
		completer.CompleteFunc = func(ctx context.Context, prompt string, opts ...ai.CompleteOption) (string, error) {
			return `[{"subject":"Dr. Smith","predicate":"prescribed","object":"Aspirin"}]`, nil
		}

		extractor := NewExtractor(completer, 8)
		triplets, err := extractor.ExtractTriplets(ctx, "Dr. Smith prescribed Aspirin.")
		require.NoError(t, err)
		require.Len(t, triplets, 1)
		assert.Equal(t, "Dr. Smith", triplets[0].Subject)
		assert.Equal(t, "prescribed", triplets[0].Predicate)
		assert.Equal(t, "Aspirin", triplets[0].Object)
	})

	t.Run("wrapped and fenced response", func(t *testing.T) {
		completer := mock.NewMockCompleter()
		completer.CompleteFunc = func(ctx context.Context, prompt string, opts ...ai.CompleteOption) (string, error) {
			return "```json\n{\"triplets\":[{\"subject\":\"a\",\"predicate\":\"b\",\"object\":\"c\"}]}\n```", nil
		}

		extractor := NewExtractor(completer, 8)
		triplets, err := extractor.ExtractTriplets(ctx, "text")
		require.NoError(t, err)
		assert.Len(t, triplets, 1)
	})

	t.Run("malformed response yields parse error", func(t *testing.T) {
		completer := mock.NewMockCompleter()
		completer.CompleteFunc = func(ctx context.Context, prompt string, opts ...ai.CompleteOption) (string, error) {
			return `Sure! Here are the triplets you asked for.`, nil
		}

		extractor := NewExtractor(completer, 8)
		_, err := extractor.ExtractTriplets(ctx, "text")
		require.Error(t, err)
		assert.True(t, ai.IsParseError(err))
	})

	t.Run("transport error passes through", func(t *testing.T) {
		boom := errors.New("connection refused")
		completer := mock.NewMockCompleter()
		completer.CompleteFunc = func(ctx context.Context, prompt string, opts ...ai.CompleteOption) (string, error) {
			return "", boom
		}

		extractor := NewExtractor(completer, 8)
		_, err := extractor.ExtractTriplets(ctx, "text")
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.False(t, ai.IsParseError(err))
	})
}

func TestExtractSQLQueries(t *testing.T) {
	ctx := context.Background()

	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, prompt string, opts ...ai.CompleteOption) (string, error) {
		return `{"queries":[{"sql_query":"SELECT * FROM patients WHERE id = $1","query_type":"SELECT","tables":["patients"],"columns":["*"]}]}`, nil
	}

	extractor := NewExtractor(completer, 8)
	queries, err := extractor.ExtractSQLQueries(ctx, "some document")
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "SELECT", queries[0].QueryType)
	assert.Equal(t, []string{"patients"}, queries[0].Tables)
}

func TestExtractEntities(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{
			name:     "plain comma list",
			response: "John Doe, Aspirin, visit1",
			want:     []string{"John Doe", "Aspirin", "visit1"},
		},
		{
			name:     "preamble with colon",
			response: "The key entities are: John Doe, Aspirin",
			want:     []string{"John Doe", "Aspirin"},
		},
		{
			name:     "single-character noise is dropped",
			response: "John Doe, a, Aspirin",
			want:     []string{"John Doe", "Aspirin"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := mock.NewMockCompleter()
			completer.ReasonFunc = func(ctx context.Context, prompt string) (string, error) {
				return tt.response, nil
			}

			extractor := NewExtractor(completer, 8)
			entities, err := extractor.ExtractEntities(ctx, "query")
			require.NoError(t, err)
			assert.Equal(t, tt.want, entities)
		})
	}

	t.Run("caps entity count", func(t *testing.T) {
		completer := mock.NewMockCompleter()
		completer.ReasonFunc = func(ctx context.Context, prompt string) (string, error) {
			return "e1, e2, e3, e4, e5, e6, e7, e8, e9, e10", nil
		}

		extractor := NewExtractor(completer, 8)
		entities, err := extractor.ExtractEntities(ctx, "query")
		require.NoError(t, err)
		assert.Len(t, entities, 8)
	})

	t.Run("uses the reasoning model", func(t *testing.T) {
		completer := mock.NewMockCompleter()
		extractor := NewExtractor(completer, 8)
		_, err := extractor.ExtractEntities(ctx, "query")
		require.NoError(t, err)
		assert.Equal(t, 1, completer.ReasonCallCount())
		assert.Zero(t, completer.CompleteCallCount())
	})
}
