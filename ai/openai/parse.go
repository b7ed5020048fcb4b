package openai

import (
	"encoding/json"
	"strings"

	"github.com/poiesic/graphrag/ai"
)

// stripFences removes markdown code fences that chat models wrap around
// JSON output despite instructions not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeList parses a model response that is expected to be a JSON list of
// T, accepting either the bare list or an object wrapping the list under one
// of wrapperKeys. Anything else yields a *ai.ParseError; there is no silent
// fallback to an empty list, so malformed output stays observable.
func decodeList[T any](response string, wrapperKeys ...string) ([]T, error) {
	raw := stripFences(response)

	var items []T
	listErr := json.Unmarshal([]byte(raw), &items)
	if listErr == nil {
		return items, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
		return nil, &ai.ParseError{Raw: raw, Err: listErr}
	}
	for _, key := range wrapperKeys {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, &ai.ParseError{Raw: raw, Err: err}
		}
		return items, nil
	}

	return nil, &ai.ParseError{Raw: raw, Err: listErr}
}
