// Package tagger classifies chunk text into topic tags and an importance
// class using GPT-4o. Tags feed retrieval topic filters and the match
// scorer's importance weights. Tagging is best-effort: a failure leaves
// the chunk untagged, it never aborts ingestion.
package tagger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
)

// DefaultMaxTokens is the maximum content length before truncation (in
// estimated tokens).
const DefaultMaxTokens = 4000

// Tags is the classification produced for a span of text.
type Tags struct {
	// Topics are short lowercase topic labels, e.g. "golang", "sql",
	// "system-design".
	Topics []string `json:"topics"`
	// Importance is "required-skill", "nice-to-have", or empty when the
	// text states no requirement.
	Importance string `json:"importance"`
}

// Tagger produces tags using the chat completion API in JSON mode.
type Tagger struct {
	client    *openai.Client
	maxTokens int
	logger    *slog.Logger
}

// New creates a tagger with the given OpenAI client. Optional maxTokens
// sets the truncation limit (defaults to DefaultMaxTokens).
func New(client *openai.Client, logger *slog.Logger, maxTokens ...int) *Tagger {
	limit := DefaultMaxTokens
	if len(maxTokens) > 0 && maxTokens[0] > 0 {
		limit = maxTokens[0]
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tagger{client: client, maxTokens: limit, logger: logger}
}

// Tag classifies a span of career or job-description text.
func (t *Tagger) Tag(ctx context.Context, text string) (*Tags, error) {
	prompt := fmt.Sprintf(`Classify this career/job content excerpt.

1. List up to 5 short lowercase topic tags (skills, technologies, or career areas mentioned).
2. If the excerpt states a job requirement, classify its importance:
   "required-skill" for must-have requirements, "nice-to-have" for preferred or bonus
   qualifications. Use an empty string when the excerpt states no requirement.

Excerpt:
%s

Respond in JSON format:
{"topics": ["tag1", "tag2"], "importance": "required-skill"}`, t.truncate(text))

	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModelGPT4o,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	var tags Tags
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &tags); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &tags, nil
}

// truncate caps content length using the rough 4 characters per token
// estimate.
func (t *Tagger) truncate(content string) string {
	maxChars := t.maxTokens * 4
	if len(content) <= maxChars {
		return content
	}
	t.logger.Warn("truncating content for tagging",
		"chars", len(content), "max_chars", maxChars)
	return content[:maxChars]
}
