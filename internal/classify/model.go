package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"accent-detector/internal/domain"
)

// systemPrompt fixes the model persona for classification calls.
const systemPrompt = "You are an expert English accent classifier."

// promptTemplate is the fixed instruction sent for every transcript. The
// model must answer with JSON only.
const promptTemplate = `You are an expert linguist specialized in identifying English accents.

Based on the following transcript of a speaker, classify their English accent into one of these categories:
- British
- American
- Australian
- Canadian
- Irish
- Scottish
- Indian
- Other

Also provide a confidence score between 0 and 100 that the speaker is a native or fluent English speaker with that accent.

Transcript:
"""
%s
"""

Return the response as JSON only, with no surrounding prose:
{
  "accent": "Accent name",
  "confidence": "Confidence score as percentage",
  "summary": "Brief explanation"
}`

// maxCompletionTokens bounds the structured response length.
const maxCompletionTokens = 200

// CompletionError reports a full completion-call failure (transport, auth).
// It is distinct from malformed output, which is recovered internally.
type CompletionError struct {
	Err error
}

// Error formats the completion failure.
func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion service failed: %v", e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *CompletionError) Unwrap() error {
	return e.Err
}

// completer is the narrow slice of the chat completion client used here.
type completer interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Model classifies transcripts with a structured chat completion.
type Model struct {
	client completer
	model  string
}

// NewModel builds the production model-based classifier.
func NewModel(apiKey, model string) *Model {
	return &Model{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// NewModelForTests builds a classifier with an injected completion client.
func NewModelForTests(client completer, model string) *Model {
	return &Model{client: client, model: model}
}

// Classify sends the fixed prompt and parses the structured response.
// Malformed model output never escapes as an error; only a full call
// failure returns CompletionError so callers can fall back.
func (m *Model) Classify(ctx context.Context, transcript string) (domain.Classification, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, transcript)},
		},
		// The client omits a literal zero temperature from the request;
		// the smallest positive value keeps sampling deterministic.
		Temperature: math.SmallestNonzeroFloat32,
		MaxTokens:   maxCompletionTokens,
	})
	if err != nil {
		return domain.Classification{}, &CompletionError{Err: err}
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	return parseModelOutput(content), nil
}

// modelOutput is the JSON structure expected from the model. Confidence is
// kept raw because models return it as a number or a percentage string.
type modelOutput struct {
	Accent     string          `json:"accent"`
	Confidence json.RawMessage `json:"confidence"`
	Summary    string          `json:"summary"`
}

// parseModelOutput converts raw completion text into a Classification.
// Malformed JSON or a missing accent key degrades to Unknown with a
// diagnostic summary instead of raising.
func parseModelOutput(raw string) domain.Classification {
	text := stripFences(raw)

	var out modelOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return domain.Classification{
			Accent:     domain.AccentUnknown,
			Confidence: 0,
			Summary:    fmt.Sprintf("model returned unparseable output: %s", truncate(text, 160)),
			Strategy:   domain.StrategyModel,
		}
	}
	if strings.TrimSpace(out.Accent) == "" {
		return domain.Classification{
			Accent:     domain.AccentUnknown,
			Confidence: 0,
			Summary:    "model output is missing the accent category",
			Strategy:   domain.StrategyModel,
		}
	}

	return domain.Classification{
		Accent:     domain.ParseAccent(out.Accent),
		Confidence: parseConfidence(out.Confidence),
		Summary:    out.Summary,
		Strategy:   domain.StrategyModel,
	}
}

// stripFences removes markdown code fences from model output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// truncate bounds diagnostic snippets embedded in summaries.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
