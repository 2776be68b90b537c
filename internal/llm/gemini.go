package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"ai-date-planner/internal/config"
	"ai-date-planner/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// responseIterator is the part of genai.GenerateContentResponseIterator we consume.
type responseIterator interface {
	Next() (*genai.GenerateContentResponse, error)
}

// GeminiClient streams completions from the Google Gemini API.
type GeminiClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	model := client.GenerativeModel(modelName)
	// Plain text; the prompt itself asks for JSON
	model.ResponseMIMEType = "text/plain"

	return &GeminiClient{client: client, model: model, modelName: modelName}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string { return "gemini" }

// Model returns the model identifier requests are sent to.
func (c *GeminiClient) Model() string { return c.modelName }

// StreamContent sends the prompt as a single user turn and yields text fragments as they arrive.
func (c *GeminiClient) StreamContent(ctx context.Context, prompt string) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		it := c.model.GenerateContentStream(ctx, genai.Text(prompt))
		streamGeminiFragments(it, c.modelName, yield)
	}
}

// Close closes the underlying Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func streamGeminiFragments(it responseIterator, model string, yield func(Fragment, error) bool) {
	for {
		resp, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return
		}
		if err != nil {
			yield(Fragment{}, fmt.Errorf("gemini stream failed: %w", err))
			return
		}

		frag := Fragment{Text: responseText(resp)}
		if u := resp.UsageMetadata; u != nil {
			frag.Usage = shared.TokenUsage{
				PromptTokens:     int(u.PromptTokenCount),
				CompletionTokens: int(u.CandidatesTokenCount),
				TotalTokens:      int(u.TotalTokenCount),
				Model:            model,
			}
		}
		if !yield(frag, nil) {
			return
		}
	}
}

// responseText joins the text parts of the first candidate. Chunks without
// text (safety ratings, usage-only chunks) yield "".
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return text
}
