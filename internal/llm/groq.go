package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"ai-date-planner/internal/config"
	"ai-date-planner/internal/shared"

	openai "github.com/sashabaranov/go-openai"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	DefaultGroqModel = "llama-3.3-70b-versatile"
)

// GroqClient streams completions from Groq's OpenAI-compatible API.
type GroqClient struct {
	client *openai.Client
	model  string
}

// NewGroqClient creates a new Groq API client.
func NewGroqClient(cfg *config.Config) *GroqClient {
	return newGroqClient(cfg.GroqAPIKey, groqBaseURL, cfg.Model)
}

func newGroqClient(apiKey, baseURL, model string) *GroqClient {
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = baseURL
	if model == "" {
		model = DefaultGroqModel
	}
	return &GroqClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Name returns the provider name.
func (c *GroqClient) Name() string { return "groq" }

// Model returns the model identifier requests are sent to.
func (c *GroqClient) Model() string { return c.model }

// StreamContent sends the prompt as a single user message and yields content deltas.
func (c *GroqClient) StreamContent(ctx context.Context, prompt string) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Stream:        true,
			StreamOptions: &openai.StreamOptions{IncludeUsage: true},
		})
		if err != nil {
			yield(Fragment{}, fmt.Errorf("failed to open groq stream: %w", err))
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Fragment{}, fmt.Errorf("groq stream failed: %w", err))
				return
			}

			var frag Fragment
			if len(resp.Choices) > 0 {
				frag.Text = resp.Choices[0].Delta.Content
			}
			if resp.Usage != nil {
				frag.Usage = shared.TokenUsage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
					Model:            c.model,
				}
			}
			if !yield(frag, nil) {
				return
			}
		}
	}
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (c *GroqClient) Close() error {
	return nil
}
