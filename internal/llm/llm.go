package llm

import (
	"context"
	"iter"
	"strings"

	"ai-date-planner/internal/shared"
)

// Fragment is one incremental piece of a streamed provider response.
// Usage is set on fragments that carry token counts; providers report
// cumulative totals, so the last non-zero value wins.
type Fragment struct {
	Text  string
	Usage shared.TokenUsage
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextStreamer streams generated text for a single-turn prompt.
// The returned sequence is finite and can only be ranged over once.
type TextStreamer interface {
	StreamContent(ctx context.Context, prompt string) iter.Seq2[Fragment, error]
	Name() string
	Model() string
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// Collect drains a fragment stream and concatenates the text in arrival order.
// It stops at the first error and returns it together with what was read so far.
func Collect(fragments iter.Seq2[Fragment, error]) (ContentResponse, error) {
	var (
		sb    strings.Builder
		usage shared.TokenUsage
	)
	for frag, err := range fragments {
		if err != nil {
			return ContentResponse{Content: sb.String(), Usage: usage}, err
		}
		sb.WriteString(frag.Text)
		if !frag.Usage.IsZero() {
			usage = frag.Usage
		}
	}
	return ContentResponse{Content: sb.String(), Usage: usage}, nil
}
