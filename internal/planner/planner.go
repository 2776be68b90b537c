package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ai-date-planner/internal/llm"
	"ai-date-planner/internal/shared"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	// MessageInvalidJSON is returned when the provider's text is not JSON.
	MessageInvalidJSON = "Invalid JSON format returned from provider"

	agentName = "DatePlanner"
)

// PlanResponse is relayed to the caller as-is.
// Success carries GeneratedPlan; a parse failure carries Message and RawOutput.
type PlanResponse struct {
	Status        string          `json:"status"`
	GeneratedPlan json.RawMessage `json:"generated_plan,omitempty"`
	Message       string          `json:"message,omitempty"`
	RawOutput     *string         `json:"raw_output,omitempty"`
}

// UsageRecorder receives metadata for every completed provider exchange.
type UsageRecorder interface {
	RecordMeta(meta shared.AgentMeta) error
}

// Planner turns date preferences into a plan generated by the provider.
type Planner struct {
	streamer llm.TextStreamer
	timeout  time.Duration
	recorder UsageRecorder
	logger   *slog.Logger
}

// NewPlanner creates a new Planner. A zero timeout leaves the provider call
// bounded only by the caller's context; recorder may be nil.
func NewPlanner(streamer llm.TextStreamer, timeout time.Duration, recorder UsageRecorder, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		streamer: streamer,
		timeout:  timeout,
		recorder: recorder,
		logger:   logger.With(slog.String("component", "planner")),
	}
}

// GeneratePlan builds the prompt, streams the provider's answer and parses it.
// A non-JSON answer is not an error: it comes back as a StatusError response.
// Provider failures are returned as *ProviderError.
func (p *Planner) GeneratePlan(ctx context.Context, req PlanRequest) (PlanResponse, error) {
	start := time.Now()

	prompt, err := buildDatePrompt(Normalize(req))
	if err != nil {
		return PlanResponse{}, fmt.Errorf("failed to build prompt: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	resp, err := llm.Collect(p.streamer.StreamContent(ctx, prompt))
	if err != nil {
		return PlanResponse{}, &ProviderError{
			Provider: p.streamer.Name(),
			Timeout:  errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded),
			Err:      err,
		}
	}

	latency := time.Since(start)
	p.recordUsage(ctx, resp.Usage, latency)

	plan := ParsePlan(resp.Content)
	if plan.Status == StatusError {
		p.logger.WarnContext(ctx, "provider returned non-JSON output",
			slog.String("provider", p.streamer.Name()),
			slog.Int("output_bytes", len(resp.Content)),
		)
	}
	return plan, nil
}

// ParsePlan decodes the accumulated provider text.
func ParsePlan(text string) PlanResponse {
	if !json.Valid([]byte(text)) {
		return PlanResponse{
			Status:    StatusError,
			Message:   MessageInvalidJSON,
			RawOutput: &text,
		}
	}
	return PlanResponse{
		Status:        StatusSuccess,
		GeneratedPlan: json.RawMessage(text),
	}
}

func (p *Planner) recordUsage(ctx context.Context, usage shared.TokenUsage, latency time.Duration) {
	if usage.Model == "" {
		usage.Model = p.streamer.Model()
	}

	p.logger.InfoContext(ctx, "plan generated",
		slog.String("provider", p.streamer.Name()),
		slog.String("model", usage.Model),
		slog.Int("prompt_tokens", usage.PromptTokens),
		slog.Int("completion_tokens", usage.CompletionTokens),
		slog.Duration("latency", latency),
	)

	if p.recorder == nil {
		return
	}
	meta := shared.AgentMeta{
		AgentName: agentName,
		Provider:  p.streamer.Name(),
		Usage:     usage,
		Latency:   latency,
	}
	if err := p.recorder.RecordMeta(meta); err != nil {
		p.logger.WarnContext(ctx, "failed to record usage", slog.Any("error", err))
	}
}
