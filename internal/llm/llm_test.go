package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-date-planner/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
)

func fragmentsOf(frags []Fragment, tailErr error) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		for _, f := range frags {
			if !yield(f, nil) {
				return
			}
		}
		if tailErr != nil {
			yield(Fragment{}, tailErr)
		}
	}
}

func TestCollect(t *testing.T) {
	t.Run("ConcatenatesInOrder", func(t *testing.T) {
		resp, err := Collect(fragmentsOf([]Fragment{
			{Text: `{"activity_1":`},
			{Text: ""},
			{Text: `{"title":"Dinner"}}`, Usage: shared.TokenUsage{PromptTokens: 10, TotalTokens: 15}},
			{Text: "", Usage: shared.TokenUsage{PromptTokens: 10, CompletionTokens: 8, TotalTokens: 18}},
		}, nil))
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if resp.Content != `{"activity_1":{"title":"Dinner"}}` {
			t.Errorf("Unexpected content: %q", resp.Content)
		}
		if resp.Usage.TotalTokens != 18 || resp.Usage.CompletionTokens != 8 {
			t.Errorf("Expected the last reported usage, got %+v", resp.Usage)
		}
	})

	t.Run("EmptyStream", func(t *testing.T) {
		resp, err := Collect(fragmentsOf(nil, nil))
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if resp.Content != "" {
			t.Errorf("Expected empty content, got %q", resp.Content)
		}
	})

	t.Run("StopsAtError", func(t *testing.T) {
		boom := errors.New("connection reset")
		resp, err := Collect(fragmentsOf([]Fragment{{Text: "partial"}}, boom))
		if !errors.Is(err, boom) {
			t.Fatalf("Expected %v, got %v", boom, err)
		}
		if resp.Content != "partial" {
			t.Errorf("Expected partial content to be kept, got %q", resp.Content)
		}
	})
}

type fakeGeminiIterator struct {
	responses []*genai.GenerateContentResponse
	err       error
	calls     int
}

func (f *fakeGeminiIterator) Next() (*genai.GenerateContentResponse, error) {
	if f.calls < len(f.responses) {
		r := f.responses[f.calls]
		f.calls++
		return r, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return nil, iterator.Done
}

func textChunk(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, genai.Text(p))
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content}},
	}
}

func TestStreamGeminiFragments(t *testing.T) {
	t.Run("YieldsTextAndUsage", func(t *testing.T) {
		last := textChunk("ly.")
		last.UsageMetadata = &genai.UsageMetadata{PromptTokenCount: 120, CandidatesTokenCount: 30, TotalTokenCount: 150}
		it := &fakeGeminiIterator{responses: []*genai.GenerateContentResponse{
			textChunk("Sorry, ", "I cannot "),
			{Candidates: []*genai.Candidate{{}}},
			textChunk("help"),
			last,
		}}

		seq := func(yield func(Fragment, error) bool) {
			streamGeminiFragments(it, DefaultGeminiModel, yield)
		}
		resp, err := Collect(seq)
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if resp.Content != "Sorry, I cannot helply." {
			t.Errorf("Unexpected content: %q", resp.Content)
		}
		if resp.Usage.PromptTokens != 120 || resp.Usage.CompletionTokens != 30 || resp.Usage.TotalTokens != 150 {
			t.Errorf("Unexpected usage: %+v", resp.Usage)
		}
		if resp.Usage.Model != DefaultGeminiModel {
			t.Errorf("Expected model %s, got %s", DefaultGeminiModel, resp.Usage.Model)
		}
	})

	t.Run("PropagatesError", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		it := &fakeGeminiIterator{
			responses: []*genai.GenerateContentResponse{textChunk("{")},
			err:       boom,
		}
		seq := func(yield func(Fragment, error) bool) {
			streamGeminiFragments(it, DefaultGeminiModel, yield)
		}
		if _, err := Collect(seq); !errors.Is(err, boom) {
			t.Fatalf("Expected wrapped %v, got %v", boom, err)
		}
	})

	t.Run("StopsWhenConsumerStops", func(t *testing.T) {
		it := &fakeGeminiIterator{responses: []*genai.GenerateContentResponse{textChunk("a"), textChunk("b")}}
		seq := func(yield func(Fragment, error) bool) {
			streamGeminiFragments(it, DefaultGeminiModel, yield)
		}
		for range seq {
			break
		}
		if it.calls != 1 {
			t.Errorf("Expected iteration to stop after one chunk, got %d calls", it.calls)
		}
	})
}

func TestGroqClientStreamContent(t *testing.T) {
	chunks := []string{
		`{"id":"1","object":"chat.completion.chunk","model":"llama","choices":[{"index":0,"delta":{"role":"assistant","content":"{\"activity_1\":"}}]}`,
		`{"id":"1","object":"chat.completion.chunk","model":"llama","choices":[{"index":0,"delta":{"content":"{}}"}}]}`,
		`{"id":"1","object":"chat.completion.chunk","model":"llama","choices":[],"usage":{"prompt_tokens":40,"completion_tokens":6,"total_tokens":46}}`,
	}

	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := newGroqClient("groq_key", srv.URL, "")
	resp, err := Collect(client.StreamContent(context.Background(), "plan a date"))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if gotPath != "/chat/completions" {
		t.Errorf("Expected request to /chat/completions, got %s", gotPath)
	}
	if gotAuth != "Bearer groq_key" {
		t.Errorf("Expected bearer auth header, got %q", gotAuth)
	}
	if resp.Content != `{"activity_1":{}}` {
		t.Errorf("Unexpected content: %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 46 || resp.Usage.Model != DefaultGroqModel {
		t.Errorf("Unexpected usage: %+v", resp.Usage)
	}
}

func TestGroqClientStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	client := newGroqClient("bad_key", srv.URL, "llama-3.1-8b-instant")
	if client.Model() != "llama-3.1-8b-instant" {
		t.Errorf("Expected model override, got %s", client.Model())
	}
	if _, err := Collect(client.StreamContent(context.Background(), "plan a date")); err == nil {
		t.Fatal("Expected an error for a rejected request, got nil")
	}
}
