package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/promptforge/relay/internal/domain"
)

func chatReq() domain.ChatRequest {
	return domain.ChatRequest{
		Model: "test-model",
		Messages: []domain.Message{
			{Role: "system", Content: "system"},
			{Role: "user", Content: "user"},
		},
	}
}

func TestChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("auth header = %q", auth)
		}

		var req domain.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("buffered call must not set stream")
		}

		json.NewEncoder(w).Encode(domain.ChatResponse{
			ID:     "cmpl-1",
			Object: "chat.completion",
			Choices: []domain.Choice{
				{Message: &domain.Message{Role: "assistant", Content: "Generated text."}},
			},
		})
	}))
	defer srv.Close()

	p := New("test-token", srv.URL)

	resp, err := p.ChatCompletion(context.Background(), chatReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.Choices[0].Message.Content; got != "Generated text." {
		t.Errorf("content = %q", got)
	}
}

func TestChatCompletion_UpstreamStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusInternalServerError, domain.ErrUpstream},
		{http.StatusTooManyRequests, domain.ErrUpstreamRateLimited},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		p := New("test-token", srv.URL)
		_, err := p.ChatCompletion(context.Background(), chatReq())
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
		srv.Close()
	}
}

func TestChatCompletion_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.ChatResponse{ID: "cmpl-2"})
	}))
	defer srv.Close()

	p := New("test-token", srv.URL)
	_, err := p.ChatCompletion(context.Background(), chatReq())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestChatCompletionStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req domain.ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("streaming call must set stream")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			`data: {"choices":[{"delta":{"content":"A"}}]}`,
			"",
			"event: noise",
			`data: not json at all`,
			`data: {"choices":[{"delta":{"content":"B"}}]}`,
			`data: [DONE]`,
			`data: {"choices":[{"delta":{"content":"never delivered"}}]}`,
		}
		for _, f := range frames {
			w.Write([]byte(f + "\n"))
		}
	}))
	defer srv.Close()

	p := New("test-token", srv.URL)
	chunks, errs := p.ChatCompletionStream(context.Background(), chatReq())

	var got []string
	for chunk := range chunks {
		got = append(got, chunk.DeltaContent())
	}
	if err := <-errs; err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}

	// The malformed frame is skipped, the noise line ignored, and
	// nothing after [DONE] is delivered.
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("fragments = %v, want [A B]", got)
	}
}

func TestChatCompletionStream_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := New("test-token", srv.URL)
	chunks, errs := p.ChatCompletionStream(context.Background(), chatReq())

	for range chunks {
		t.Error("no chunks expected on upstream failure")
	}
	if err := <-errs; !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestChatCompletionStream_CallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"A"}}]}` + "\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := New("test-token", srv.URL)
	chunks, errs := p.ChatCompletionStream(ctx, chatReq())

	first := <-chunks
	if first.DeltaContent() != "A" {
		t.Fatalf("first fragment = %q", first.DeltaContent())
	}

	cancel()

	// The goroutine must stop consuming and close both channels.
	for range chunks {
	}
	for range errs {
	}
}
