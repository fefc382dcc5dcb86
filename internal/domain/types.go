package domain

import "time"

// GenerateRequest is the body accepted by both generation endpoints.
type GenerateRequest struct {
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

// MaxTextLength is the upper bound on GenerateRequest.Text.
const MaxTextLength = 1000

// GenerateResponse is the buffered-mode result.
type GenerateResponse struct {
	Prompt    string    `json:"prompt"`
	Cached    bool      `json:"cached"`
	Timestamp time.Time `json:"timestamp"`
}

// StreamEvent is the unit relayed to streaming callers. Exactly one of
// three shapes is emitted: a content fragment ({content, done:false}),
// a terminal frame ({content:"", done:true, fullPrompt}), or an error
// frame ({error, done:true}).
type StreamEvent struct {
	Content    string `json:"content"`
	Done       bool   `json:"done"`
	FullPrompt string `json:"fullPrompt,omitempty"`
	Error      string `json:"error,omitempty"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int      `json:"index"`
	Message      *Message `json:"message,omitempty"`
	Delta        *Delta   `json:"delta,omitempty"`
	FinishReason string   `json:"finish_reason,omitempty"`
}

type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamChunk is one decoded SSE payload from the upstream provider.
type StreamChunk struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// DeltaContent returns the text fragment carried by the chunk, if any.
func (c StreamChunk) DeltaContent() string {
	if len(c.Choices) == 0 || c.Choices[0].Delta == nil {
		return ""
	}
	return c.Choices[0].Delta.Content
}
