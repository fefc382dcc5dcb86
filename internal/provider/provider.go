// Package provider defines the upstream text-generation contract. A
// provider produces either one buffered completion or a lazy, finite,
// non-restartable sequence of chunks ended by channel close (normal end)
// or an error on the error channel.
package provider

import (
	"context"

	"github.com/promptforge/relay/internal/domain"
)

type Provider interface {
	ID() string

	// ChatCompletion issues a single buffered completion call.
	ChatCompletion(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)

	// ChatCompletionStream issues a streaming completion call. Chunks
	// arrive in upstream order; the chunk channel closes on normal end
	// of stream. At most one error is sent before both channels close.
	ChatCompletionStream(ctx context.Context, req domain.ChatRequest) (<-chan domain.StreamChunk, <-chan error)
}
