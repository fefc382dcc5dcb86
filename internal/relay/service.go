// Package relay orchestrates prompt generation: validation, cache
// lookup, the upstream call, output sanitization and cache write-through.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/promptforge/relay/internal/cache"
	"github.com/promptforge/relay/internal/domain"
	"github.com/promptforge/relay/internal/metrics"
	"github.com/promptforge/relay/internal/provider"
	"github.com/promptforge/relay/internal/sanitize"
	"github.com/promptforge/relay/internal/telemetry"
)

// streamFailureMessage is the stable error string delivered in a
// terminal stream frame when generation fails after headers are sent.
const streamFailureMessage = "Failed to generate prompt. Please try again."

type Config struct {
	Provider    provider.Provider
	Cache       cache.Cache
	Model       string
	StreamModel string
	MaxTokens   int
	Temperature float64

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

type Service struct {
	provider    provider.Provider
	cache       cache.Cache
	model       string
	streamModel string
	maxTokens   int
	temperature float64
	now         func() time.Time
}

func New(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		provider:    cfg.Provider,
		cache:       cfg.Cache,
		model:       cfg.Model,
		streamModel: cfg.StreamModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		now:         now,
	}
}

// Validate checks a generation request without touching the upstream.
func Validate(req domain.GenerateRequest) error {
	if req.Text == "" {
		return domain.ErrInvalidInput
	}
	if len(req.Text) > domain.MaxTextLength {
		return domain.ErrInputTooLong
	}
	return nil
}

// Generate produces one prompt in buffered mode. Cache hits short-circuit
// the upstream call; successful generations are written through.
func (s *Service) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "relay.generate")
	defer span.End()

	if err := Validate(req); err != nil {
		return nil, err
	}

	key := cache.Key(req.Text, req.Context)

	if entry, ok := s.cache.Get(ctx, key); ok {
		metrics.RecordCacheHit()
		telemetry.AddCacheAttribute(span, true)
		return &domain.GenerateResponse{
			Prompt:    entry.Prompt,
			Cached:    true,
			Timestamp: entry.CreatedAt,
		}, nil
	}
	metrics.RecordCacheMiss()
	telemetry.AddCacheAttribute(span, false)

	resp, err := s.provider.ChatCompletion(ctx, s.chatRequest(req, s.model, false))
	if err != nil {
		metrics.RecordUpstreamError(s.provider.ID(), errorType(err))
		telemetry.AddErrorAttribute(span, err)
		return nil, err
	}

	prompt := sanitize.Clean(completionContent(resp))
	if prompt == "" {
		err := fmt.Errorf("%w: model %s", domain.ErrEmptyGeneration, s.model)
		telemetry.AddErrorAttribute(span, err)
		return nil, err
	}

	if err := s.cache.Put(ctx, key, prompt); err != nil {
		slog.Warn("failed to cache prompt", "error", err)
	}

	return &domain.GenerateResponse{
		Prompt:    prompt,
		Cached:    false,
		Timestamp: s.now(),
	}, nil
}

// GenerateStream produces a prompt in streaming mode. Validation errors
// are returned synchronously, before any event is produced; everything
// after that arrives on the event channel, which always ends with a
// done:true frame unless the caller context is canceled. Streaming never
// consults or writes the cache: streaming callers expect a live
// generation.
func (s *Service) GenerateStream(ctx context.Context, req domain.GenerateRequest) (<-chan domain.StreamEvent, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	events := make(chan domain.StreamEvent)

	go func() {
		defer close(events)

		ctx, span := telemetry.StartSpan(ctx, "relay.generate_stream")
		defer span.End()

		metrics.ActiveStreams.Inc()
		defer metrics.ActiveStreams.Dec()

		chunks, errs := s.provider.ChatCompletionStream(ctx, s.chatRequest(req, s.streamModel, true))

		var accumulated strings.Builder
		for chunk := range chunks {
			fragment := chunk.DeltaContent()
			if fragment == "" {
				continue
			}

			accumulated.WriteString(fragment)
			metrics.RecordStreamChunk(s.provider.ID())

			if !s.emit(ctx, events, domain.StreamEvent{Content: fragment}) {
				return
			}
		}

		// The chunk channel closed: either the upstream finished or it
		// failed. The provider guarantees the error, if any, is already
		// buffered by now.
		if err, ok := <-errs; ok && err != nil {
			metrics.RecordUpstreamError(s.provider.ID(), errorType(err))
			telemetry.AddErrorAttribute(span, err)
			slog.Error("stream generation failed", "provider", s.provider.ID(), "error", err)
			s.emit(ctx, events, domain.StreamEvent{Error: streamFailureMessage, Done: true})
			return
		}

		s.emit(ctx, events, domain.StreamEvent{
			Done:       true,
			FullPrompt: sanitize.Clean(accumulated.String()),
		})
	}()

	return events, nil
}

// emit delivers an event unless the caller has gone away.
func (s *Service) emit(ctx context.Context, events chan<- domain.StreamEvent, event domain.StreamEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func completionContent(resp *domain.ChatResponse) string {
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return ""
	}
	return resp.Choices[0].Message.Content
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream"
	default:
		return "other"
	}
}

// ProviderID reports the configured upstream, for logging and metrics.
func (s *Service) ProviderID() string {
	return s.provider.ID()
}
