package ports

import (
	"context"

	"github.com/techmart/store-assistant/internal/core/domain"
)

// Assistant is the inbound contract for the hybrid retrieval-and-generation
// pipeline.
type Assistant interface {
	// Respond runs the full pipeline once and always returns a complete,
	// localized answer; fatal failures surface as the fallback answer, not
	// as an error.
	Respond(ctx context.Context, query domain.Query) *domain.GeneratedAnswer

	// RespondStream runs the pipeline and emits the ordered event sequence
	// on the returned channel. The channel is always closed after exactly
	// one terminal event (done or error), including on context cancellation.
	RespondStream(ctx context.Context, query domain.Query) <-chan domain.StreamEvent
}

// SuggestionProvider returns canned follow-up questions per language.
type SuggestionProvider interface {
	Suggestions(language domain.Language) []string
}
