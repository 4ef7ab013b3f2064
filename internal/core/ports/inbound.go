package ports

import (
	"context"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

// PatternBrowser is the inbound contract for catalog browsing.
type PatternBrowser interface {
	Search(ctx context.Context, term string) ([]domain.PatternDescriptor, error)
	Find(ctx context.Context, id string) (domain.PatternDescriptor, error)
}

// ChatResponder is the inbound contract for stateless chat answers.
type ChatResponder interface {
	Respond(ctx context.Context, text, patternID string) (string, domain.ChatSource, error)
}

// FittingEventHandler is the inbound contract for the event worker.
type FittingEventHandler interface {
	Handle(ctx context.Context, event domain.FittingEvent) error
}
