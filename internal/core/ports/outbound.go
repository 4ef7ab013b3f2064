package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

// FittingService applies a motif to a captured photo on the remote fitting engine.
type FittingService interface {
	ApplyPattern(ctx context.Context, req domain.FittingRequest) (domain.FittingResult, error)
}

// PatternLister is the single authoritative source of selectable motifs.
type PatternLister interface {
	ListPatterns(ctx context.Context) ([]domain.PatternDescriptor, error)
}

// PatternKnowledge is the static motif reference (names and descriptions).
type PatternKnowledge interface {
	Describe(id string) (domain.PatternDescriptor, bool)
	Motifs() []domain.PatternDescriptor
}

// RemoteChat answers chat queries through a remote model.
type RemoteChat interface {
	Respond(ctx context.Context, query, patternID string) (string, error)
}

// PhotoSaver submits a produced image to the remote save endpoint.
type PhotoSaver interface {
	SavePhoto(ctx context.Context, imageBase64, patternID string) (domain.SaveReceipt, error)
}

// HealthChecker probes the fitting service.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ArtifactStorage stores exported results.
type ArtifactStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (string, error)
}

// FrameSource is a live image source that can freeze single frames.
type FrameSource interface {
	Open(ctx context.Context) error
	Frame(ctx context.Context) ([]byte, error)
	Close() error
}

// FittingEventPublisher announces finished fitting attempts.
type FittingEventPublisher interface {
	PublishFittingEvent(ctx context.Context, event domain.FittingEvent) error
}

// FittingEventSubscriber consumes fitting attempt announcements.
type FittingEventSubscriber interface {
	SubscribeFittingEvents(ctx context.Context, handler func(context.Context, domain.FittingEvent) error) error
}

// SessionRegistry keeps session-scoped state by id.
type SessionRegistry[T any] interface {
	Put(id string, value T)
	Get(id string) (T, bool)
	Delete(id string) (T, bool)
	Len() int
}

// FittingObserver records fitting attempt telemetry.
type FittingObserver interface {
	ObserveFittingAttempt(outcome domain.FittingOutcome, kind domain.FailureKind, duration time.Duration)
}

// ChatObserver records which responder produced a chat reply.
type ChatObserver interface {
	ObserveChatReply(source domain.ChatSource)
}

// CatalogObserver records catalog loads.
type CatalogObserver interface {
	ObserveCatalogLoad(patterns int, err error)
}

// FittingEventRecorder records consumed fitting events.
type FittingEventRecorder interface {
	RecordFittingEvent(event domain.FittingEvent, lag time.Duration)
}
