package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/ports"
)

const defaultFailureStreakAlert = 5

// FittingStats is the running tally kept by the event worker.
type FittingStats struct {
	Succeeded     int                        `json:"succeeded"`
	Failed        int                        `json:"failed"`
	Discarded     int                        `json:"discarded"`
	FailureKinds  map[domain.FailureKind]int `json:"failure_kinds"`
	FailureStreak int                        `json:"failure_streak"`
	Methods       map[string]int             `json:"methods"`
}

// FittingAuditor consumes fitting events. It records telemetry and warns when
// attempts keep failing in a row, which usually means a misconfigured token
// or a dead fitting engine rather than bad user input.
type FittingAuditor struct {
	recorder    ports.FittingEventRecorder
	streakAlert int
	now         func() time.Time

	mu    sync.Mutex
	stats FittingStats
}

func NewFittingAuditor(recorder ports.FittingEventRecorder, streakAlert int) *FittingAuditor {
	if streakAlert <= 0 {
		streakAlert = defaultFailureStreakAlert
	}
	return &FittingAuditor{
		recorder:    recorder,
		streakAlert: streakAlert,
		now:         time.Now,
		stats: FittingStats{
			FailureKinds: map[domain.FailureKind]int{},
			Methods:      map[string]int{},
		},
	}
}

func (uc *FittingAuditor) Handle(_ context.Context, event domain.FittingEvent) error {
	if event.SessionID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "audit fitting event", errors.New("session id is required"))
	}

	lag := time.Duration(0)
	if !event.OccurredAt.IsZero() {
		lag = uc.now().Sub(event.OccurredAt)
		if lag < 0 {
			lag = 0
		}
	}

	uc.mu.Lock()
	switch event.Outcome {
	case domain.OutcomeSucceeded:
		uc.stats.Succeeded++
		uc.stats.FailureStreak = 0
		if event.MethodUsed != "" {
			uc.stats.Methods[event.MethodUsed]++
		}
	case domain.OutcomeFailed:
		uc.stats.Failed++
		uc.stats.FailureKinds[event.FailureKind]++
		// Rejected input says nothing about the engine's health.
		if event.FailureKind != domain.FailureValidation {
			uc.stats.FailureStreak++
		}
	case domain.OutcomeDiscarded:
		uc.stats.Discarded++
	default:
		uc.mu.Unlock()
		return domain.WrapError(domain.ErrInvalidInput, "audit fitting event", errors.New("unknown outcome "+string(event.Outcome)))
	}
	streak := uc.stats.FailureStreak
	uc.mu.Unlock()

	if uc.recorder != nil {
		uc.recorder.RecordFittingEvent(event, lag)
	}

	slog.Info("fitting_event_consumed",
		"session_id", event.SessionID,
		"attempt", event.Attempt,
		"pattern_id", event.PatternID,
		"outcome", string(event.Outcome),
		"failure_kind", string(event.FailureKind),
		"lag_ms", lag.Milliseconds(),
	)
	if event.Outcome == domain.OutcomeFailed && streak >= uc.streakAlert && streak%uc.streakAlert == 0 {
		slog.Warn("fitting_failure_streak",
			"streak", streak,
			"last_kind", string(event.FailureKind),
		)
	}
	return nil
}

func (uc *FittingAuditor) Stats() FittingStats {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	out := uc.stats
	out.FailureKinds = make(map[domain.FailureKind]int, len(uc.stats.FailureKinds))
	for k, v := range uc.stats.FailureKinds {
		out.FailureKinds[k] = v
	}
	out.Methods = make(map[string]int, len(uc.stats.Methods))
	for k, v := range uc.stats.Methods {
		out.Methods[k] = v
	}
	return out
}
