package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/ports"
)

const DefaultFittingTimeout = 60 * time.Second

type FittingConfig struct {
	Timeout time.Duration
}

// FittingWorkflow is the per-session fitting state machine. At most one
// request is in flight; overlapping triggers are rejected without a call.
type FittingWorkflow struct {
	sessionID string
	fitter    ports.FittingService
	publisher ports.FittingEventPublisher
	observer  ports.FittingObserver
	timeout   time.Duration
	now       func() time.Time

	mu         sync.Mutex
	state      domain.FittingState
	current    *domain.FittingResult
	previous   *domain.FittingResult
	failure    *domain.FittingFailure
	rejection  string
	lastReq    *domain.FittingRequest
	attempt    int
	generation uint64
	cancel     context.CancelFunc
}

func NewFittingWorkflow(
	sessionID string,
	fitter ports.FittingService,
	publisher ports.FittingEventPublisher,
	observer ports.FittingObserver,
	cfg FittingConfig,
) *FittingWorkflow {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultFittingTimeout
	}
	return &FittingWorkflow{
		sessionID: sessionID,
		fitter:    fitter,
		publisher: publisher,
		observer:  observer,
		timeout:   timeout,
		now:       time.Now,
		state:     domain.FittingIdle,
	}
}

// Apply validates the inputs synchronously and then runs one fitting attempt.
func (w *FittingWorkflow) Apply(ctx context.Context, image domain.CapturedImage, patternID string) (domain.FittingSnapshot, error) {
	req := domain.FittingRequest{SourceImage: image, PatternID: strings.TrimSpace(patternID)}
	if err := req.Validate(); err != nil {
		w.mu.Lock()
		w.rejection = domain.ValidationMessage
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, err
	}
	w.mu.Lock()
	return w.submitLocked(ctx, req)
}

// Retry re-runs the last failed request with identical inputs.
func (w *FittingWorkflow) Retry(ctx context.Context) (domain.FittingSnapshot, error) {
	w.mu.Lock()
	switch {
	case w.state == domain.FittingSubmitting:
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, domain.WrapError(domain.ErrFittingInFlight, "retry fitting", fmt.Errorf("attempt %d still running", snap.Attempt))
	case w.state != domain.FittingFailed || w.lastReq == nil:
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, domain.WrapError(domain.ErrInvalidInput, "retry fitting", errors.New("no failed attempt to retry"))
	}
	return w.submitLocked(ctx, *w.lastReq)
}

// Reset returns to idle and drops results. A running attempt loses its claim
// on the workflow.
func (w *FittingWorkflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.abandonLocked()
	w.state = domain.FittingIdle
	w.current = nil
	w.previous = nil
	w.failure = nil
	w.rejection = ""
	w.lastReq = nil
}

// ResetFailure returns to idle only when the last attempt failed.
func (w *FittingWorkflow) ResetFailure() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != domain.FittingFailed {
		return
	}
	w.state = domain.FittingIdle
	w.failure = nil
	w.rejection = ""
}

// Invalidate is called when the user leaves the flow: the pending call is
// cancelled and a late answer is discarded.
func (w *FittingWorkflow) Invalidate() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.abandonLocked()
	if w.state == domain.FittingSubmitting {
		w.state = domain.FittingIdle
	}
}

func (w *FittingWorkflow) Snapshot() domain.FittingSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// submitLocked is called with mu held and releases it, so a Reset cannot
// slip between the state check and the claim.
func (w *FittingWorkflow) submitLocked(ctx context.Context, req domain.FittingRequest) (domain.FittingSnapshot, error) {
	if w.state == domain.FittingSubmitting {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, domain.WrapError(domain.ErrFittingInFlight, "apply pattern", fmt.Errorf("attempt %d still running", snap.Attempt))
	}

	callCtx, cancel := context.WithTimeout(ctx, w.timeout)
	w.generation++
	generation := w.generation
	w.attempt++
	attempt := w.attempt
	w.state = domain.FittingSubmitting
	w.failure = nil
	w.rejection = ""
	reqCopy := req
	w.lastReq = &reqCopy
	w.cancel = cancel
	w.mu.Unlock()

	started := w.now()
	result, err := w.fitter.ApplyPattern(callCtx, req)
	timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	cancel()
	duration := w.now().Sub(started)

	if err != nil && timedOut {
		err = domain.WrapError(domain.ErrTemporary, "apply pattern", fmt.Errorf("service unavailable: no response within %s: %w", w.timeout, err))
	}
	if err == nil && strings.TrimSpace(result.Image) == "" {
		err = domain.WrapError(domain.ErrUpstream, "apply pattern", errors.New("response carried no result image"))
	}

	w.mu.Lock()
	if generation != w.generation {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		w.finish(req, attempt, domain.OutcomeDiscarded, "", "", duration)
		slog.Info("fitting_result_discarded", "session_id", w.sessionID, "attempt", attempt, "pattern_id", req.PatternID)
		return snap, domain.WrapError(domain.ErrAttemptDiscarded, "apply pattern", fmt.Errorf("attempt %d superseded", attempt))
	}
	w.cancel = nil

	if err != nil {
		failure := domain.ClassifyFailure(err)
		w.state = domain.FittingFailed
		w.failure = &failure
		if w.current != nil {
			w.previous = w.current
		}
		w.current = nil
		snap := w.snapshotLocked()
		w.mu.Unlock()

		slog.Warn("fitting_failed",
			"session_id", w.sessionID,
			"attempt", attempt,
			"pattern_id", req.PatternID,
			"kind", string(failure.Kind),
			"error", err,
		)
		w.finish(req, attempt, domain.OutcomeFailed, failure.Kind, "", duration)
		return snap, err
	}

	result.PatternID = req.PatternID
	if result.CompletedAt.IsZero() {
		result.CompletedAt = w.now().UTC()
	}
	if w.current != nil {
		w.previous = w.current
	}
	w.current = &result
	w.state = domain.FittingSucceeded
	snap := w.snapshotLocked()
	w.mu.Unlock()

	slog.Info("fitting_succeeded",
		"session_id", w.sessionID,
		"attempt", attempt,
		"pattern_id", req.PatternID,
		"method_used", result.MethodUsed,
		"duration_ms", float64(duration.Microseconds())/1000.0,
	)
	w.finish(req, attempt, domain.OutcomeSucceeded, "", result.MethodUsed, duration)
	return snap, nil
}

func (w *FittingWorkflow) finish(
	req domain.FittingRequest,
	attempt int,
	outcome domain.FittingOutcome,
	kind domain.FailureKind,
	method string,
	duration time.Duration,
) {
	if w.observer != nil {
		w.observer.ObserveFittingAttempt(outcome, kind, duration)
	}
	if w.publisher == nil {
		return
	}

	event := domain.FittingEvent{
		SessionID:   w.sessionID,
		Attempt:     attempt,
		PatternID:   req.PatternID,
		Outcome:     outcome,
		FailureKind: kind,
		MethodUsed:  method,
		DurationMS:  duration.Milliseconds(),
		OccurredAt:  w.now().UTC(),
	}
	publishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.publisher.PublishFittingEvent(publishCtx, event); err != nil {
		slog.Warn("fitting_event_publish_failed", "session_id", w.sessionID, "attempt", attempt, "error", err)
	}
}

func (w *FittingWorkflow) abandonLocked() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.generation++
}

func (w *FittingWorkflow) snapshotLocked() domain.FittingSnapshot {
	snap := domain.FittingSnapshot{
		State:     w.state,
		Attempt:   w.attempt,
		Rejection: w.rejection,
	}
	if w.lastReq != nil {
		snap.PatternID = w.lastReq.PatternID
	}
	if w.current != nil {
		result := *w.current
		snap.Result = &result
	}
	if w.previous != nil {
		previous := *w.previous
		snap.PreviousResult = &previous
	}
	if w.failure != nil {
		failure := *w.failure
		snap.Failure = &failure
	}
	return snap
}
