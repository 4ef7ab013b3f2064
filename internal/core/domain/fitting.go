package domain

import (
	"errors"
	"strings"
	"time"
)

type FittingState string

const (
	FittingIdle       FittingState = "idle"
	FittingSubmitting FittingState = "submitting"
	FittingSucceeded  FittingState = "succeeded"
	FittingFailed     FittingState = "failed"
)

// ValidationMessage is shown when a fitting is triggered without a photo or a motif.
const ValidationMessage = "select a pattern and make sure a photo has been captured"

type FittingRequest struct {
	SourceImage CapturedImage
	PatternID   string
}

func (r FittingRequest) Validate() error {
	var missing []string
	if r.SourceImage.IsZero() {
		missing = append(missing, "captured image")
	}
	if strings.TrimSpace(r.PatternID) == "" {
		missing = append(missing, "pattern id")
	}
	if len(missing) == 0 {
		return nil
	}
	return WrapError(ErrInvalidInput, "apply pattern", errors.New(ValidationMessage+" (missing "+strings.Join(missing, ", ")+")"))
}

// FittingResult holds the produced image exactly as the fitting service returned it.
type FittingResult struct {
	Image       string    `json:"image"`
	MethodUsed  string    `json:"method_used"`
	PatternID   string    `json:"pattern_id"`
	CompletedAt time.Time `json:"completed_at"`
}

type FittingFailure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

type FittingSnapshot struct {
	State          FittingState    `json:"state"`
	Attempt        int             `json:"attempt"`
	PatternID      string          `json:"pattern_id,omitempty"`
	Result         *FittingResult  `json:"result,omitempty"`
	PreviousResult *FittingResult  `json:"previous_result,omitempty"`
	Failure        *FittingFailure `json:"failure,omitempty"`
	Rejection      string          `json:"rejection,omitempty"`
}

type FittingOutcome string

const (
	OutcomeSucceeded FittingOutcome = "succeeded"
	OutcomeFailed    FittingOutcome = "failed"
	OutcomeDiscarded FittingOutcome = "discarded"
)

// FittingEvent is published once per finished attempt.
type FittingEvent struct {
	SessionID   string         `json:"session_id"`
	Attempt     int            `json:"attempt"`
	PatternID   string         `json:"pattern_id"`
	Outcome     FittingOutcome `json:"outcome"`
	FailureKind FailureKind    `json:"failure_kind,omitempty"`
	MethodUsed  string         `json:"method_used,omitempty"`
	DurationMS  int64          `json:"duration_ms"`
	OccurredAt  time.Time      `json:"occurred_at"`
}
