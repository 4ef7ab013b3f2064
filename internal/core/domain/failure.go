package domain

import (
	"context"
	"errors"
	"strings"
)

type FailureKind string

const (
	FailureValidation     FailureKind = "validation"
	FailureCredential     FailureKind = "credential"
	FailureTemporary      FailureKind = "temporary_unavailable"
	FailureHardDependency FailureKind = "hard_dependency"
	FailureNetwork        FailureKind = "network"
	FailureUpstream       FailureKind = "upstream"
	FailureCancelled      FailureKind = "cancelled"
)

// UserMessager is implemented by upstream errors that carry text meant for
// the end user (error plus suggested solution).
type UserMessager interface {
	UserMessage() string
}

// ClassifyFailure maps an error from a fitting attempt onto the failure taxonomy.
func ClassifyFailure(err error) FittingFailure {
	if err == nil {
		return FittingFailure{}
	}
	detail := upstreamDetail(err)

	switch {
	case IsKind(err, ErrInvalidInput):
		return FittingFailure{Kind: FailureValidation, Message: withDetail(ValidationMessage, detail), Err: err}
	case IsKind(err, ErrUnauthorized):
		return FittingFailure{
			Kind:    FailureCredential,
			Message: withDetail("The fitting service rejected its credentials. Check the service access token configuration", detail),
			Err:     err,
		}
	case IsKind(err, ErrNoFallback):
		return FittingFailure{
			Kind:    FailureHardDependency,
			Message: withDetail("The fitting engine could not produce a result and no fallback is available", detail),
			Err:     err,
		}
	case IsKind(err, ErrTemporary):
		return FittingFailure{
			Kind:    FailureTemporary,
			Message: "The fitting service is temporarily unavailable. Please wait a moment and try again",
			Err:     err,
		}
	case IsKind(err, ErrNetwork):
		return FittingFailure{
			Kind:    FailureNetwork,
			Message: "The fitting service could not be reached. Please wait a moment and try again",
			Err:     err,
		}
	case errors.Is(err, context.Canceled), IsKind(err, ErrAttemptDiscarded):
		return FittingFailure{Kind: FailureCancelled, Message: "The fitting attempt was cancelled", Err: err}
	default:
		return FittingFailure{Kind: FailureUpstream, Message: withDetail("Virtual fitting failed", detail), Err: err}
	}
}

func upstreamDetail(err error) string {
	var messager UserMessager
	if errors.As(err, &messager) {
		return strings.TrimSpace(messager.UserMessage())
	}
	return ""
}

func withDetail(base, detail string) string {
	if detail == "" {
		return base
	}
	return base + ": " + detail
}
