package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/infrastructure/resilience"
)

const operationPublish = "publish fitting event"

// connectionErrors mean the server is unreachable for now.
var connectionErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrConnectionReconnecting,
	nats.ErrDisconnected,
}

func classifyPublishError(err error) resilience.ErrorClassification {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, nats.ErrMaxPayload),
		errors.Is(err, nats.ErrBadSubject):
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err), isConnectionError(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

func isConnectionError(err error) bool {
	for _, target := range connectionErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// publishFailure gives a publish error its domain kind. Fitting events are
// best effort, so callers only log it.
func publishFailure(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), domain.IsKind(err, domain.ErrTemporary):
		return err
	case resilience.IsCircuitOpen(err), isConnectionError(err), errors.Is(err, context.DeadlineExceeded):
		return domain.WrapError(domain.ErrTemporary, operationPublish, err)
	default:
		return domain.WrapError(domain.ErrUpstream, operationPublish, err)
	}
}
