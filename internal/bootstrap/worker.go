package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/batikgram/internal/config"
	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/usecase"
	"github.com/kirillkom/batikgram/internal/infrastructure/queue/nats"
	"github.com/kirillkom/batikgram/internal/observability/metrics"
)

// Worker consumes fitting events and keeps the failure audit.
type Worker struct {
	Config  config.Config
	Queue   *nats.Queue
	Metrics *metrics.WorkerMetrics
	Auditor *usecase.FittingAuditor
}

func NewWorker(_ context.Context, cfg config.Config, service string) (*Worker, error) {
	if !cfg.EventsEnabled {
		return nil, errors.New("worker requires EVENTS_ENABLED=true")
	}
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ClientName: service,
		QueueGroup: cfg.NATSQueueGroup,
	})
	if err != nil {
		return nil, fmt.Errorf("init event queue: %w", err)
	}
	workerMetrics := metrics.NewWorkerMetrics(service)

	return &Worker{
		Config:  cfg,
		Queue:   queue,
		Metrics: workerMetrics,
		Auditor: usecase.NewFittingAuditor(workerMetrics, cfg.FailureStreakAlert),
	}, nil
}

// Run blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	return w.Queue.SubscribeFittingEvents(ctx, func(handlerCtx context.Context, event domain.FittingEvent) error {
		start := time.Now()
		w.Metrics.StartEvent()
		err := w.Auditor.Handle(handlerCtx, event)
		w.Metrics.FinishEvent(time.Since(start), err)
		return err
	})
}

func (w *Worker) Close() {
	w.Queue.Close()
}
