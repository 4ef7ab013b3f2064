package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/batikgram/internal/config"
	"github.com/kirillkom/batikgram/internal/core/ports"
	"github.com/kirillkom/batikgram/internal/core/usecase"
	"github.com/kirillkom/batikgram/internal/infrastructure/camera"
	"github.com/kirillkom/batikgram/internal/infrastructure/fittingapi"
	"github.com/kirillkom/batikgram/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/batikgram/internal/infrastructure/patternmeta"
	"github.com/kirillkom/batikgram/internal/infrastructure/queue/nats"
	"github.com/kirillkom/batikgram/internal/infrastructure/resilience"
	"github.com/kirillkom/batikgram/internal/infrastructure/sessionstore"
	"github.com/kirillkom/batikgram/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/batikgram/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Fitting   *fittingapi.Client
	Knowledge *patternmeta.Catalog
	Queue     *nats.Queue
	Metrics   *metrics.HTTPServerMetrics

	Sessions *usecase.SessionManager
	Capture  *usecase.CaptureService
	Catalog  *usecase.CatalogService
	Chat     *usecase.ChatService
	Results  *usecase.ResultService

	sessions *sessionstore.Store[*usecase.Session]
	closeFns []func()
}

// New wires the try-on flow. service names the process in logs and metrics.
func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	app := &App{Config: cfg}

	app.Metrics = metrics.NewHTTPServerMetrics(service)

	executor := resilience.NewExecutor(upstreamResilience(cfg))
	executor.SetStateObserver(func(operation string, to gobreaker.State) {
		app.Metrics.ObserveBreakerState(operation, to)
	})
	slog.Info("upstream_resilience", upstreamResilience(cfg).LogAttrs()...)

	app.Fitting = fittingapi.New(fittingapi.Config{
		BaseURL:      cfg.FittingServiceURL,
		AccessToken:  cfg.FittingAPIToken,
		PatternsPath: cfg.FittingPatternsPath,
		HTTPTimeout:  cfg.HTTPClientTimeout,
	}, executor)

	knowledge, err := loadKnowledge(cfg.PatternMetadataPath)
	if err != nil {
		return nil, err
	}
	app.Knowledge = knowledge

	storage, err := localfs.New(cfg.ExportPath)
	if err != nil {
		return nil, fmt.Errorf("init export storage: %w", err)
	}

	var publisher ports.FittingEventPublisher
	if cfg.EventsEnabled {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ClientName:         service,
			QueueGroup:         cfg.NATSQueueGroup,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init event queue: %w", err)
		}
		app.Queue = queue
		publisher = queue
		app.closeFns = append(app.closeFns, queue.Close)
	}

	remote, closeRemote, err := newRemoteChat(ctx, cfg, app.Fitting, knowledge, executor)
	if err != nil {
		app.Close()
		return nil, err
	}
	if closeRemote != nil {
		app.closeFns = append(app.closeFns, closeRemote)
	}

	app.sessions = sessionstore.New[*usecase.Session](cfg.SessionTTL, func(id string, session *usecase.Session) {
		session.Release()
		slog.Info("session_expired", "session_id", id)
		app.Metrics.SetActiveSessions(app.sessions.Len())
	})

	app.Sessions = usecase.NewSessionManager(app.sessions, app.Fitting, publisher, app.Metrics, usecase.FittingConfig{
		Timeout: cfg.FittingTimeout,
	})
	app.Capture = usecase.NewCaptureService(snapshotSourceFactory(cfg))
	app.Catalog = usecase.NewCatalogService(app.Fitting, knowledge, app.Metrics)
	app.Chat = usecase.NewChatService(remote, usecase.NewLocalResponder(knowledge), app.Metrics, cfg.ChatTimeout)
	app.Results = usecase.NewResultService(storage, app.Fitting)

	return app, nil
}

// RunSessionSweeper expires idle sessions until ctx is done.
func (a *App) RunSessionSweeper(ctx context.Context) {
	a.sessions.Run(ctx, a.Config.SessionSweepInterval)
}

// Readiness lists the dependencies /readyz probes.
func (a *App) Readiness() map[string]ports.HealthChecker {
	checks := map[string]ports.HealthChecker{"fitting_service": a.Fitting}
	if a.Queue != nil {
		checks["nats"] = a.Queue
	}
	return checks
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}

func upstreamResilience(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	if cfg.UpstreamRetryMax > 0 {
		out.RetryMaxAttempts = cfg.UpstreamRetryMax
	}
	out.BreakerEnabled = cfg.UpstreamBreakerOn
	if cfg.UpstreamOpenWindow > 0 {
		out.BreakerOpenTimeout = cfg.UpstreamOpenWindow
	}
	return out
}

func loadKnowledge(path string) (*patternmeta.Catalog, error) {
	if path == "" {
		catalog, err := patternmeta.Default()
		if err != nil {
			return nil, fmt.Errorf("load embedded motif metadata: %w", err)
		}
		return catalog, nil
	}
	catalog, err := patternmeta.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load motif metadata %s: %w", path, err)
	}
	return catalog, nil
}

func newRemoteChat(
	ctx context.Context,
	cfg config.Config,
	fitting *fittingapi.Client,
	knowledge ports.PatternKnowledge,
	executor *resilience.Executor,
) (ports.RemoteChat, func(), error) {
	switch cfg.ChatBackend {
	case config.ChatBackendNone:
		return nil, nil, nil
	case config.ChatBackendGemini:
		responder, err := gemini.New(ctx, gemini.Config{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		}, knowledge, executor)
		if err != nil {
			return nil, nil, fmt.Errorf("init gemini chat: %w", err)
		}
		return responder, func() { _ = responder.Close() }, nil
	default:
		return fitting, nil, nil
	}
}

func snapshotSourceFactory(cfg config.Config) usecase.SourceFactory {
	if cfg.CameraSnapshotURL == "" {
		return nil
	}
	return func(string) (ports.FrameSource, error) {
		return camera.NewSnapshotSource(cfg.CameraSnapshotURL, camera.DefaultOptions(), cfg.HTTPClientTimeout), nil
	}
}
