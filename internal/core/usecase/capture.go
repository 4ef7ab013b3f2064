package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/ports"
)

// SourceFactory builds a frame source for a session. Returning an error means
// no device is available; the caller may try again.
type SourceFactory func(sessionID string) (ports.FrameSource, error)

type CaptureService struct {
	newSource SourceFactory
}

func NewCaptureService(newSource SourceFactory) *CaptureService {
	return &CaptureService{newSource: newSource}
}

// Start acquires a live frame source for the session. Starting twice keeps the
// existing source. Opening happens outside the session lock.
func (uc *CaptureService) Start(ctx context.Context, session *Session) error {
	_, err := uc.acquire(ctx, session)
	return err
}

func (uc *CaptureService) acquire(ctx context.Context, session *Session) (ports.FrameSource, error) {
	session.mu.Lock()
	released, existing := session.released, session.source
	session.mu.Unlock()

	switch {
	case released:
		return nil, domain.WrapError(domain.ErrDeviceUnavailable, "start capture", errors.New("session closed"))
	case existing != nil:
		return existing, nil
	case uc.newSource == nil:
		return nil, domain.WrapError(domain.ErrDeviceUnavailable, "start capture", errors.New("no frame source configured"))
	}

	source, err := uc.newSource(session.ID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDeviceUnavailable, "start capture", err)
	}
	if err := source.Open(ctx); err != nil {
		_ = source.Close()
		return nil, domain.WrapError(domain.ErrDeviceUnavailable, "start capture", err)
	}

	session.mu.Lock()
	if session.released {
		session.mu.Unlock()
		_ = source.Close()
		return nil, domain.WrapError(domain.ErrDeviceUnavailable, "start capture", errors.New("session closed"))
	}
	if session.source != nil {
		winner := session.source
		session.mu.Unlock()
		_ = source.Close()
		return winner, nil
	}
	session.source = source
	session.mu.Unlock()

	slog.Info("capture_started", "session_id", session.ID)
	return source, nil
}

// Capture freezes one frame from the running source and makes it the
// session's image.
func (uc *CaptureService) Capture(ctx context.Context, session *Session) (domain.CapturedImage, error) {
	source, err := uc.acquire(ctx, session)
	if err != nil {
		return domain.CapturedImage{}, err
	}

	frame, err := source.Frame(ctx)
	if err != nil {
		return domain.CapturedImage{}, domain.WrapError(domain.ErrDeviceUnavailable, "capture frame", err)
	}
	image, err := domain.NewCapturedImage(frame)
	if err != nil {
		return domain.CapturedImage{}, fmt.Errorf("capture frame: %w", err)
	}
	uc.store(session, image)
	return image, nil
}

// Upload stores a frame that was frozen by the browser.
func (uc *CaptureService) Upload(_ context.Context, session *Session, payload string) (domain.CapturedImage, error) {
	image, err := domain.ParseCapturedImage(payload)
	if err != nil {
		return domain.CapturedImage{}, err
	}
	uc.store(session, image)
	return image, nil
}

// Retake discards the image and returns the fitting workflow to idle.
func (uc *CaptureService) Retake(session *Session) {
	session.mu.Lock()
	session.image = domain.CapturedImage{}
	session.mu.Unlock()

	session.fitting.Reset()
	slog.Info("capture_cleared", "session_id", session.ID)
}

func (uc *CaptureService) Stop(session *Session) error {
	session.mu.Lock()
	source := session.source
	session.source = nil
	session.mu.Unlock()

	if source == nil {
		return nil
	}
	if err := source.Close(); err != nil {
		return fmt.Errorf("stop capture: %w", err)
	}
	return nil
}

// RequireImage returns the captured image or ErrNoCapturedImage, which
// callers treat as "go back to capture".
func (uc *CaptureService) RequireImage(session *Session) (domain.CapturedImage, error) {
	image, ok := session.Image()
	if !ok {
		return domain.CapturedImage{}, domain.WrapError(domain.ErrNoCapturedImage, "require image", fmt.Errorf("session %s", session.ID))
	}
	return image, nil
}

func (uc *CaptureService) store(session *Session, image domain.CapturedImage) {
	session.mu.Lock()
	session.image = image
	session.mu.Unlock()

	session.fitting.Reset()
	slog.Info("capture_stored",
		"session_id", session.ID,
		"mime_type", image.MIMEType(),
		"width", image.Width(),
		"height", image.Height(),
		"bytes", image.Size(),
	)
}
