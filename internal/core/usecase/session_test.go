package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/ports"
)

func newTestManager(fitter *fitterFake) *SessionManager {
	return NewSessionManager(newMapRegistry(), fitter, nil, nil, FittingConfig{Timeout: time.Second})
}

func TestSessionManagerCreateGetClose(t *testing.T) {
	manager := newTestManager(&fitterFake{})

	session := manager.Create()
	if session.ID == "" {
		t.Fatalf("expected session id")
	}
	got, err := manager.Get(session.ID)
	if err != nil || got != session {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if manager.Len() != 1 {
		t.Fatalf("expected one session, got %d", manager.Len())
	}

	if err := manager.Close(session.ID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := manager.Get(session.ID); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := manager.Close(session.ID); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected second close to report missing session, got %v", err)
	}
}

func TestSessionsDoNotShareState(t *testing.T) {
	manager := newTestManager(&fitterFake{})
	capture := NewCaptureService(nil)

	first := manager.Create()
	second := manager.Create()
	if _, err := capture.Upload(context.Background(), first, domain.DataURIFromBytes(tinyPNG(t))); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if _, ok := second.Image(); ok {
		t.Fatalf("expected second session to have no image")
	}
	if _, err := capture.RequireImage(second); !domain.IsKind(err, domain.ErrNoCapturedImage) {
		t.Fatalf("expected ErrNoCapturedImage, got %v", err)
	}
}

func TestSelectPatternAppendsNoteAndResetsFailure(t *testing.T) {
	fitter := &fitterFake{errs: []error{domain.WrapError(domain.ErrTemporary, "apply pattern", errors.New("503"))}}
	manager := newTestManager(fitter)
	session := manager.Create()

	if _, err := session.Fitting().Apply(context.Background(), capturedImage(t), "sekar_duren"); err == nil {
		t.Fatalf("expected failure")
	}

	pattern := domain.PatternDescriptor{ID: "arumdalu", Name: "Arumdalu", Description: "Bunga yang mekar di malam hari dan menyebarkan keharuman"}
	if err := manager.SelectPattern(context.Background(), session, pattern); err != nil {
		t.Fatalf("SelectPattern() error = %v", err)
	}
	if session.PatternID() != "arumdalu" {
		t.Fatalf("expected selected pattern, got %q", session.PatternID())
	}
	if state := session.Fitting().Snapshot().State; state != domain.FittingIdle {
		t.Fatalf("expected idle after changing pattern, got %s", state)
	}

	transcript := session.Transcript()
	if len(transcript) != 1 {
		t.Fatalf("expected one note, got %d", len(transcript))
	}
	if !strings.Contains(transcript[0].Text, "Anda memilih motif Arumdalu") || !strings.Contains(transcript[0].Text, pattern.Description) {
		t.Fatalf("unexpected note: %q", transcript[0].Text)
	}
}

func TestSelectPatternRejectsEmptyID(t *testing.T) {
	manager := newTestManager(&fitterFake{})
	session := manager.Create()
	err := manager.SelectPattern(context.Background(), session, domain.PatternDescriptor{Name: "x"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCaptureLifecycle(t *testing.T) {
	source := &frameSourceFake{frame: tinyPNG(t)}
	capture := NewCaptureService(func(string) (ports.FrameSource, error) { return source, nil })
	manager := newTestManager(&fitterFake{})
	session := manager.Create()

	if err := capture.Start(context.Background(), session); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := capture.Start(context.Background(), session); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if source.opened != 1 {
		t.Fatalf("expected source opened once, got %d", source.opened)
	}

	img, err := capture.Capture(context.Background(), session)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if img.MIMEType() != "image/png" || img.Width() != 2 {
		t.Fatalf("unexpected image: %s %dx%d", img.MIMEType(), img.Width(), img.Height())
	}
	if _, err := capture.RequireImage(session); err != nil {
		t.Fatalf("RequireImage() error = %v", err)
	}

	capture.Retake(session)
	if _, err := capture.RequireImage(session); !domain.IsKind(err, domain.ErrNoCapturedImage) {
		t.Fatalf("expected ErrNoCapturedImage after retake, got %v", err)
	}

	if err := capture.Stop(session); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := capture.Stop(session); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
	if source.closed != 1 {
		t.Fatalf("expected source closed once, got %d", source.closed)
	}
}

func TestCaptureStartDeviceUnavailable(t *testing.T) {
	source := &frameSourceFake{openErr: errors.New("permission denied")}
	capture := NewCaptureService(func(string) (ports.FrameSource, error) { return source, nil })
	session := newTestManager(&fitterFake{}).Create()

	err := capture.Start(context.Background(), session)
	if !domain.IsKind(err, domain.ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if source.closed != 1 {
		t.Fatalf("expected failed source to be closed")
	}

	source.openErr = nil
	if err := capture.Start(context.Background(), session); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestCaptureRejectsUndecodableFrame(t *testing.T) {
	source := &frameSourceFake{frame: []byte("not an image")}
	capture := NewCaptureService(func(string) (ports.FrameSource, error) { return source, nil })
	session := newTestManager(&fitterFake{}).Create()

	if _, err := capture.Capture(context.Background(), session); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, ok := session.Image(); ok {
		t.Fatalf("expected no image stored")
	}
}

func TestNewCaptureResetsSucceededFitting(t *testing.T) {
	fitter := &fitterFake{results: []domain.FittingResult{{Image: "ok"}}}
	manager := newTestManager(fitter)
	capture := NewCaptureService(nil)
	session := manager.Create()

	img, err := capture.Upload(context.Background(), session, domain.DataURIFromBytes(tinyPNG(t)))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if _, err := session.Fitting().Apply(context.Background(), img, "sekar_kemuning"); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if _, err := capture.Upload(context.Background(), session, domain.DataURIFromBytes(tinyPNG(t))); err != nil {
		t.Fatalf("second Upload() error = %v", err)
	}
	if snap := session.Fitting().Snapshot(); snap.State != domain.FittingIdle || snap.Result != nil {
		t.Fatalf("expected new capture to reset fitting, got %+v", snap)
	}
}

func TestCloseSessionReleasesSource(t *testing.T) {
	source := &frameSourceFake{frame: tinyPNG(t)}
	capture := NewCaptureService(func(string) (ports.FrameSource, error) { return source, nil })
	manager := newTestManager(&fitterFake{})
	session := manager.Create()

	if err := capture.Start(context.Background(), session); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := manager.Close(session.ID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if source.closed != 1 {
		t.Fatalf("expected source released on close, got %d", source.closed)
	}
}

func TestCaptureStartDoesNotHoldSessionWhileOpening(t *testing.T) {
	source := &frameSourceFake{
		frame:   tinyPNG(t),
		opening: make(chan struct{}, 1),
		unblock: make(chan struct{}),
	}
	capture := NewCaptureService(func(string) (ports.FrameSource, error) { return source, nil })
	session := newTestManager(&fitterFake{}).Create()

	done := make(chan error, 1)
	go func() { done <- capture.Start(context.Background(), session) }()
	select {
	case <-source.opening:
	case <-time.After(2 * time.Second):
		t.Fatal("source was not opened")
	}

	read := make(chan struct{})
	go func() {
		_, _ = session.Image()
		_ = session.PatternID()
		close(read)
	}()
	select {
	case <-read:
	case <-time.After(2 * time.Second):
		t.Fatal("session reads blocked while the source was opening")
	}

	close(source.unblock)
	if err := <-done; err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if source.closed != 0 {
		t.Fatalf("expected source kept open, got %d closes", source.closed)
	}
}

func TestCaptureStartAfterReleaseClosesSource(t *testing.T) {
	source := &frameSourceFake{
		frame:   tinyPNG(t),
		opening: make(chan struct{}, 1),
		unblock: make(chan struct{}),
	}
	capture := NewCaptureService(func(string) (ports.FrameSource, error) { return source, nil })
	manager := newTestManager(&fitterFake{})
	session := manager.Create()

	done := make(chan error, 1)
	go func() { done <- capture.Start(context.Background(), session) }()
	<-source.opening

	if err := manager.Close(session.ID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	close(source.unblock)

	if err := <-done; !domain.IsKind(err, domain.ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if source.closed != 1 {
		t.Fatalf("expected late source to be closed, got %d", source.closed)
	}
	if err := capture.Start(context.Background(), session); !domain.IsKind(err, domain.ErrDeviceUnavailable) {
		t.Fatalf("expected released session to refuse a new source, got %v", err)
	}
}
