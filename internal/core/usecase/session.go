package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/ports"
)

// Session is the explicit state of one user's try-on flow. Every field that
// was page-global in a browser lives here and is guarded by mu; the chat
// transcript has its own lock so a slow remote reply never blocks capture.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	released  bool
	image     domain.CapturedImage
	source    ports.FrameSource
	patternID string
	fitting   *FittingWorkflow

	chatMu     sync.Mutex
	transcript []domain.ChatMessage
}

func (s *Session) Image() (domain.CapturedImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image, !s.image.IsZero()
}

func (s *Session) PatternID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patternID
}

func (s *Session) Fitting() *FittingWorkflow {
	return s.fitting
}

// Transcript returns a copy of the chat history in send order.
func (s *Session) Transcript() []domain.ChatMessage {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	out := make([]domain.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Release stops the frame source and abandons any in-flight fitting call.
// Safe to call more than once.
func (s *Session) Release() {
	s.mu.Lock()
	source := s.source
	s.source = nil
	s.released = true
	s.mu.Unlock()

	if source != nil {
		if err := source.Close(); err != nil {
			slog.Warn("frame_source_close_failed", "session_id", s.ID, "error", err)
		}
	}
	s.fitting.Invalidate()
}

func (s *Session) appendChat(messages ...domain.ChatMessage) {
	s.transcript = append(s.transcript, messages...)
}

type SessionManager struct {
	registry  ports.SessionRegistry[*Session]
	fitter    ports.FittingService
	publisher ports.FittingEventPublisher
	observer  ports.FittingObserver
	cfg       FittingConfig
}

func NewSessionManager(
	registry ports.SessionRegistry[*Session],
	fitter ports.FittingService,
	publisher ports.FittingEventPublisher,
	observer ports.FittingObserver,
	cfg FittingConfig,
) *SessionManager {
	return &SessionManager{
		registry:  registry,
		fitter:    fitter,
		publisher: publisher,
		observer:  observer,
		cfg:       cfg,
	}
}

func (m *SessionManager) Create() *Session {
	id := uuid.NewString()
	session := &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		fitting:   NewFittingWorkflow(id, m.fitter, m.publisher, m.observer, m.cfg),
	}
	m.registry.Put(id, session)
	slog.Info("session_created", "session_id", id)
	return session
}

func (m *SessionManager) Get(id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get session", errors.New("session id is required"))
	}
	session, ok := m.registry.Get(id)
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id %q", id))
	}
	return session, nil
}

// Close ends the flow: the frame source is released and a pending fitting
// result will be discarded when it arrives.
func (m *SessionManager) Close(id string) error {
	session, ok := m.registry.Delete(strings.TrimSpace(id))
	if !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "close session", fmt.Errorf("id %q", id))
	}
	session.Release()
	slog.Info("session_closed", "session_id", session.ID)
	return nil
}

func (m *SessionManager) Len() int {
	return m.registry.Len()
}

// SelectPattern records the chosen motif. Changing the motif after a failed
// attempt returns the workflow to idle; a successful result stays visible.
func (m *SessionManager) SelectPattern(_ context.Context, session *Session, pattern domain.PatternDescriptor) error {
	if strings.TrimSpace(pattern.ID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "select pattern", errors.New("pattern id is required"))
	}

	session.mu.Lock()
	changed := session.patternID != pattern.ID
	session.patternID = pattern.ID
	session.mu.Unlock()

	if changed {
		session.fitting.ResetFailure()
	}

	note := "Anda memilih motif " + pattern.Name
	if pattern.Description != "" {
		note += ": " + pattern.Description
	}
	session.chatMu.Lock()
	session.appendChat(domain.ChatMessage{
		ID:        uuid.NewString(),
		Text:      note,
		Source:    domain.ChatSourceSystem,
		PatternID: pattern.ID,
		CreatedAt: time.Now().UTC(),
	})
	session.chatMu.Unlock()

	slog.Info("pattern_selected", "session_id", session.ID, "pattern_id", pattern.ID)
	return nil
}
