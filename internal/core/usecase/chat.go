package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/ports"
)

const maxChatQueryRunes = 2000

type ChatService struct {
	remote   ports.RemoteChat
	local    *LocalResponder
	observer ports.ChatObserver
	timeout  time.Duration
}

func NewChatService(remote ports.RemoteChat, local *LocalResponder, observer ports.ChatObserver, timeout time.Duration) *ChatService {
	if local == nil {
		local = NewLocalResponder(nil)
	}
	return &ChatService{remote: remote, local: local, observer: observer, timeout: timeout}
}

// Respond asks the remote model first and falls back to the local rules on
// any error or blank answer. Only invalid input is returned as an error.
func (uc *ChatService) Respond(ctx context.Context, text, patternID string) (string, domain.ChatSource, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return "", "", domain.WrapError(domain.ErrInvalidInput, "chat respond", errors.New("message is required"))
	}
	if len([]rune(query)) > maxChatQueryRunes {
		return "", "", domain.WrapError(domain.ErrInvalidInput, "chat respond", errors.New("message is too long"))
	}
	patternID = strings.TrimSpace(patternID)

	if uc.remote != nil {
		reply, err := uc.askRemote(ctx, query, patternID)
		switch {
		case err != nil:
			slog.Warn("chat_remote_failed", "pattern_id", patternID, "error", err)
		case strings.TrimSpace(reply) == "":
			slog.Warn("chat_remote_empty", "pattern_id", patternID)
		default:
			uc.observe(domain.ChatSourceRemote)
			return strings.TrimSpace(reply), domain.ChatSourceRemote, nil
		}
	}

	uc.observe(domain.ChatSourceLocal)
	return uc.local.Reply(query, patternID), domain.ChatSourceLocal, nil
}

// Send appends the user's message and then the reply to the session
// transcript. The chat lock is held across the remote call so replies keep
// the order of the questions.
func (uc *ChatService) Send(ctx context.Context, session *Session, text, patternID string) ([]domain.ChatMessage, error) {
	if strings.TrimSpace(patternID) == "" {
		patternID = session.PatternID()
	}

	session.chatMu.Lock()
	defer session.chatMu.Unlock()

	reply, source, err := uc.Respond(ctx, text, patternID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	question := domain.ChatMessage{
		ID:        uuid.NewString(),
		Text:      strings.TrimSpace(text),
		FromUser:  true,
		Source:    domain.ChatSourceUser,
		PatternID: patternID,
		CreatedAt: now,
	}
	answer := domain.ChatMessage{
		ID:        uuid.NewString(),
		Text:      reply,
		Source:    source,
		PatternID: patternID,
		CreatedAt: time.Now().UTC(),
	}
	session.appendChat(question, answer)
	return []domain.ChatMessage{question, answer}, nil
}

func (uc *ChatService) askRemote(ctx context.Context, query, patternID string) (string, error) {
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}
	return uc.remote.Respond(ctx, query, patternID)
}

func (uc *ChatService) observe(source domain.ChatSource) {
	if uc.observer != nil {
		uc.observer.ObserveChatReply(source)
	}
}
