package domain

import "time"

type ChatSource string

const (
	ChatSourceUser   ChatSource = "user"
	ChatSourceRemote ChatSource = "remote"
	ChatSourceLocal  ChatSource = "local"
	ChatSourceSystem ChatSource = "system"
)

type ChatMessage struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	FromUser  bool       `json:"from_user"`
	Source    ChatSource `json:"source"`
	PatternID string     `json:"pattern_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
