package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

const (
	headerContentType = "Content-Type"
	headerSessionID   = "Batikgram-Session"
	headerOutcome     = "Batikgram-Outcome"
)

func encodeEvent(subject string, event domain.FittingEvent) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal fitting event: %w", err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(headerContentType, "application/json")
	msg.Header.Set(headerSessionID, event.SessionID)
	msg.Header.Set(headerOutcome, string(event.Outcome))
	return msg, nil
}

func decodeEvent(msg *nats.Msg) (domain.FittingEvent, error) {
	var event domain.FittingEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return domain.FittingEvent{}, fmt.Errorf("unmarshal fitting event: %w", err)
	}
	if event.SessionID == "" && msg.Header != nil {
		event.SessionID = msg.Header.Get(headerSessionID)
	}
	return event, nil
}
