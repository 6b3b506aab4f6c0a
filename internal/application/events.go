package application

import (
	"encoding/json"
	"time"

	"github.com/raazsocial/messaging/internal/domain"
)

// Outbox event types. The outbox worker maps these onto Kafka topics.
const (
	EventMessageSent    = "MESSAGE_SENT"
	EventMessagesSeen   = "MESSAGES_SEEN"
	EventMessageDeleted = "MESSAGE_DELETED"
)

// EventEnvelope wraps every outbox payload with type and schema metadata so
// consumers can route without decoding the body.
type EventEnvelope struct {
	EventType     string          `json:"event_type"`
	SchemaVersion int             `json:"schema_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

type MessageSentEvent struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	SentAt         time.Time `json:"sent_at"`
}

type MessagesSeenEvent struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

type MessageDeletedEvent struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	ForEveryone    bool   `json:"for_everyone"`
}

func envelope(eventType string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(EventEnvelope{
		EventType:     eventType,
		SchemaVersion: 1,
		OccurredAt:    time.Now().UTC(),
		Payload:       body,
	})
}

func messageSentEnvelope(msg *domain.Message) ([]byte, error) {
	return envelope(EventMessageSent, MessageSentEvent{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		SenderID:       msg.Sender,
		ReceiverID:     msg.Receiver,
		SentAt:         msg.CreatedAt,
	})
}
