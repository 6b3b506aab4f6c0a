package ws

import (
	"encoding/json"
	"time"

	"github.com/raazsocial/messaging/internal/domain"
)

// Envelope is the wire frame for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound events.
const (
	EventJoin        = "join"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
	EventSendMessage = "sendMessage"
	EventSeenMessage = "seenMessage"
)

// Outbound events. The presence snapshot event lives in the presence
// package; the rest are unicast.
const (
	EventNewMessage  = "newMessage"
	EventMessageSeen = "messageSeen"
)

type JoinPayload struct {
	UserID string `json:"userId"`
}

type TypingPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

// RelayMessagePayload is the fire-and-forget live hint path. Message is
// opaque to the router; it is forwarded verbatim to the receiver.
type RelayMessagePayload struct {
	SenderID   string          `json:"senderId"`
	ReceiverID string          `json:"receiverId"`
	Message    json.RawMessage `json:"message"`
}

type SeenPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	MessageID  string `json:"messageId"`
}

type NewMessagePayload struct {
	SenderID string          `json:"senderId"`
	Message  json.RawMessage `json:"message"`
}

type MessageSeenPayload struct {
	ReceiverID string `json:"receiverId"`
	MessageID  string `json:"messageId"`
}

// messageJSON is the live-hint view of a durable message.
type messageJSON struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversationId"`
	Sender         string            `json:"sender"`
	Receiver       string            `json:"receiver"`
	Text           string            `json:"text,omitempty"`
	Media          []string          `json:"media,omitempty"`
	VoiceNote      string            `json:"voiceNote,omitempty"`
	IsSeen         bool              `json:"isSeen"`
	Reactions      map[string]string `json:"reactions,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

func encodeMessage(m *domain.Message) json.RawMessage {
	raw, err := json.Marshal(messageJSON{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         m.Sender,
		Receiver:       m.Receiver,
		Text:           m.Text,
		Media:          m.Media,
		VoiceNote:      m.VoiceNote,
		IsSeen:         m.IsSeen,
		Reactions:      m.Reactions,
		CreatedAt:      m.CreatedAt,
	})
	if err != nil {
		return nil
	}
	return raw
}
