package domain

import "time"

const MaxMessageSize = 5000

// Message Invariants:
// 1. ConversationID references an existing conversation whose participants
//    include both Sender and Receiver.
// 2. Reactions is keyed by user id, so a user holds at most one reaction;
//    a repeat reaction overwrites.
// 3. DeletedFor hides the message from that viewer's history only. It is
//    never consulted by unseen-count logic.
// 4. A message deleted for everyone is removed from the store entirely.
type Message struct {
	ID             string
	ConversationID string
	Sender         string
	Receiver       string
	Text           string
	Media          []string
	VoiceNote      string
	IsSeen         bool
	Reactions      map[string]string
	DeletedFor     map[string]struct{}
	CreatedAt      time.Time
}

func NewMessage(id, conversationID, sender, receiver, text string, media []string, voiceNote string, now time.Time) (*Message, error) {
	if id == "" || conversationID == "" || sender == "" || receiver == "" {
		return nil, ErrInvalidInput
	}
	if text == "" && len(media) == 0 && voiceNote == "" {
		return nil, ErrEmptyMessage
	}
	if len(text) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}
	return &Message{
		ID:             id,
		ConversationID: conversationID,
		Sender:         sender,
		Receiver:       receiver,
		Text:           text,
		Media:          media,
		VoiceNote:      voiceNote,
		Reactions:      make(map[string]string),
		DeletedFor:     make(map[string]struct{}),
		CreatedAt:      now,
	}, nil
}

// HiddenFor reports whether userID soft-deleted this message.
func (m *Message) HiddenFor(userID string) bool {
	_, ok := m.DeletedFor[userID]
	return ok
}
