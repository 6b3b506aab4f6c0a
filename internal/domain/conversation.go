package domain

import (
	"sort"
	"strings"
	"time"
)

// Conversation Invariants:
// 1. Exactly one conversation exists per unordered pair of participants.
//    LookupKey is derived from the sorted pair and carries a unique index.
// 2. UnseenCount[u] is the number of messages u has not yet marked seen.
//    It is only mutated inside the send / mark-seen transactions.
// 3. LastMessage points at the most recent message id, empty while the
//    conversation has no messages.
type Conversation struct {
	ID           string
	Participants []string
	LastMessage  string
	UnseenCount  map[string]int
	CreatedAt    time.Time
}

// DirectLookupKey returns the canonical lookup key for the unordered pair
// (a, b). Both orders of the same pair map to the same key.
func DirectLookupKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return "direct:" + a + ":" + b
}

func NewConversation(id, a, b string, now time.Time) (*Conversation, error) {
	if id == "" || a == "" || b == "" || a == b {
		return nil, ErrInvalidInput
	}
	participants := []string{a, b}
	sort.Strings(participants)
	return &Conversation{
		ID:           id,
		Participants: participants,
		UnseenCount:  make(map[string]int),
		CreatedAt:    now,
	}, nil
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant resolves the receiver for a message sent by userID.
func (c *Conversation) OtherParticipant(userID string) (string, bool) {
	for _, p := range c.Participants {
		if p != userID {
			return p, true
		}
	}
	return "", false
}

func (c *Conversation) LookupKey() string {
	if len(c.Participants) != 2 {
		return ""
	}
	return "direct:" + strings.Join(c.Participants, ":")
}
