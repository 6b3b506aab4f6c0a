package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/raazsocial/messaging/internal/domain"
)

// Store is an in-memory Repository used by tests and the dev storage mode.
// One mutex guards everything, which also serializes the composite
// send-path read-modify-write the way row locks do in Postgres.
type Store struct {
	mu            sync.Mutex
	conversations map[string]*domain.Conversation
	byLookupKey   map[string]string
	messages      map[string]*domain.Message
	outbox        []OutboxEvent
}

type OutboxEvent struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

func New() *Store {
	return &Store{
		conversations: make(map[string]*domain.Conversation),
		byLookupKey:   make(map[string]string),
		messages:      make(map[string]*domain.Message),
	}
}

func cloneConversation(c *domain.Conversation) *domain.Conversation {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	cp.UnseenCount = make(map[string]int, len(c.UnseenCount))
	for k, v := range c.UnseenCount {
		cp.UnseenCount[k] = v
	}
	return &cp
}

func cloneMessage(m *domain.Message) *domain.Message {
	cp := *m
	cp.Media = append([]string(nil), m.Media...)
	cp.Reactions = make(map[string]string, len(m.Reactions))
	for k, v := range m.Reactions {
		cp.Reactions[k] = v
	}
	cp.DeletedFor = make(map[string]struct{}, len(m.DeletedFor))
	for k := range m.DeletedFor {
		cp.DeletedFor[k] = struct{}{}
	}
	return &cp
}

func (s *Store) GetConversationByLookupKey(ctx context.Context, tx *sql.Tx, key string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byLookupKey[key]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return cloneConversation(s.conversations[id]), nil
}

func (s *Store) InsertConversation(ctx context.Context, tx *sql.Tx, conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := conv.LookupKey()
	if _, exists := s.byLookupKey[key]; exists {
		return nil
	}
	s.conversations[conv.ID] = cloneConversation(conv)
	s.byLookupKey[key] = conv.ID
	return nil
}

func (s *Store) GetConversationLocked(ctx context.Context, tx *sql.Tx, id string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return cloneConversation(conv), nil
}

func (s *Store) SetLastMessage(ctx context.Context, tx *sql.Tx, convID, msgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	conv.LastMessage = msgID
	return nil
}

func (s *Store) IncrementUnseen(ctx context.Context, tx *sql.Tx, convID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	conv.UnseenCount[userID]++
	return nil
}

func (s *Store) ResetUnseen(ctx context.Context, tx *sql.Tx, convID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	conv.UnseenCount[userID] = 0
	return nil
}

func (s *Store) InsertMessage(ctx context.Context, tx *sql.Tx, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[msg.ID] = cloneMessage(msg)
	return nil
}

func (s *Store) GetMessage(ctx context.Context, tx *sql.Tx, msgID string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[msgID]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	return cloneMessage(msg), nil
}

func (s *Store) ListMessages(ctx context.Context, convID string) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Message
	for _, msg := range s.messages {
		if msg.ConversationID == convID {
			out = append(out, cloneMessage(msg))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) MarkConversationSeen(ctx context.Context, tx *sql.Tx, convID, receiverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range s.messages {
		if msg.ConversationID == convID && msg.Receiver == receiverID && !msg.IsSeen {
			msg.IsSeen = true
		}
	}
	return nil
}

func (s *Store) UpsertReaction(ctx context.Context, tx *sql.Tx, msgID, userID, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[msgID]
	if !ok {
		return domain.ErrMessageNotFound
	}
	msg.Reactions[userID] = emoji
	return nil
}

func (s *Store) AddDeletedFor(ctx context.Context, tx *sql.Tx, msgID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[msgID]
	if !ok {
		return domain.ErrMessageNotFound
	}
	msg.DeletedFor[userID] = struct{}{}
	return nil
}

func (s *Store) DeleteMessage(ctx context.Context, tx *sql.Tx, msgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[msgID]; !ok {
		return domain.ErrMessageNotFound
	}
	delete(s.messages, msgID)
	return nil
}

func (s *Store) InsertOutbox(ctx context.Context, tx *sql.Tx, aggregateType, aggregateID, eventType string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outbox = append(s.outbox, OutboxEvent{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       append([]byte(nil), payload...),
	})
	return nil
}

// OutboxEvents returns a snapshot of accumulated outbox events, oldest first.
func (s *Store) OutboxEvents() []OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OutboxEvent(nil), s.outbox...)
}
