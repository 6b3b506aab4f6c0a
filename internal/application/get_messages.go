package application

import (
	"context"

	"github.com/raazsocial/messaging/internal/domain"
)

// GetMessages returns the full history between selfID and peerID, oldest
// first. A pair that never talked yields ErrConversationNotFound, not an
// empty list; callers rely on the distinction. Hiding messages the caller
// soft-deleted is the presentation layer's job, not this operation's.
func (s *Service) GetMessages(ctx context.Context, selfID, peerID string) ([]*domain.Message, error) {
	if selfID == "" || peerID == "" {
		return nil, domain.ErrInvalidInput
	}

	conv, err := s.repo.GetConversationByLookupKey(ctx, nil, domain.DirectLookupKey(selfID, peerID))
	if err != nil {
		return nil, err
	}

	msgs, err := s.repo.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return msgs, nil
}

// GetConversation resolves the pair's conversation record, unseen counters
// included.
func (s *Service) GetConversation(ctx context.Context, selfID, peerID string) (*domain.Conversation, error) {
	if selfID == "" || peerID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.repo.GetConversationByLookupKey(ctx, nil, domain.DirectLookupKey(selfID, peerID))
}
