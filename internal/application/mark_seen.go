package application

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/raazsocial/messaging/internal/domain"
)

// MarkSeen flips every unseen message addressed to selfID in the
// conversation and resets selfID's unseen counter. Idempotent: when all is
// already seen the flip and reset are no-ops. A message whose send commits
// after this transaction stays unseen until the next call.
func (s *Service) MarkSeen(ctx context.Context, conversationID, selfID string) error {
	if conversationID == "" || selfID == "" {
		return domain.ErrInvalidInput
	}

	var peer, lastMessage string

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {

		conv, err := s.repo.GetConversationLocked(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(selfID) {
			return domain.ErrNotParticipant
		}

		if err := s.repo.MarkConversationSeen(ctx, tx, conversationID, selfID); err != nil {
			return err
		}
		if err := s.repo.ResetUnseen(ctx, tx, conversationID, selfID); err != nil {
			return err
		}

		payload, err := envelope(EventMessagesSeen, MessagesSeenEvent{
			ConversationID: conversationID,
			UserID:         selfID,
		})
		if err != nil {
			return err
		}
		if err := s.repo.InsertOutbox(ctx, tx, "message", conversationID, EventMessagesSeen, payload); err != nil {
			return err
		}

		peer, _ = conv.OtherParticipant(selfID)
		lastMessage = conv.LastMessage
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("conversation marked seen",
		zap.String("conversation_id", conversationID),
		zap.String("user_id", selfID),
	)

	// Tell the other participant's live connection, if any, that their
	// latest message was seen.
	if peer != "" && lastMessage != "" {
		s.notifier.MessageSeen(peer, selfID, lastMessage)
	}

	return nil
}
