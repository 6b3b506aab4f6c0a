package application

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/raazsocial/messaging/internal/domain"
)

// DeleteMessage removes a message for everyone (hard delete, sender only)
// or hides it for the requesting user (idempotent tombstone). The tombstone
// never feeds back into unseen counts.
func (s *Service) DeleteMessage(ctx context.Context, messageID, userID string, forEveryone bool) error {
	if messageID == "" || userID == "" {
		return domain.ErrInvalidInput
	}

	return s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {

		msg, err := s.repo.GetMessage(ctx, tx, messageID)
		if err != nil {
			return err
		}

		if msg.Sender != userID && msg.Receiver != userID {
			return domain.ErrNotParticipant
		}

		if !forEveryone {
			return s.repo.AddDeletedFor(ctx, tx, messageID, userID)
		}

		if msg.Sender != userID {
			return domain.ErrNotSender
		}

		if err := s.repo.DeleteMessage(ctx, tx, messageID); err != nil {
			return err
		}

		payload, err := envelope(EventMessageDeleted, MessageDeletedEvent{
			ConversationID: msg.ConversationID,
			MessageID:      messageID,
			ForEveryone:    true,
		})
		if err != nil {
			return err
		}
		if err := s.repo.InsertOutbox(ctx, tx, "message", msg.ConversationID, EventMessageDeleted, payload); err != nil {
			return err
		}

		s.log.Info("message deleted for everyone",
			zap.String("message_id", messageID),
			zap.String("conversation_id", msg.ConversationID),
		)
		return nil
	})
}
