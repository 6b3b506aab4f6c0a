package application

import (
	"context"
	"database/sql"

	"github.com/raazsocial/messaging/internal/domain"
)

// React upserts userID's reaction on the message. A repeat reaction from
// the same user overwrites; the reaction map keyed by user makes
// at-most-one-per-user structural.
func (s *Service) React(ctx context.Context, messageID, userID, emoji string) (*domain.Message, error) {
	if messageID == "" || userID == "" || emoji == "" {
		return nil, domain.ErrInvalidInput
	}

	var result *domain.Message

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		msg, err := s.repo.GetMessage(ctx, tx, messageID)
		if err != nil {
			return err
		}

		if err := s.repo.UpsertReaction(ctx, tx, messageID, userID, emoji); err != nil {
			return err
		}

		msg.Reactions[userID] = emoji
		result = msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
