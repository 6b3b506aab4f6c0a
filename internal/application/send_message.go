package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raazsocial/messaging/internal/domain"
	"github.com/raazsocial/messaging/internal/observability"
)

// Attachment is an inbound file for the blob store.
type Attachment struct {
	Filename string
	Content  io.Reader
}

type SendMessageCommand struct {
	SenderID   string
	ReceiverID string
	Text       string
	Media      []Attachment
	VoiceNote  *Attachment
}

const (
	folderMedia      = "messages"
	folderVoiceNotes = "voiceNotes"
)

// SendMessage is the durable send path: find-or-create the pair's
// conversation, upload attachments, append the message, bump the receiver's
// unseen counter, then fire a best-effort live hint. Steps inside WithTx are
// atomic per pair via the conversation row lock; the hint goes out only
// after commit.
func (s *Service) SendMessage(ctx context.Context, cmd SendMessageCommand) (*domain.Message, error) {
	if cmd.SenderID == "" || cmd.ReceiverID == "" || cmd.SenderID == cmd.ReceiverID {
		return nil, domain.ErrInvalidInput
	}
	if cmd.Text == "" && len(cmd.Media) == 0 && cmd.VoiceNote == nil {
		return nil, domain.ErrEmptyMessage
	}

	// Uploads happen before the transaction; they can block on the external
	// store and must not hold row locks. A failed upload drops just that
	// attachment.
	var mediaURLs []string
	for _, att := range cmd.Media {
		url, err := s.blobs.Store(ctx, att.Content, att.Filename, folderMedia)
		if err != nil {
			observability.AttachmentUploadFailures.Inc()
			s.log.Warn("attachment upload failed, omitting",
				zap.String("filename", att.Filename),
				zap.Error(err),
			)
			continue
		}
		mediaURLs = append(mediaURLs, url)
	}

	var voiceURL string
	if cmd.VoiceNote != nil {
		url, err := s.blobs.Store(ctx, cmd.VoiceNote.Content, cmd.VoiceNote.Filename, folderVoiceNotes)
		if err != nil {
			observability.AttachmentUploadFailures.Inc()
			s.log.Warn("voice note upload failed, omitting",
				zap.String("filename", cmd.VoiceNote.Filename),
				zap.Error(err),
			)
		} else {
			voiceURL = url
		}
	}

	if cmd.Text == "" && len(mediaURLs) == 0 && voiceURL == "" {
		return nil, fmt.Errorf("every attachment upload failed: %w", domain.ErrEmptyMessage)
	}

	var result *domain.Message

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {

		conv, err := s.findOrCreateConversation(ctx, tx, cmd.SenderID, cmd.ReceiverID)
		if err != nil {
			return err
		}

		receiver, ok := conv.OtherParticipant(cmd.SenderID)
		if !ok || receiver != cmd.ReceiverID {
			return domain.ErrNotParticipant
		}

		msg, err := domain.NewMessage(
			uuid.NewString(),
			conv.ID,
			cmd.SenderID,
			receiver,
			cmd.Text,
			mediaURLs,
			voiceURL,
			time.Now().UTC(),
		)
		if err != nil {
			return err
		}

		if err := s.repo.InsertMessage(ctx, tx, msg); err != nil {
			return fmt.Errorf("append message: %w", err)
		}

		if err := s.repo.SetLastMessage(ctx, tx, conv.ID, msg.ID); err != nil {
			return fmt.Errorf("update last message: %w", err)
		}

		// The increment is part of the send: if it fails the whole send
		// fails, never a message without its counter bump.
		if err := s.repo.IncrementUnseen(ctx, tx, conv.ID, receiver); err != nil {
			return fmt.Errorf("increment unseen count: %w", err)
		}

		payload, err := messageSentEnvelope(msg)
		if err != nil {
			return err
		}
		if err := s.repo.InsertOutbox(ctx, tx, "message", conv.ID, EventMessageSent, payload); err != nil {
			return err
		}

		result = msg
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.MessagesSentTotal.Inc()
	s.log.Info("message sent",
		zap.String("conversation_id", result.ConversationID),
		zap.String("message_id", result.ID),
		zap.String("sender_id", result.Sender),
	)

	// Durable append committed; the live hint is a latency optimization
	// and may be dropped.
	s.notifier.MessageSent(result.Receiver, result)

	return result, nil
}

// findOrCreateConversation resolves the single conversation for the
// unordered pair, creating it lazily on first send. The unique lookup key
// makes concurrent first sends converge on one row, and the returned
// conversation is row-locked for the rest of the transaction.
func (s *Service) findOrCreateConversation(ctx context.Context, tx *sql.Tx, a, b string) (*domain.Conversation, error) {
	key := domain.DirectLookupKey(a, b)

	conv, err := s.repo.GetConversationByLookupKey(ctx, tx, key)
	if errors.Is(err, domain.ErrConversationNotFound) {
		fresh, cerr := domain.NewConversation(uuid.NewString(), a, b, time.Now().UTC())
		if cerr != nil {
			return nil, cerr
		}
		if cerr := s.repo.InsertConversation(ctx, tx, fresh); cerr != nil {
			return nil, fmt.Errorf("create conversation: %w", cerr)
		}
		// Re-read: a concurrent send for the same pair may have won the
		// unique index.
		conv, err = s.repo.GetConversationByLookupKey(ctx, tx, key)
	}
	if err != nil {
		return nil, err
	}

	return s.repo.GetConversationLocked(ctx, tx, conv.ID)
}
