package repository

import (
	"context"
	"database/sql"

	"github.com/raazsocial/messaging/internal/domain"
)

// Repository is the durable conversation/message store. Methods that take a
// *sql.Tx participate in a caller-managed transaction; implementations that
// have no transaction concept ignore it.
type Repository interface {
	// Conversations
	GetConversationByLookupKey(ctx context.Context, tx *sql.Tx, key string) (*domain.Conversation, error)
	InsertConversation(ctx context.Context, tx *sql.Tx, conv *domain.Conversation) error
	GetConversationLocked(ctx context.Context, tx *sql.Tx, id string) (*domain.Conversation, error)
	SetLastMessage(ctx context.Context, tx *sql.Tx, convID, msgID string) error
	IncrementUnseen(ctx context.Context, tx *sql.Tx, convID, userID string) error
	ResetUnseen(ctx context.Context, tx *sql.Tx, convID, userID string) error

	// Messages
	InsertMessage(ctx context.Context, tx *sql.Tx, msg *domain.Message) error
	GetMessage(ctx context.Context, tx *sql.Tx, msgID string) (*domain.Message, error)
	ListMessages(ctx context.Context, convID string) ([]*domain.Message, error)
	MarkConversationSeen(ctx context.Context, tx *sql.Tx, convID, receiverID string) error
	UpsertReaction(ctx context.Context, tx *sql.Tx, msgID, userID, emoji string) error
	AddDeletedFor(ctx context.Context, tx *sql.Tx, msgID, userID string) error
	DeleteMessage(ctx context.Context, tx *sql.Tx, msgID string) error

	// Outbox
	InsertOutbox(ctx context.Context, tx *sql.Tx, aggregateType, aggregateID, eventType string, payload []byte) error
}
