package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/raazsocial/messaging/internal/cache"
	"github.com/raazsocial/messaging/internal/domain"
)

// Repository persists conversations and messages in Postgres. The Cache is a
// best-effort read-through for the pair lookup key -> conversation id; cache
// failures never fail a request.
type Repository struct {
	DB    *sql.DB
	Cache *cache.Cache
}

type queryable interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *Repository) getter(tx *sql.Tx) queryable {
	if tx != nil {
		return tx
	}
	return r.DB
}

const lookupCacheTTL = 12 * time.Hour

func (r *Repository) GetConversationByLookupKey(
	ctx context.Context,
	tx *sql.Tx,
	key string,
) (*domain.Conversation, error) {

	if tx == nil && r.Cache != nil {
		if id, err := r.Cache.Client.Get(ctx, "chat:lookup:"+key).Result(); err == nil && id != "" {
			if conv, err := r.getConversation(ctx, nil, id, false); err == nil {
				return conv, nil
			}
		}
	}

	q := r.getter(tx)
	var id string
	err := q.QueryRowContext(ctx, `
		SELECT id FROM conversations WHERE lookup_key = $1
	`, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	if r.Cache != nil {
		_ = r.Cache.Client.Set(ctx, "chat:lookup:"+key, id, lookupCacheTTL).Err()
	}

	return r.getConversation(ctx, tx, id, false)
}

func (r *Repository) InsertConversation(
	ctx context.Context,
	tx *sql.Tx,
	conv *domain.Conversation,
) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO conversations (id, participant_a, participant_b, lookup_key, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lookup_key) DO NOTHING
	`, conv.ID, conv.Participants[0], conv.Participants[1], conv.LookupKey(), conv.CreatedAt)
	return err
}

func (r *Repository) GetConversationLocked(
	ctx context.Context,
	tx *sql.Tx,
	id string,
) (*domain.Conversation, error) {
	return r.getConversation(ctx, tx, id, true)
}

func (r *Repository) getConversation(
	ctx context.Context,
	tx *sql.Tx,
	id string,
	forUpdate bool,
) (*domain.Conversation, error) {

	q := r.getter(tx)

	query := `
		SELECT id, participant_a, participant_b, COALESCE(last_message_id, ''), created_at
		FROM conversations
		WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	conv := &domain.Conversation{UnseenCount: make(map[string]int)}
	var a, b string
	err := q.QueryRowContext(ctx, query, id).Scan(&conv.ID, &a, &b, &conv.LastMessage, &conv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	conv.Participants = []string{a, b}

	rows, err := q.QueryContext(ctx, `
		SELECT user_id, count FROM conversation_unseen WHERE conversation_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, err
		}
		conv.UnseenCount[userID] = count
	}
	return conv, rows.Err()
}

func (r *Repository) SetLastMessage(ctx context.Context, tx *sql.Tx, convID, msgID string) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		UPDATE conversations SET last_message_id = $2 WHERE id = $1
	`, convID, msgID)
	return err
}

func (r *Repository) IncrementUnseen(ctx context.Context, tx *sql.Tx, convID, userID string) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO conversation_unseen (conversation_id, user_id, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (conversation_id, user_id)
		DO UPDATE SET count = conversation_unseen.count + 1
	`, convID, userID)
	return err
}

func (r *Repository) ResetUnseen(ctx context.Context, tx *sql.Tx, convID, userID string) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO conversation_unseen (conversation_id, user_id, count)
		VALUES ($1, $2, 0)
		ON CONFLICT (conversation_id, user_id)
		DO UPDATE SET count = 0
	`, convID, userID)
	return err
}

func (r *Repository) InsertMessage(ctx context.Context, tx *sql.Tx, msg *domain.Message) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO messages (
			id, conversation_id, sender_id, receiver_id,
			text, media, voice_note, is_seen, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		msg.ID,
		msg.ConversationID,
		msg.Sender,
		msg.Receiver,
		msg.Text,
		pq.Array(msg.Media),
		msg.VoiceNote,
		msg.IsSeen,
		msg.CreatedAt,
	)
	return err
}

func (r *Repository) GetMessage(ctx context.Context, tx *sql.Tx, msgID string) (*domain.Message, error) {
	q := r.getter(tx)

	msg := &domain.Message{
		Reactions:  make(map[string]string),
		DeletedFor: make(map[string]struct{}),
	}
	var media pq.StringArray
	err := q.QueryRowContext(ctx, `
		SELECT id, conversation_id, sender_id, receiver_id,
		       text, media, COALESCE(voice_note, ''), is_seen, created_at
		FROM messages
		WHERE id = $1
	`, msgID).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Sender,
		&msg.Receiver,
		&msg.Text,
		&media,
		&msg.VoiceNote,
		&msg.IsSeen,
		&msg.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	msg.Media = media

	rows, err := q.QueryContext(ctx, `
		SELECT user_id, emoji FROM message_reactions WHERE message_id = $1
	`, msgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID, emoji string
		if err := rows.Scan(&userID, &emoji); err != nil {
			return nil, err
		}
		msg.Reactions[userID] = emoji
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	drows, err := q.QueryContext(ctx, `
		SELECT user_id FROM message_deleted_for WHERE message_id = $1
	`, msgID)
	if err != nil {
		return nil, err
	}
	defer drows.Close()
	for drows.Next() {
		var userID string
		if err := drows.Scan(&userID); err != nil {
			return nil, err
		}
		msg.DeletedFor[userID] = struct{}{}
	}
	return msg, drows.Err()
}

func (r *Repository) ListMessages(ctx context.Context, convID string) ([]*domain.Message, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, receiver_id,
		       text, media, COALESCE(voice_note, ''), is_seen, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	byID := make(map[string]*domain.Message)

	for rows.Next() {
		msg := &domain.Message{
			Reactions:  make(map[string]string),
			DeletedFor: make(map[string]struct{}),
		}
		var media pq.StringArray
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Sender,
			&msg.Receiver,
			&msg.Text,
			&media,
			&msg.VoiceNote,
			&msg.IsSeen,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		msg.Media = media
		messages = append(messages, msg)
		byID[msg.ID] = msg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(messages) == 0 {
		return messages, nil
	}

	rrows, err := r.DB.QueryContext(ctx, `
		SELECT r.message_id, r.user_id, r.emoji
		FROM message_reactions r
		JOIN messages m ON m.id = r.message_id
		WHERE m.conversation_id = $1
	`, convID)
	if err != nil {
		return nil, err
	}
	defer rrows.Close()
	for rrows.Next() {
		var msgID, userID, emoji string
		if err := rrows.Scan(&msgID, &userID, &emoji); err != nil {
			return nil, err
		}
		if msg, ok := byID[msgID]; ok {
			msg.Reactions[userID] = emoji
		}
	}
	if err := rrows.Err(); err != nil {
		return nil, err
	}

	drows, err := r.DB.QueryContext(ctx, `
		SELECT d.message_id, d.user_id
		FROM message_deleted_for d
		JOIN messages m ON m.id = d.message_id
		WHERE m.conversation_id = $1
	`, convID)
	if err != nil {
		return nil, err
	}
	defer drows.Close()
	for drows.Next() {
		var msgID, userID string
		if err := drows.Scan(&msgID, &userID); err != nil {
			return nil, err
		}
		if msg, ok := byID[msgID]; ok {
			msg.DeletedFor[userID] = struct{}{}
		}
	}
	return messages, drows.Err()
}

func (r *Repository) MarkConversationSeen(ctx context.Context, tx *sql.Tx, convID, receiverID string) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		UPDATE messages
		SET is_seen = TRUE
		WHERE conversation_id = $1 AND receiver_id = $2 AND is_seen = FALSE
	`, convID, receiverID)
	return err
}

func (r *Repository) UpsertReaction(ctx context.Context, tx *sql.Tx, msgID, userID, emoji string) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO message_reactions (message_id, user_id, emoji)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, user_id)
		DO UPDATE SET emoji = EXCLUDED.emoji
	`, msgID, userID, emoji)
	return err
}

func (r *Repository) AddDeletedFor(ctx context.Context, tx *sql.Tx, msgID, userID string) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO message_deleted_for (message_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id, user_id) DO NOTHING
	`, msgID, userID)
	return err
}

func (r *Repository) DeleteMessage(ctx context.Context, tx *sql.Tx, msgID string) error {
	q := r.getter(tx)
	res, err := q.ExecContext(ctx, `
		DELETE FROM messages WHERE id = $1
	`, msgID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *Repository) InsertOutbox(
	ctx context.Context,
	tx *sql.Tx,
	aggregateType, aggregateID, eventType string,
	payload []byte,
) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO outbox_events (aggregate_type, aggregate_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
	`, aggregateType, aggregateID, eventType, payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
