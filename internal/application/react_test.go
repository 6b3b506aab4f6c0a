package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raazsocial/messaging/internal/domain"
)

func TestReact_UpsertOverwrites(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)

	_, err = svc.React(ctx, msg.ID, "bob", "❤️")
	require.NoError(t, err)

	updated, err := svc.React(ctx, msg.ID, "bob", "😂")
	require.NoError(t, err)

	require.Len(t, updated.Reactions, 1)
	assert.Equal(t, "😂", updated.Reactions["bob"])

	stored, err := store.GetMessage(ctx, nil, msg.ID)
	require.NoError(t, err)
	require.Len(t, stored.Reactions, 1)
	assert.Equal(t, "😂", stored.Reactions["bob"])
}

func TestReact_MultipleUsers(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)

	_, err = svc.React(ctx, msg.ID, "alice", "👍")
	require.NoError(t, err)
	updated, err := svc.React(ctx, msg.ID, "bob", "❤️")
	require.NoError(t, err)

	assert.Equal(t, "👍", updated.Reactions["alice"])
	assert.Equal(t, "❤️", updated.Reactions["bob"])
}

func TestReact_UnknownMessage(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.React(context.Background(), "missing", "bob", "❤️")
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestReact_EmptyEmojiRejected(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.React(context.Background(), "some-id", "bob", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
