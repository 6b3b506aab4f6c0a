package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raazsocial/messaging/internal/domain"
)

func TestDeleteMessage_ForMeIsIdempotent(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMessage(ctx, msg.ID, "bob", false))
	require.NoError(t, svc.DeleteMessage(ctx, msg.ID, "bob", false))

	stored, err := store.GetMessage(ctx, nil, msg.ID)
	require.NoError(t, err)
	require.Len(t, stored.DeletedFor, 1)
	assert.True(t, stored.HiddenFor("bob"))
}

func TestDeleteMessage_ForEveryoneRemoves(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMessage(ctx, msg.ID, "alice", true))

	_, err = store.GetMessage(ctx, nil, msg.ID)
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)

	msgs, err := svc.GetMessages(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDeleteMessage_ForEveryoneSenderOnly(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)

	err = svc.DeleteMessage(ctx, msg.ID, "bob", true)
	assert.ErrorIs(t, err, domain.ErrNotSender)

	_, err = store.GetMessage(ctx, nil, msg.ID)
	assert.NoError(t, err, "message must survive a rejected delete")
}

func TestDeleteMessage_OutsiderRejected(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)

	err = svc.DeleteMessage(ctx, msg.ID, "mallory", false)
	assert.ErrorIs(t, err, domain.ErrNotParticipant)
}

func TestDeleteMessage_UnknownMessage(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.DeleteMessage(context.Background(), "missing", "alice", true)
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestDeleteMessage_ForMeDoesNotAffectUnseen(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMessage(ctx, msg.ID, "bob", false))

	conv, err := svc.GetConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, conv.UnseenCount["bob"], "tombstones never feed unseen counts")
}
