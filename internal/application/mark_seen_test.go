package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raazsocial/messaging/internal/domain"
)

func TestMarkSeen_ResetsUnseenAndFlipsMessages(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	var convID string
	for i := 0; i < 3; i++ {
		msg, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
		require.NoError(t, err)
		convID = msg.ConversationID
	}

	require.NoError(t, svc.MarkSeen(ctx, convID, "bob"))

	conv, err := svc.GetConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, conv.UnseenCount["bob"])

	msgs, err := store.ListMessages(ctx, convID)
	require.NoError(t, err)
	for _, m := range msgs {
		assert.True(t, m.IsSeen, "message %s should be seen", m.ID)
	}
}

func TestMarkSeen_Idempotent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkSeen(ctx, msg.ConversationID, "bob"))
	require.NoError(t, svc.MarkSeen(ctx, msg.ConversationID, "bob"))

	conv, err := svc.GetConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, conv.UnseenCount["bob"])
}

func TestMarkSeen_DoesNotTouchSendersOwnUnseen(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	// Both directions have traffic.
	m1, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "to bob"})
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, SendMessageCommand{SenderID: "bob", ReceiverID: "alice", Text: "to alice"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkSeen(ctx, m1.ConversationID, "bob"))

	conv, err := svc.GetConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, conv.UnseenCount["bob"])
	assert.Equal(t, 1, conv.UnseenCount["alice"])
}

func TestMarkSeen_NotifiesOriginalSender(t *testing.T) {
	svc, _, notifier := newTestService()
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkSeen(ctx, msg.ConversationID, "bob"))

	calls := notifier.snapshot()
	require.Len(t, calls, 2)
	seen := calls[1]
	assert.Equal(t, "seen", seen.kind)
	assert.Equal(t, "alice", seen.userID)
	assert.Equal(t, "bob", seen.receiverID)
	assert.Equal(t, msg.ID, seen.messageID)
}

func TestMarkSeen_RejectsNonParticipant(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)

	err = svc.MarkSeen(ctx, msg.ConversationID, "mallory")
	assert.ErrorIs(t, err, domain.ErrNotParticipant)
}

func TestMarkSeen_UnknownConversation(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.MarkSeen(context.Background(), "nope", "bob")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}
