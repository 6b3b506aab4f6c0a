package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raazsocial/messaging/internal/domain"
	"github.com/raazsocial/messaging/internal/repository/memory"
	"github.com/raazsocial/messaging/internal/tx"
)

func TestSendMessage_ReusesConversationForPair(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	m1, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "one"})
	require.NoError(t, err)

	m2, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "two"})
	require.NoError(t, err)

	// Reverse direction must land in the same conversation.
	m3, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "bob", ReceiverID: "alice", Text: "three"})
	require.NoError(t, err)

	assert.Equal(t, m1.ConversationID, m2.ConversationID)
	assert.Equal(t, m1.ConversationID, m3.ConversationID)
}

func TestSendMessage_IncrementsReceiverUnseen(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	const n = 5
	var convID string
	for i := 0; i < n; i++ {
		msg, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hey"})
		require.NoError(t, err)
		convID = msg.ConversationID
	}

	conv, err := svc.GetConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, convID, conv.ID)
	assert.Equal(t, n, conv.UnseenCount["bob"])
	assert.Equal(t, 0, conv.UnseenCount["alice"])
}

func TestSendMessage_UpdatesLastMessage(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "first"})
	require.NoError(t, err)
	last, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "second"})
	require.NoError(t, err)

	conv, err := svc.GetConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, last.ID, conv.LastMessage)
}

func TestSendMessage_RejectsEmpty(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.SendMessage(context.Background(), SendMessageCommand{SenderID: "alice", ReceiverID: "bob"})
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestSendMessage_RejectsSelfSend(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.SendMessage(context.Background(), SendMessageCommand{SenderID: "alice", ReceiverID: "alice", Text: "hi"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSendMessage_FiresLiveHintAfterCommit(t *testing.T) {
	svc, store, notifier := newTestService()

	msg, err := svc.SendMessage(context.Background(), SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hi"})
	require.NoError(t, err)

	calls := notifier.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "sent", calls[0].kind)
	assert.Equal(t, "bob", calls[0].userID)
	assert.Equal(t, msg.ID, calls[0].msg.ID)

	// The durable append committed before the hint: the message is loadable
	// and the outbox row exists.
	stored, err := store.GetMessage(context.Background(), nil, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", stored.Text)

	events := store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventMessageSent, events[0].EventType)
}

func TestSendMessage_OmitsFailedAttachment(t *testing.T) {
	svc := newServiceWithBlobFailures(t, map[string]bool{"broken.png": true})

	msg, err := svc.SendMessage(context.Background(), SendMessageCommand{
		SenderID:   "alice",
		ReceiverID: "bob",
		Media: []Attachment{
			{Filename: "ok.png", Content: strings.NewReader("pixels")},
			{Filename: "broken.png", Content: strings.NewReader("pixels")},
		},
	})
	require.NoError(t, err)

	require.Len(t, msg.Media, 1)
	assert.Contains(t, msg.Media[0], "ok.png")
}

func TestSendMessage_FailsWhenEverythingDropped(t *testing.T) {
	svc := newServiceWithBlobFailures(t, map[string]bool{"broken.png": true})

	_, err := svc.SendMessage(context.Background(), SendMessageCommand{
		SenderID:   "alice",
		ReceiverID: "bob",
		Media: []Attachment{
			{Filename: "broken.png", Content: strings.NewReader("pixels")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestSendMessage_VoiceNoteUploaded(t *testing.T) {
	svc, _, _ := newTestService()

	msg, err := svc.SendMessage(context.Background(), SendMessageCommand{
		SenderID:   "alice",
		ReceiverID: "bob",
		VoiceNote:  &Attachment{Filename: "note.ogg", Content: strings.NewReader("audio")},
	})
	require.NoError(t, err)
	assert.Contains(t, msg.VoiceNote, "voiceNotes/")
}

func newServiceWithBlobFailures(t *testing.T, fail map[string]bool) *Service {
	t.Helper()
	return New(
		memory.New(),
		tx.Passthrough{},
		&fakeBlobStore{fail: fail},
		&captureNotifier{},
		zap.NewNop(),
	)
}
