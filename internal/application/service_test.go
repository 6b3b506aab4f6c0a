package application

import (
	"context"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/raazsocial/messaging/internal/domain"
	"github.com/raazsocial/messaging/internal/media"
	"github.com/raazsocial/messaging/internal/repository/memory"
	"github.com/raazsocial/messaging/internal/tx"
)

// fakeBlobStore succeeds for every file except those listed in fail.
type fakeBlobStore struct {
	fail map[string]bool
}

func (f *fakeBlobStore) Store(ctx context.Context, r io.Reader, filename, folder string) (string, error) {
	if f.fail[filename] {
		return "", media.ErrStorage
	}
	return "https://cdn.test/" + folder + "/" + filename, nil
}

type notifierCall struct {
	kind       string
	userID     string
	receiverID string
	messageID  string
	msg        *domain.Message
}

type captureNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
}

func (c *captureNotifier) MessageSent(receiverID string, msg *domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, notifierCall{kind: "sent", userID: receiverID, msg: msg})
}

func (c *captureNotifier) MessageSeen(senderID, receiverID, messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, notifierCall{
		kind:       "seen",
		userID:     senderID,
		receiverID: receiverID,
		messageID:  messageID,
	})
}

func (c *captureNotifier) snapshot() []notifierCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notifierCall(nil), c.calls...)
}

func newTestService() (*Service, *memory.Store, *captureNotifier) {
	store := memory.New()
	notifier := &captureNotifier{}
	svc := New(store, tx.Passthrough{}, &fakeBlobStore{}, notifier, zap.NewNop())
	return svc, store, notifier
}
