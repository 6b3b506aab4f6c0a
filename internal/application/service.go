package application

import (
	"go.uber.org/zap"

	"github.com/raazsocial/messaging/internal/domain"
	"github.com/raazsocial/messaging/internal/media"
	"github.com/raazsocial/messaging/internal/repository"
	"github.com/raazsocial/messaging/internal/tx"
)

// Notifier delivers best-effort live hints to connected peers. The durable
// write is the source of truth; a miss here is steady-state, not a failure,
// so nothing returns an error.
type Notifier interface {
	MessageSent(receiverID string, msg *domain.Message)
	MessageSeen(senderID, receiverID, messageID string)
}

// NopNotifier drops every hint. Used when the transport is not wired.
type NopNotifier struct{}

func (NopNotifier) MessageSent(string, *domain.Message) {}
func (NopNotifier) MessageSeen(string, string, string)  {}

type Service struct {
	repo     repository.Repository
	tx       tx.Transactor
	blobs    media.BlobStore
	notifier Notifier
	log      *zap.Logger
}

func New(repo repository.Repository, transactor tx.Transactor, blobs media.BlobStore, notifier Notifier, log *zap.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		repo:     repo,
		tx:       transactor,
		blobs:    blobs,
		notifier: notifier,
		log:      log,
	}
}
