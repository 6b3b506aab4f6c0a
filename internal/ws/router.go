package ws

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/raazsocial/messaging/internal/domain"
	"github.com/raazsocial/messaging/internal/observability"
	"github.com/raazsocial/messaging/internal/presence"
)

// Router consumes inbound connection events and dispatches live hints
// through the presence directory. Routing misses are not errors: an offline
// peer simply does not get the hint, the durable store remains the source
// of truth.
type Router struct {
	dir *presence.Directory
	log *zap.Logger
}

func NewRouter(dir *presence.Directory, log *zap.Logger) *Router {
	return &Router{dir: dir, log: log}
}

// HandleEvent processes one inbound frame from a session. Events for this
// connection are handled sequentially by its read loop, so no per-session
// locking is needed here.
func (r *Router) HandleEvent(s *Session, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.log.Warn("router: malformed frame", zap.String("session_id", s.ID), zap.Error(err))
		return
	}

	switch env.Event {

	case EventJoin:
		var p JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.UserID == "" {
			r.log.Warn("router: bad join payload", zap.String("session_id", s.ID))
			return
		}
		s.BindUser(p.UserID)
		r.dir.Register(p.UserID, s)
		r.log.Info("router: joined",
			zap.String("session_id", s.ID),
			zap.String("user_id", p.UserID),
		)

	case EventTyping, EventStopTyping:
		var p TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		r.unicast(p.ReceiverID, env.Event, p)

	case EventSendMessage:
		var p RelayMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		r.unicast(p.ReceiverID, EventNewMessage, NewMessagePayload{
			SenderID: p.SenderID,
			Message:  p.Message,
		})

	case EventSeenMessage:
		var p SeenPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		r.unicast(p.SenderID, EventMessageSeen, MessageSeenPayload{
			ReceiverID: p.ReceiverID,
			MessageID:  p.MessageID,
		})

	default:
		r.log.Debug("router: unknown event", zap.String("event", env.Event))
	}
}

// Disconnect is terminal: the session leaves the presence directory. Safe
// to call more than once.
func (r *Router) Disconnect(s *Session) {
	r.dir.Unregister(s)
}

// unicast pushes an event to userID's live connection, dropping it silently
// when the user is offline.
func (r *Router) unicast(userID, event string, payload any) {
	conn, ok := r.dir.Lookup(userID)
	if !ok {
		observability.LiveHintsDroppedTotal.WithLabelValues(event).Inc()
		r.log.Debug("router: peer offline, hint dropped",
			zap.String("user_id", userID),
			zap.String("event", event),
		)
		return
	}
	conn.SendEvent(event, payload)
}

// MessageSent implements application.Notifier: the post-commit live hint
// for a durably appended message.
func (r *Router) MessageSent(receiverID string, msg *domain.Message) {
	raw := encodeMessage(msg)
	if raw == nil {
		return
	}
	r.unicast(receiverID, EventNewMessage, NewMessagePayload{
		SenderID: msg.Sender,
		Message:  raw,
	})
}

// MessageSeen implements application.Notifier: tells the original sender a
// message of theirs was marked seen.
func (r *Router) MessageSeen(senderID, receiverID, messageID string) {
	r.unicast(senderID, EventMessageSeen, MessageSeenPayload{
		ReceiverID: receiverID,
		MessageID:  messageID,
	})
}
