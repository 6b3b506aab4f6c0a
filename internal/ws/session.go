package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/raazsocial/messaging/internal/observability"
)

const (
	SendQueueSize = 128
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
)

// Session is one live connection. It starts unbound (Connected); a join
// event binds it to a user (Joined); closing is terminal and triggers
// presence unregistration in the handler.
type Session struct {
	ID string

	Conn      *websocket.Conn
	SendQueue chan []byte
	done      chan struct{}
	closed    atomic.Int32

	mu     sync.Mutex
	userID string
}

func NewSession(id string, conn *websocket.Conn) *Session {
	return &Session{
		ID:        id,
		Conn:      conn,
		SendQueue: make(chan []byte, SendQueueSize),
		done:      make(chan struct{}),
	}
}

func (s *Session) Start() {
	go s.writeLoop()
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// BindUser records the joined user. A second join simply re-binds.
func (s *Session) BindUser(userID string) {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// SendEvent marshals an envelope and queues it without blocking.
func (s *Session) SendEvent(event string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		observability.GetLogger(context.Background()).Error("session: marshal event payload",
			zap.String("event", event), zap.Error(err))
		return false
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return false
	}
	return s.TrySend(frame)
}

func (s *Session) TrySend(msg []byte) bool {
	if s.closed.Load() == 1 {
		return false
	}
	select {
	case s.SendQueue <- msg:
		return true
	default:
		observability.GetLogger(context.Background()).Warn("session: backpressure overflow, dropping connection",
			zap.String("session_id", s.ID), zap.String("user_id", s.UserID()))
		s.CloseWithReason(websocket.CloseInternalServerErr, "backpressure overflow")
		return false
	}
}

func (s *Session) Close() {
	s.CloseWithReason(websocket.CloseNormalClosure, "server closing")
}

func (s *Session) CloseWithReason(code int, reason string) {
	if !s.closed.CompareAndSwap(0, 1) {
		return
	}

	close(s.done)

	if s.Conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = s.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		s.Conn.Close()
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case msg, ok := <-s.SendQueue:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				observability.GetLogger(context.Background()).Warn("session: write error",
					zap.String("session_id", s.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
