package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/raazsocial/messaging/internal/observability"
)

const serviceLabel = "messaging"

// Handler upgrades HTTP requests into live sessions and pumps their frames
// through the router.
type Handler struct {
	router *Router
}

func NewHandler(router *Router) *Handler {
	return &Handler{router: router}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := observability.GetLogger(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("upgrade error", zap.Error(err))
		return
	}

	session := NewSession(uuid.NewString(), conn)
	session.Start()

	observability.WebSocketConnectionsActive.WithLabelValues(serviceLabel).Inc()
	log.Info("connected", zap.String("session_id", session.ID))

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go h.readLoop(session)
}

func (h *Handler) readLoop(s *Session) {
	log := observability.GetLogger(context.Background())
	defer func() {
		h.router.Disconnect(s)
		s.Close()
		observability.WebSocketConnectionsActive.WithLabelValues(serviceLabel).Dec()
		log.Info("disconnected",
			zap.String("session_id", s.ID),
			zap.String("user_id", s.UserID()),
		)
	}()

	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("read loop error",
					zap.String("session_id", s.ID),
					zap.Error(err),
				)
			}
			return
		}
		h.router.HandleEvent(s, raw)
	}
}
