package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/raazsocial/messaging/internal/identity"
)

// NewRouter mounts the chat API behind bearer-token auth. wsHandler, when
// non-nil, serves the live connection endpoint.
func NewRouter(h *Handler, resolver *identity.Resolver, wsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	if wsHandler != nil {
		r.Handle("/ws", wsHandler)
	}

	r.Route("/api/chat", func(r chi.Router) {
		r.Use(identity.Protect(resolver))

		r.Post("/send", h.SendMessage)
		r.Get("/conversation/{userId}", h.GetConversation)
		r.Get("/{userId}", h.GetMessages)
		r.Put("/seen/{conversationId}", h.MarkSeen)
		r.Put("/react/{messageId}", h.React)
		r.Delete("/delete/{messageId}", h.DeleteMessage)
	})

	return r
}
