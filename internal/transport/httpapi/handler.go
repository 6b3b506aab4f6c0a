package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/raazsocial/messaging/internal/application"
	"github.com/raazsocial/messaging/internal/domain"
	"github.com/raazsocial/messaging/internal/identity"
)

const (
	maxUploadBytes = 32 << 20
	maxMediaFiles  = 10
)

// Handler is the synchronous delivery API. It is the durable source of
// truth and stays correct with no live connection at all.
type Handler struct {
	svc *application.Service
}

func NewHandler(svc *application.Service) *Handler {
	return &Handler{svc: svc}
}

type messageResponse struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversationId"`
	Sender         string            `json:"sender"`
	Receiver       string            `json:"receiver"`
	Text           string            `json:"text,omitempty"`
	Media          []string          `json:"media,omitempty"`
	VoiceNote      string            `json:"voiceNote,omitempty"`
	IsSeen         bool              `json:"isSeen"`
	Reactions      map[string]string `json:"reactions,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         m.Sender,
		Receiver:       m.Receiver,
		Text:           m.Text,
		Media:          m.Media,
		VoiceNote:      m.VoiceNote,
		IsSeen:         m.IsSeen,
		Reactions:      m.Reactions,
		CreatedAt:      m.CreatedAt,
	}
}

// SendMessage accepts multipart form data (receiverId, text, up to ten
// media files, one voiceNote) or a plain JSON body for text-only sends.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity.FromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	cmd := application.SendMessageCommand{SenderID: ident.ID}

	ct := r.Header.Get("Content-Type")
	if len(ct) >= 19 && ct[:19] == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_argument", "malformed multipart body")
			return
		}
		cmd.ReceiverID = r.FormValue("receiverId")
		cmd.Text = r.FormValue("text")

		if r.MultipartForm != nil {
			files := r.MultipartForm.File["media"]
			if len(files) > maxMediaFiles {
				files = files[:maxMediaFiles]
			}
			for _, fh := range files {
				f, err := fh.Open()
				if err != nil {
					continue
				}
				defer f.Close()
				cmd.Media = append(cmd.Media, application.Attachment{
					Filename: fh.Filename,
					Content:  f,
				})
			}

			if voices := r.MultipartForm.File["voiceNote"]; len(voices) > 0 {
				f, err := voices[0].Open()
				if err == nil {
					defer f.Close()
					cmd.VoiceNote = &application.Attachment{
						Filename: voices[0].Filename,
						Content:  f,
					}
				}
			}
		}
	} else {
		var body struct {
			ReceiverID string `json:"receiverId"`
			Text       string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_argument", "malformed request body")
			return
		}
		cmd.ReceiverID = body.ReceiverID
		cmd.Text = body.Text
	}

	msg, err := h.svc.SendMessage(r.Context(), cmd)
	if err != nil {
		MapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Message sent",
		"data":    toMessageResponse(msg),
	})
}

// GetMessages returns the caller's history with the peer, oldest first,
// with messages the caller deleted for themselves filtered out.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity.FromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}
	peerID := chi.URLParam(r, "userId")

	msgs, err := h.svc.GetMessages(r.Context(), ident.ID, peerID)
	if err != nil {
		MapError(w, err)
		return
	}

	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		if m.HiddenFor(ident.ID) {
			continue
		}
		out = append(out, toMessageResponse(m))
	}
	WriteJSON(w, http.StatusOK, out)
}

// GetConversation exposes the pair's conversation record, unseen counters
// included, so clients can render badges without fetching history.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity.FromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}
	peerID := chi.URLParam(r, "userId")

	conv, err := h.svc.GetConversation(r.Context(), ident.ID, peerID)
	if err != nil {
		MapError(w, err)
		return
	}

	participants := append([]string(nil), conv.Participants...)
	sort.Strings(participants)
	WriteJSON(w, http.StatusOK, map[string]any{
		"id":           conv.ID,
		"participants": participants,
		"lastMessage":  conv.LastMessage,
		"unseenCount":  conv.UnseenCount,
		"createdAt":    conv.CreatedAt,
	})
}

func (h *Handler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity.FromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}
	conversationID := chi.URLParam(r, "conversationId")

	if err := h.svc.MarkSeen(r.Context(), conversationID, ident.ID); err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Messages marked as seen"})
}

func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity.FromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}
	messageID := chi.URLParam(r, "messageId")

	var body struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_argument", "malformed request body")
		return
	}

	msg, err := h.svc.React(r.Context(), messageID, ident.ID, body.Emoji)
	if err != nil {
		MapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Reaction added",
		"data":    toMessageResponse(msg),
	})
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity.FromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}
	messageID := chi.URLParam(r, "messageId")

	var body struct {
		ForEveryone bool `json:"forEveryone"`
	}
	if r.Body != nil {
		// Absent or empty body means delete-for-me.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	if err := h.svc.DeleteMessage(r.Context(), messageID, ident.ID, body.ForEveryone); err != nil {
		MapError(w, err)
		return
	}

	if body.ForEveryone {
		WriteJSON(w, http.StatusOK, map[string]string{"message": "Message deleted for everyone"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Message deleted for you"})
}
