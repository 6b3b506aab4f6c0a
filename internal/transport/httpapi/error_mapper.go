package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/raazsocial/messaging/internal/domain"
	"github.com/raazsocial/messaging/internal/media"
	"github.com/raazsocial/messaging/internal/observability"
)

// MapError converts a domain error into an HTTP response. Unknown errors
// are logged server-side and surfaced as an opaque 500.
func MapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound),
		errors.Is(err, domain.ErrMessageNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrMessageTooLarge),
		errors.Is(err, domain.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_argument", err.Error())

	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication failed")

	case errors.Is(err, domain.ErrNotParticipant),
		errors.Is(err, domain.ErrNotSender):
		WriteError(w, http.StatusForbidden, "forbidden", "access denied")

	case errors.Is(err, media.ErrStorage):
		WriteError(w, http.StatusBadGateway, "storage_error", "attachment storage unavailable")

	default:
		observability.Log.Error("internal error", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
