package domain

import "errors"

var (
	ErrEmptyMessage         = errors.New("message has no text or attachments")
	ErrInvalidInput         = errors.New("invalid input")
	ErrMessageTooLarge      = errors.New("message too large")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotParticipant       = errors.New("user not participant")
	ErrNotSender            = errors.New("only the sender can delete for everyone")
	ErrUnauthorized         = errors.New("unauthorized")
)
