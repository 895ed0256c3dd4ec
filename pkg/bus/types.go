package bus

import (
	"errors"
	"strings"

	"github.com/zhaopengme/dwtrbot/pkg/bot"
)

// ErrInvalidUserKey is returned when a user key is not "<channel>:<chat id>".
var ErrInvalidUserKey = errors.New("invalid user key")

type InboundMessage struct {
	Channel  string            `json:"channel"`
	SenderID string            `json:"sender_id"`
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// UserKey identifies the conversation the message belongs to.
func (m InboundMessage) UserKey() string {
	return UserKey(m.Channel, m.ChatID)
}

type OutboundMessage struct {
	Channel string      `json:"channel"`
	ChatID  string      `json:"chat_id"`
	Message bot.Message `json:"message"`
}

// UserKey builds the dispatcher-facing user id for a chat on a channel.
// Replies and per-user state are keyed by it.
func UserKey(channel, chatID string) string {
	return channel + ":" + chatID
}

// SplitUserKey reverses UserKey. The chat id may itself contain ':'.
func SplitUserKey(key string) (channel, chatID string, err error) {
	channel, chatID, ok := strings.Cut(key, ":")
	if !ok || channel == "" || chatID == "" {
		return "", "", ErrInvalidUserKey
	}
	return channel, chatID, nil
}
