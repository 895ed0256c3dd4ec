package commands

import (
	"context"

	"github.com/zhaopengme/dwtrbot/pkg/bot"
)

// StartHandler greets the user with the onboarding text.
type StartHandler struct{}

func NewStartHandler() *StartHandler {
	return &StartHandler{}
}

func (h *StartHandler) ProcessMessage(ctx context.Context, userID string, _ bot.IncomingMessage, s bot.Sender) error {
	s.SendMessage(ctx, userID, bot.TextMessage(startText))
	return nil
}
