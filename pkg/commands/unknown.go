package commands

import (
	"context"

	"github.com/zhaopengme/dwtrbot/pkg/bot"
)

type UnknownHandler struct{}

func NewUnknownHandler() *UnknownHandler {
	return &UnknownHandler{}
}

func (h *UnknownHandler) ProcessMessage(ctx context.Context, userID string, _ bot.IncomingMessage, s bot.Sender) error {
	s.SendMessage(ctx, userID, bot.TextMessage(UnknownCommandText))
	return nil
}
