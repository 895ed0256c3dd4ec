package commands

import (
	"context"

	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/tokens"
)

// TokenHandler echoes the cached access token. It is a debugging aid and
// intentionally shows the live credential to its owner.
type TokenHandler struct {
	tokens tokens.Store
}

func NewTokenHandler(ts tokens.Store) *TokenHandler {
	return &TokenHandler{tokens: ts}
}

func (h *TokenHandler) ProcessMessage(ctx context.Context, userID string, _ bot.IncomingMessage, s bot.Sender) error {
	if token, ok := h.tokens.Get(userID); ok {
		s.SendMessage(ctx, userID, bot.TextMessage(token))
		return nil
	}
	s.SendMessage(ctx, userID, bot.TextMessage(NoTokenText))
	return nil
}
