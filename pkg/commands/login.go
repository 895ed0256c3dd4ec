package commands

import (
	"context"
	"strings"

	"github.com/zhaopengme/dwtrbot/pkg/api"
	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
	"github.com/zhaopengme/dwtrbot/pkg/render"
	"github.com/zhaopengme/dwtrbot/pkg/tokens"
)

// LoginHandler authenticates with "/login <username> <password>" and
// caches the returned access token for the user.
type LoginHandler struct {
	auth   api.AuthenticationService
	tokens tokens.Store
}

func NewLoginHandler(auth api.AuthenticationService, ts tokens.Store) *LoginHandler {
	return &LoginHandler{auth: auth, tokens: ts}
}

func (h *LoginHandler) ProcessMessage(ctx context.Context, userID string, msg bot.IncomingMessage, s bot.Sender) error {
	args := strings.Fields(msg.Text)
	if len(args) != 2 {
		s.SendMessage(ctx, userID, bot.TextMessage(LoginInvalidArgsText))
		return nil
	}

	res := h.auth.Login(ctx, api.BasicRequest(args[0], args[1]))
	switch res.Outcome() {
	case api.OutcomeSuccess:
		resp, _ := res.Value()
		h.tokens.Put(userID, resp.AccessToken)
		logger.InfoCF("login", "User logged in", map[string]interface{}{
			"user_id":  userID,
			"username": args[0],
		})
		s.SendMessage(ctx, userID, bot.TextMessage(LoginSuccessText))
	case api.OutcomeError:
		e, _ := res.ErrorResponse()
		s.SendMessage(ctx, userID, render.ErrorMessage(e))
	}
	return nil
}
