package commands

import (
	"context"
	"strings"

	"github.com/zhaopengme/dwtrbot/pkg/api"
	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
	"github.com/zhaopengme/dwtrbot/pkg/render"
)

// SearchLimit is the number of results shown per search.
const SearchLimit = 5

type SearchHandler struct {
	audioPlays api.AudioPlayService
}

func NewSearchHandler(aps api.AudioPlayService) *SearchHandler {
	return &SearchHandler{audioPlays: aps}
}

func (h *SearchHandler) ProcessMessage(ctx context.Context, userID string, msg bot.IncomingMessage, s bot.Sender) error {
	query := strings.TrimSpace(msg.Text)
	if query == "" {
		s.SendMessage(ctx, userID, bot.TextMessage(QueryExpectedText))
		return nil
	}

	res := h.audioPlays.Search(ctx, query, SearchLimit)
	switch res.Outcome() {
	case api.OutcomeSuccess:
		resp, _ := res.Value()
		logger.DebugCF("search", "Search completed", map[string]interface{}{
			"user_id": userID,
			"query":   query,
			"results": len(resp.AudioPlays),
		})
		s.SendMessage(ctx, userID, render.SearchMessage(resp))
	case api.OutcomeError:
		e, _ := res.ErrorResponse()
		s.SendMessage(ctx, userID, render.ErrorMessage(e))
	}
	return nil
}
