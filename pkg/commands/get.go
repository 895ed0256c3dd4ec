package commands

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/zhaopengme/dwtrbot/pkg/api"
	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
	"github.com/zhaopengme/dwtrbot/pkg/render"
	"github.com/zhaopengme/dwtrbot/pkg/tokens"
)

// CoverFetcher downloads cover images. ok is false when no image could be
// obtained; that is never an error for the caller.
type CoverFetcher interface {
	FetchCover(ctx context.Context, uri string) (data []byte, ok bool)
}

// GetHandler shows one audio play as a card followed by a details message.
type GetHandler struct {
	audioPlays api.AudioPlayService
	tokens     tokens.Store
	covers     CoverFetcher
}

// NewGetHandler builds the handler. covers may be nil to skip cover images.
func NewGetHandler(aps api.AudioPlayService, ts tokens.Store, covers CoverFetcher) *GetHandler {
	return &GetHandler{audioPlays: aps, tokens: ts, covers: covers}
}

func (h *GetHandler) ProcessMessage(ctx context.Context, userID string, msg bot.IncomingMessage, s bot.Sender) error {
	id, err := uuid.Parse(strings.TrimSpace(msg.Text))
	if err != nil {
		s.SendMessage(ctx, userID, bot.TextMessage(UUIDExpectedText))
		return nil
	}

	res := h.audioPlays.Get(ctx, id)
	switch res.Outcome() {
	case api.OutcomeSuccess:
		ap, _ := res.Value()
		location := h.location(ctx, userID, id)

		s.SendMessage(ctx, userID, render.CardMessage(ap, h.cover(ctx, ap)))
		if details, ok := render.DetailsMessage(ap, location); ok {
			s.SendMessage(ctx, userID, details)
		}
	case api.OutcomeError:
		e, _ := res.ErrorResponse()
		s.SendMessage(ctx, userID, render.ErrorMessage(e))
	}
	return nil
}

func (h *GetHandler) cover(ctx context.Context, ap api.AudioPlay) []byte {
	if ap.CoverURI == "" || h.covers == nil {
		return nil
	}
	data, ok := h.covers.FetchCover(ctx, ap.CoverURI)
	if !ok {
		return nil
	}
	return data
}

// location looks up the self-hosted URI for logged-in users. Failures are
// logged and otherwise ignored.
func (h *GetHandler) location(ctx context.Context, userID string, id uuid.UUID) string {
	token, ok := h.tokens.Get(userID)
	if !ok {
		return ""
	}

	res := h.audioPlays.GetLocation(ctx, token, id)
	switch res.Outcome() {
	case api.OutcomeSuccess:
		loc, _ := res.Value()
		logger.InfoCF("get", "Received self-hosted location", map[string]interface{}{
			"audio_play_id": id.String(),
		})
		return loc.URI
	case api.OutcomeError:
		e, _ := res.ErrorResponse()
		logger.WarnCF("get", "Self-hosted location lookup failed", map[string]interface{}{
			"audio_play_id": id.String(),
			"status":        e.Status.String(),
			"message":       e.Message,
		})
	default:
		logger.WarnCF("get", "Self-hosted location unavailable", map[string]interface{}{
			"audio_play_id": id.String(),
		})
	}
	return ""
}
