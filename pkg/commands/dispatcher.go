package commands

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

// Dispatcher parses raw message text into a command word and arguments and
// runs the matching handler. Handler failures stop at the dispatcher.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{registry: reg}
}

// SplitCommand splits text at the first whitespace run. Leading and
// trailing whitespace is dropped.
func SplitCommand(text string) (command, args string) {
	text = strings.TrimSpace(text)
	idx := strings.IndexFunc(text, unicode.IsSpace)
	if idx < 0 {
		return text, ""
	}
	return text[:idx], strings.TrimLeftFunc(text[idx:], unicode.IsSpace)
}

// Process handles one raw message from userID, sending replies through s.
func (d *Dispatcher) Process(ctx context.Context, userID, raw string, s bot.Sender) {
	if strings.TrimSpace(raw) == "" {
		s.SendMessage(ctx, userID, bot.TextMessage(EmptyMessageText))
		return
	}

	command, args := SplitCommand(raw)
	handler, name := d.registry.Lookup(command)

	logger.InfoCF("dispatcher", "Command received", map[string]interface{}{
		"user_id": userID,
		"command": command,
		"handler": name,
	})

	start := time.Now()
	if err := d.run(ctx, handler, userID, args, s); err != nil {
		logger.ErrorCF("dispatcher", "Handler failed", map[string]interface{}{
			"user_id": userID,
			"handler": name,
			"error":   err.Error(),
		})
		return
	}

	logger.DebugCF("dispatcher", "Command completed", map[string]interface{}{
		"user_id":     userID,
		"handler":     name,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (d *Dispatcher) run(ctx context.Context, h bot.Handler, userID, args string, s bot.Sender) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.ProcessMessage(ctx, userID, bot.IncomingMessage{Text: args}, s)
}
