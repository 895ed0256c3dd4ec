package gateway

import (
	"context"
	"sync"

	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/bus"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

// Processor handles one raw message for a user. commands.Dispatcher
// implements it.
type Processor interface {
	Process(ctx context.Context, userID, raw string, s bot.Sender)
}

// CommandGateway consumes inbound messages from the bus and runs each one
// through the processor in its own goroutine. Replies go back onto the bus
// addressed by user key.
type CommandGateway struct {
	bus       bus.Broker
	processor Processor
	wg        sync.WaitGroup
}

func NewCommandGateway(b bus.Broker, p Processor) *CommandGateway {
	return &CommandGateway{bus: b, processor: p}
}

// Run blocks until ctx is done or the bus is closed, then waits for
// in-flight messages to finish.
func (g *CommandGateway) Run(ctx context.Context) error {
	defer g.wg.Wait()

	for {
		msg, ok := g.bus.ConsumeInbound(ctx)
		if !ok {
			return nil
		}

		g.wg.Add(1)
		go func(msg bus.InboundMessage) {
			defer g.wg.Done()
			g.processor.Process(ctx, msg.UserKey(), msg.Content, busSender{bus: g.bus})
		}(msg)
	}
}

// busSender publishes replies as outbound messages.
type busSender struct {
	bus bus.Publisher
}

func (s busSender) SendMessage(ctx context.Context, userID string, msg bot.Message) {
	channel, chatID, err := bus.SplitUserKey(userID)
	if err != nil {
		logger.ErrorCF("gateway", "Cannot route reply", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	if !s.bus.PublishOutbound(ctx, bus.OutboundMessage{Channel: channel, ChatID: chatID, Message: msg}) {
		logger.WarnCF("gateway", "Reply dropped, bus unavailable", map[string]interface{}{
			"user_id": userID,
		})
	}
}
