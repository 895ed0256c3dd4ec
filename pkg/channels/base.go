package channels

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/zhaopengme/dwtrbot/pkg/bus"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

// visibleRule replaces the markdown block separator on platforms that do
// not render one.
const visibleRule = "――――――――"

// ErrNotRunning is returned by Send when the channel is stopped.
var ErrNotRunning = errors.New("channel not running")

// Channel is a chat platform adapter. Inbound messages go onto the bus via
// HandleMessage; the Manager hands outbound messages to Send.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
	IsRunning() bool
	IsAllowed(senderID string) bool
}

type BaseChannel struct {
	name      string
	bus       bus.Broker
	allowList []string
	running   atomic.Bool
}

func NewBaseChannel(name string, b bus.Broker, allowList []string) *BaseChannel {
	return &BaseChannel{
		name:      name,
		bus:       b,
		allowList: allowList,
	}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

func (c *BaseChannel) setRunning(running bool) {
	c.running.Store(running)
}

// IsAllowed matches senderID against the allowlist. An empty list allows
// everyone. Sender ids of the form "<id>|<username>" match on either part,
// and list entries may carry a leading '@'.
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowList) == 0 {
		return true
	}

	id, username, _ := strings.Cut(senderID, "|")
	for _, allowed := range c.allowList {
		allowed = strings.TrimPrefix(strings.TrimSpace(allowed), "@")
		if allowed == "" {
			continue
		}
		if allowed == senderID || allowed == id || (username != "" && strings.EqualFold(allowed, username)) {
			return true
		}
	}
	return false
}

// HandleMessage publishes an inbound message for the gateway. Replies are
// addressed to chatID on this channel.
func (c *BaseChannel) HandleMessage(ctx context.Context, senderID, chatID, content string, metadata map[string]string) {
	if !c.IsAllowed(senderID) {
		logger.DebugCF(c.name, "Message rejected by allowlist", map[string]interface{}{
			"sender_id": senderID,
		})
		return
	}

	msg := bus.InboundMessage{
		Channel:  c.name,
		SenderID: senderID,
		ChatID:   chatID,
		Content:  content,
		Metadata: metadata,
	}
	if !c.bus.PublishInbound(ctx, msg) {
		logger.WarnCF(c.name, "Inbound message dropped", map[string]interface{}{
			"chat_id": chatID,
		})
	}
}
