package bus

import (
	"context"
	"sync"
)

const defaultBufferSize = 100

// MessageBus connects channels to the gateway with buffered inbound and
// outbound queues.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
	done     chan struct{}
	doneOnce sync.Once
	closed   bool
	mu       sync.RWMutex
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:  make(chan InboundMessage, defaultBufferSize),
		outbound: make(chan OutboundMessage, defaultBufferSize),
		done:     make(chan struct{}),
	}
}

// PublishInbound queues msg for the gateway. It returns false when the bus
// is closed or ctx ends before there is room.
func (mb *MessageBus) PublishInbound(ctx context.Context, msg InboundMessage) bool {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return false
	}
	select {
	case mb.inbound <- msg:
		return true
	case <-ctx.Done():
		return false
	case <-mb.done:
		return false
	}
}

func (mb *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case msg, ok := <-mb.inbound:
		if !ok {
			return InboundMessage{}, false
		}
		return msg, true
	case <-ctx.Done():
		return InboundMessage{}, false
	}
}

func (mb *MessageBus) PublishOutbound(ctx context.Context, msg OutboundMessage) bool {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return false
	}
	select {
	case mb.outbound <- msg:
		return true
	case <-ctx.Done():
		return false
	case <-mb.done:
		return false
	}
}

func (mb *MessageBus) SubscribeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case msg, ok := <-mb.outbound:
		if !ok {
			return OutboundMessage{}, false
		}
		return msg, true
	case <-ctx.Done():
		return OutboundMessage{}, false
	}
}

// Close stops the bus. Blocked publishers return false and consumers drain
// what is already queued.
func (mb *MessageBus) Close() {
	mb.doneOnce.Do(func() { close(mb.done) })

	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return
	}
	mb.closed = true
	close(mb.inbound)
	close(mb.outbound)
}
