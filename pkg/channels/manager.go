package channels

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zhaopengme/dwtrbot/pkg/bus"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

const channelQueueSize = 100

// Manager owns the enabled channels and routes outbound messages from the
// bus to them. Each channel gets its own send queue so one slow platform
// does not hold up the rest, and messages to a channel keep their order.
type Manager struct {
	bus      bus.Broker
	mu       sync.RWMutex
	channels map[string]Channel
	queues   map[string]chan bus.OutboundMessage
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewManager(b bus.Broker) *Manager {
	return &Manager{
		bus:      b,
		channels: make(map[string]Channel),
		queues:   make(map[string]chan bus.OutboundMessage),
	}
}

// Register adds a channel. It must be called before StartAll.
func (m *Manager) Register(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[ch.Name()] = ch
}

func (m *Manager) GetChannel(name string) (Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[name]
	return ch, ok
}

func (m *Manager) GetEnabledChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartAll starts every channel and the outbound dispatcher. If a channel
// fails to start, the ones already started are stopped again.
func (m *Manager) StartAll(ctx context.Context) error {
	names := m.GetEnabledChannels()
	if len(names) == 0 {
		return fmt.Errorf("no channels registered")
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	var started []Channel
	for _, name := range names {
		ch, _ := m.GetChannel(name)
		logger.InfoCF("channels", "Starting channel", map[string]interface{}{
			"channel": name,
		})
		if err := ch.Start(ctx); err != nil {
			for _, s := range started {
				_ = s.Stop(context.Background())
			}
			cancel()
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		started = append(started, ch)
	}

	m.mu.Lock()
	for _, name := range names {
		q := make(chan bus.OutboundMessage, channelQueueSize)
		m.queues[name] = q
		m.wg.Add(1)
		go m.sendLoop(ctx, m.channels[name], q)
	}
	m.mu.Unlock()

	m.wg.Add(1)
	go m.dispatchOutbound(ctx)

	logger.InfoCF("channels", "All channels started", map[string]interface{}{
		"channels": names,
	})
	return nil
}

// StopAll stops the dispatcher and then every channel.
func (m *Manager) StopAll(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()

	var firstErr error
	for _, name := range m.GetEnabledChannels() {
		ch, _ := m.GetChannel(name)
		if err := ch.Stop(ctx); err != nil {
			logger.ErrorCF("channels", "Failed to stop channel", map[string]interface{}{
				"channel": name,
				"error":   err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *Manager) dispatchOutbound(ctx context.Context) {
	defer m.wg.Done()
	for {
		msg, ok := m.bus.SubscribeOutbound(ctx)
		if !ok {
			return
		}

		m.mu.RLock()
		q, found := m.queues[msg.Channel]
		m.mu.RUnlock()
		if !found {
			logger.WarnCF("channels", "Outbound message for unknown channel", map[string]interface{}{
				"channel": msg.Channel,
				"chat_id": msg.ChatID,
			})
			continue
		}

		select {
		case q <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) sendLoop(ctx context.Context, ch Channel, q <-chan bus.OutboundMessage) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-q:
			if err := ch.Send(ctx, msg); err != nil {
				logger.ErrorCF("channels", "Failed to send message", map[string]interface{}{
					"channel": ch.Name(),
					"chat_id": msg.ChatID,
					"error":   err.Error(),
				})
			}
		}
	}
}
