package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhaopengme/dwtrbot/pkg/bot"
)

func TestUserKeyRoundTrip(t *testing.T) {
	key := UserKey("slack", "C123:1700000000.0001")
	assert.Equal(t, "slack:C123:1700000000.0001", key)

	channel, chatID, err := SplitUserKey(key)
	require.NoError(t, err)
	assert.Equal(t, "slack", channel)
	assert.Equal(t, "C123:1700000000.0001", chatID)

	msg := InboundMessage{Channel: "telegram", ChatID: "-100"}
	assert.Equal(t, "telegram:-100", msg.UserKey())
}

func TestSplitUserKeyInvalid(t *testing.T) {
	for _, key := range []string{"", "telegram", ":42", "telegram:"} {
		_, _, err := SplitUserKey(key)
		assert.ErrorIs(t, err, ErrInvalidUserKey, key)
	}
}

func TestPublishConsume(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()
	ctx := context.Background()

	require.True(t, mb.PublishInbound(ctx, InboundMessage{Channel: "console", ChatID: "local", Content: "/start"}))
	in, ok := mb.ConsumeInbound(ctx)
	require.True(t, ok)
	assert.Equal(t, "/start", in.Content)

	require.True(t, mb.PublishOutbound(ctx, OutboundMessage{Channel: "console", ChatID: "local", Message: bot.TextMessage("hi")}))
	out, ok := mb.SubscribeOutbound(ctx)
	require.True(t, ok)
	assert.Equal(t, "hi", out.Message.Text)
}

func TestConsumeHonoursContext(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok := mb.ConsumeInbound(ctx)
	assert.False(t, ok)
}

func TestClosedBusRejectsPublish(t *testing.T) {
	mb := NewMessageBus()
	mb.Close()
	mb.Close()

	assert.False(t, mb.PublishInbound(context.Background(), InboundMessage{}))
	assert.False(t, mb.PublishOutbound(context.Background(), OutboundMessage{}))
	_, ok := mb.ConsumeInbound(context.Background())
	assert.False(t, ok)
}

func TestCloseUnblocksFullPublisher(t *testing.T) {
	mb := NewMessageBus()
	ctx := context.Background()
	for i := 0; i < defaultBufferSize; i++ {
		require.True(t, mb.PublishOutbound(ctx, OutboundMessage{}))
	}

	result := make(chan bool, 1)
	go func() { result <- mb.PublishOutbound(ctx, OutboundMessage{}) }()

	time.Sleep(10 * time.Millisecond)
	mb.Close()

	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("publisher stayed blocked after Close")
	}
}
