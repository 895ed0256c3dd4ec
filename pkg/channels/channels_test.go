package channels

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/glamour"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/bus"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

func TestBaseChannelIsAllowed(t *testing.T) {
	open := NewBaseChannel("test", nil, nil)
	assert.True(t, open.IsAllowed("anyone"))

	c := NewBaseChannel("test", nil, []string{"42", "@doctor", " "})
	tests := []struct {
		sender string
		want   bool
	}{
		{"42", true},
		{"42|someone", true},
		{"7|doctor", true},
		{"7|Doctor", true},
		{"7|master", false},
		{"7", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.IsAllowed(tt.sender), tt.sender)
	}
}

func TestBaseChannelHandleMessage(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()
	c := NewBaseChannel("telegram", mb, []string{"42"})

	c.HandleMessage(context.Background(), "7", "100", "/start", nil)
	c.HandleMessage(context.Background(), "42", "100", "/search who", map[string]string{"k": "v"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := mb.ConsumeInbound(ctx)
	require.True(t, ok)
	assert.Equal(t, "telegram", msg.Channel)
	assert.Equal(t, "42", msg.SenderID)
	assert.Equal(t, "/search who", msg.Content)
	assert.Equal(t, "telegram:100", msg.UserKey())
}

type fakeChannel struct {
	*BaseChannel
	startErr error

	mu   sync.Mutex
	sent []bus.OutboundMessage
	fail bool
}

func newFakeChannel(name string) *fakeChannel {
	return &fakeChannel{BaseChannel: NewBaseChannel(name, nil, nil)}
}

func (f *fakeChannel) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.setRunning(true)
	return nil
}

func (f *fakeChannel) Stop(context.Context) error {
	f.setRunning(false)
	return nil
}

func (f *fakeChannel) Send(_ context.Context, msg bus.OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.fail {
		return errors.New("platform down")
	}
	return nil
}

func (f *fakeChannel) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		out = append(out, m.Message.Text)
	}
	return out
}

func TestManagerRoutesOutbound(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()

	tg := newFakeChannel("telegram")
	dc := newFakeChannel("discord")
	dc.fail = true

	m := NewManager(mb)
	m.Register(tg)
	m.Register(dc)
	require.NoError(t, m.StartAll(context.Background()))
	assert.Equal(t, []string{"discord", "telegram"}, m.GetEnabledChannels())

	ctx := context.Background()
	mb.PublishOutbound(ctx, bus.OutboundMessage{Channel: "telegram", ChatID: "1", Message: bot.TextMessage("card")})
	mb.PublishOutbound(ctx, bus.OutboundMessage{Channel: "nowhere", ChatID: "1", Message: bot.TextMessage("lost")})
	mb.PublishOutbound(ctx, bus.OutboundMessage{Channel: "discord", ChatID: "2", Message: bot.TextMessage("fails")})
	mb.PublishOutbound(ctx, bus.OutboundMessage{Channel: "telegram", ChatID: "1", Message: bot.TextMessage("details")})

	assert.Eventually(t, func() bool {
		return len(tg.texts()) == 2 && len(dc.texts()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"card", "details"}, tg.texts())

	require.NoError(t, m.StopAll(context.Background()))
	assert.False(t, tg.IsRunning())
}

func TestManagerStartFailureStopsStarted(t *testing.T) {
	a := newFakeChannel("a")
	b := newFakeChannel("b")
	b.startErr = errors.New("bad token")

	m := NewManager(bus.NewMessageBus())
	m.Register(a)
	m.Register(b)

	err := m.StartAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad token")
	assert.False(t, a.IsRunning())

	assert.Error(t, NewManager(bus.NewMessageBus()).StartAll(context.Background()))
}

func TestSlackBlocks(t *testing.T) {
	msg := bot.Message{
		Text:    "1. **Title**\n*A* & *B*",
		Buttons: []bot.Button{{Label: "1", Data: "/get a"}, {Label: "2", Data: "/get b"}},
	}
	blocks := slackBlocks(msg)
	require.Len(t, blocks, 2)

	section, ok := blocks[0].(*slack.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "1. *Title*\n_A_ &amp; _B_", section.Text.Text)

	actions, ok := blocks[1].(*slack.ActionBlock)
	require.True(t, ok)
	require.Len(t, actions.Elements.ElementSet, 2)
	btn, ok := actions.Elements.ElementSet[1].(*slack.ButtonBlockElement)
	require.True(t, ok)
	assert.Equal(t, "/get b", btn.Value)
	assert.Equal(t, "pick_2", btn.ActionID)
}

func TestMarkdownToSlackMrkdwn(t *testing.T) {
	assert.Equal(t, "*Spare Parts*", markdownToSlackMrkdwn("# Spare Parts"))
	assert.Equal(t, "streaming: <https://x.example/1|link>", markdownToSlackMrkdwn("streaming: [link](https://x.example/1)"))
	assert.Equal(t, "_Released: July 1, 2002_", markdownToSlackMrkdwn("*Released: July 1, 2002*"))
	assert.Equal(t, "`/search doctor who`", markdownToSlackMrkdwn("`/search doctor who`"))
}

func TestParseSlackChatID(t *testing.T) {
	ch, ts := parseSlackChatID("C123/1700000000.0001")
	assert.Equal(t, "C123", ch)
	assert.Equal(t, "1700000000.0001", ts)

	ch, ts = parseSlackChatID("D42")
	assert.Equal(t, "D42", ch)
	assert.Empty(t, ts)
}

func TestSlackMentionsAndSlashCommandsShareKey(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	c := &SlackChannel{BaseChannel: NewBaseChannel("slack", mb, nil), ctx: ctx, botUserID: "UBOT"}

	c.handleSlashCommand(socketmode.Event{
		Type: socketmode.EventTypeSlashCommand,
		Data: slack.SlashCommand{Command: "/login", Text: "sarah secret", UserID: "U1", ChannelID: "C1"},
	})
	c.handleAppMention(&slackevents.AppMentionEvent{
		User: "U1", Channel: "C1", TimeStamp: "1700000000.0001", Text: "<@UBOT> /get x",
	})
	c.handleAppMention(&slackevents.AppMentionEvent{
		User: "U1", Channel: "C1", TimeStamp: "1700000000.0009", ThreadTimeStamp: "1700000000.0005", Text: "<@UBOT> /token",
	})

	var keys, contents []string
	for i := 0; i < 3; i++ {
		msg, ok := mb.ConsumeInbound(ctx)
		require.True(t, ok)
		keys = append(keys, msg.UserKey())
		contents = append(contents, msg.Content)
	}
	assert.Equal(t, []string{"slack:C1", "slack:C1", "slack:C1/1700000000.0005"}, keys)
	assert.Equal(t, []string{"/login sarah secret", "/get x", "/token"}, contents)
}

func TestDiscordMessages(t *testing.T) {
	buttons := make([]bot.Button, 7)
	for i := range buttons {
		buttons[i] = bot.Button{Label: string(rune('1' + i)), Data: "/get x"}
	}
	parts := discordMessages(bot.Message{
		Text:    "# Title\n***\nbody",
		Image:   &bot.Image{Data: []byte{1, 2, 3}},
		Buttons: buttons,
	})
	require.Len(t, parts, 1)
	assert.Equal(t, "# Title\n"+visibleRule+"\nbody", parts[0].Content)
	require.Len(t, parts[0].Files, 1)
	assert.Equal(t, "cover.jpg", parts[0].Files[0].Name)

	require.Len(t, parts[0].Components, 2)
	row, ok := parts[0].Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	assert.Len(t, row.Components, discordButtonsPerRow)
	first, ok := row.Components[0].(discordgo.Button)
	require.True(t, ok)
	assert.Equal(t, "1", first.Label)
	assert.Equal(t, "/get x", first.CustomID)

	remote := discordMessages(bot.Message{Text: "x", Image: &bot.Image{URI: "https://img.example/c.jpg"}})
	require.Len(t, remote[0].Embeds, 1)
	assert.Equal(t, "https://img.example/c.jpg", remote[0].Embeds[0].Image.URL)
}

func newTestConsole(t *testing.T) (*ConsoleChannel, *bytes.Buffer) {
	t.Helper()
	renderer, err := glamour.NewTermRenderer(glamour.WithStandardStyle("notty"), glamour.WithWordWrap(0))
	require.NoError(t, err)

	var out bytes.Buffer
	c := &ConsoleChannel{
		BaseChannel: NewBaseChannel("console", nil, nil),
		out:         &out,
		renderer:    renderer,
	}
	c.setRunning(true)
	return c, &out
}

func TestConsoleButtons(t *testing.T) {
	c, out := newTestConsole(t)

	assert.Equal(t, "#1", c.resolveInput("#1"))

	err := c.Send(context.Background(), bus.OutboundMessage{
		Channel: "console",
		ChatID:  consoleChatID,
		Message: bot.Message{
			Text:    "1. **One**",
			Buttons: []bot.Button{{Label: "1", Data: "/get one"}, {Label: "2", Data: "/get two"}},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "One")
	assert.Contains(t, out.String(), "[#1 1] [#2 2]")

	assert.Equal(t, "/get two", c.resolveInput(" #2 "))
	assert.Equal(t, "#3", c.resolveInput("#3"))
	assert.Equal(t, "/search who", c.resolveInput("/search who"))
}

func TestConsoleLogsSentMessages(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	logger.SetLevel(logger.DEBUG)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logger.INFO)
	})

	c, _ := newTestConsole(t)
	require.NoError(t, c.Send(context.Background(), bus.OutboundMessage{Message: bot.TextMessage("hello")}))
	assert.Contains(t, logs.String(), "Message sent")
	assert.Contains(t, logs.String(), "console")
}

func TestConsoleNotRunning(t *testing.T) {
	c, _ := newTestConsole(t)
	c.setRunning(false)
	assert.ErrorIs(t, c.Send(context.Background(), bus.OutboundMessage{}), ErrNotRunning)
}
