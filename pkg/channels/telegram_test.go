package channels

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/bus"
)

func TestParseCompositeChatID(t *testing.T) {
	tests := []struct {
		input        string
		wantChatID   int64
		wantThreadID int
		wantErr      bool
	}{
		{"12345", 12345, 0, false},
		{"-1001234567:5", -1001234567, 5, false},
		{"invalid", 0, 0, true},
		{"123:invalid", 123, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gotChatID, gotThreadID, err := parseCompositeChatID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseCompositeChatID() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if gotChatID != tt.wantChatID {
				t.Errorf("parseCompositeChatID() gotChatID = %v, want %v", gotChatID, tt.wantChatID)
			}
			if gotThreadID != tt.wantThreadID {
				t.Errorf("parseCompositeChatID() gotThreadID = %v, want %v", gotThreadID, tt.wantThreadID)
			}
		})
	}
}

func TestStripBotName(t *testing.T) {
	tests := []struct {
		text, name, want string
	}{
		{"/search@dwtrbot doctor who", "dwtrbot", "/search doctor who"},
		{"/start@DwtrBot", "dwtrbot", "/start"},
		{"/start@otherbot", "dwtrbot", "/start@otherbot"},
		{"/search doctor@dwtrbot", "dwtrbot", "/search doctor@dwtrbot"},
		{"/start@dwtrbot", "", "/start@dwtrbot"},
		{"/search@DwtrBot\nwho", "dwtrbot", "/search\nwho"},
		{"/search@dwtrbot\tdoctor who", "dwtrbot", "/search\tdoctor who"},
		{"", "dwtrbot", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, stripBotName(tt.text, tt.name))
		})
	}
}

func TestCallbackChatIDKeepsTopic(t *testing.T) {
	topic := &telego.Message{Chat: telego.Chat{ID: -100}, MessageThreadID: 77}
	assert.Equal(t, "-100:77", callbackChatID(topic))
	assert.Equal(t, telegramChatID(-100, 77), callbackChatID(topic))

	plain := &telego.Message{Chat: telego.Chat{ID: 42}}
	assert.Equal(t, "42", callbackChatID(plain))

	gone := &telego.InaccessibleMessage{Chat: telego.Chat{ID: -100}}
	assert.Equal(t, "-100", callbackChatID(gone))
}

func newTestTelegramChannel(t *testing.T, mb bus.Broker) *TelegramChannel {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	t.Cleanup(srv.Close)

	tg, err := telego.NewBot("123456789:"+strings.Repeat("a", 35),
		telego.WithAPIServer(srv.URL),
		telego.WithDiscardLogger(),
	)
	require.NoError(t, err)

	return &TelegramChannel{
		BaseChannel: NewBaseChannel("telegram", mb, nil),
		bot:         tg,
		botName:     "dwtrbot",
	}
}

func TestTopicButtonPressUsesTypedUserKey(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()
	c := newTestTelegramChannel(t, mb)
	ctx := context.Background()

	inTopic := &telego.Message{
		MessageID:       1,
		From:            &telego.User{ID: 7, Username: "sarah"},
		Chat:            telego.Chat{ID: -100},
		MessageThreadID: 77,
		Text:            "/search@dwtrbot who",
	}
	require.NoError(t, c.handleMessage(ctx, inTopic))
	require.NoError(t, c.handleCallbackQuery(ctx, telego.CallbackQuery{
		ID:      "cb1",
		From:    telego.User{ID: 7, Username: "sarah"},
		Message: &telego.Message{MessageID: 2, Chat: telego.Chat{ID: -100}, MessageThreadID: 77},
		Data:    "/get 8d3e5b4e-7a52-4f1e-9a8e-1c1f1e0f7a11",
	}))

	consumeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	typed, ok := mb.ConsumeInbound(consumeCtx)
	require.True(t, ok)
	pressed, ok := mb.ConsumeInbound(consumeCtx)
	require.True(t, ok)

	assert.Equal(t, "/search who", typed.Content)
	assert.Equal(t, "/get 8d3e5b4e-7a52-4f1e-9a8e-1c1f1e0f7a11", pressed.Content)
	assert.Equal(t, "telegram:-100:77", typed.UserKey())
	assert.Equal(t, typed.UserKey(), pressed.UserKey())
}

func TestButtonGrid(t *testing.T) {
	mk := func(n int) []bot.Button {
		out := make([]bot.Button, n)
		for i := range out {
			out[i] = bot.Button{Label: strings.Repeat("x", i+1), Data: "/get " + strings.Repeat("x", i+1)}
		}
		return out
	}

	rowSizes := func(n int) []int {
		var sizes []int
		for _, row := range buttonGrid(mk(n)) {
			sizes = append(sizes, len(row))
		}
		return sizes
	}

	assert.Nil(t, buttonGrid(nil))
	assert.Equal(t, []int{1}, rowSizes(1))
	assert.Equal(t, []int{2, 1}, rowSizes(3))
	assert.Equal(t, []int{3, 2}, rowSizes(5))
	assert.Equal(t, []int{4, 4, 1}, rowSizes(9))

	grid := buttonGrid(mk(2))
	assert.Equal(t, "x", grid[0][0].Text)
	assert.Equal(t, "/get xx", grid[0][1].CallbackData)
}

func TestMarkdownToTelegramHTML(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"header", "# Title", "<b>Title</b>"},
		{"bold", "**Name** (Role)", "<b>Name</b> (Role)"},
		{"italic", "*A, B* & *C*", "<i>A, B</i> &amp; <i>C</i>"},
		{"link", "streaming: [link](https://example.com/a?b=1)", `streaming: <a href="https://example.com/a?b=1">link</a>`},
		{"code", "`/search doctor who`", "<code>/search doctor who</code>"},
		{"escape", "a < b", "a &lt; b"},
		{"rule", "one\n\n***\n\ntwo", "one\n\n" + visibleRule + "\n\ntwo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, markdownToTelegramHTML(tt.in))
		})
	}
}

func TestSplitMarkdownContent(t *testing.T) {
	short := "hello"
	assert.Equal(t, []string{short}, splitMarkdownContent(short, telegramTextLimit))

	line := strings.Repeat("a", 99)
	long := strings.TrimSuffix(strings.Repeat(line+"\n", 100), "\n")
	chunks := splitMarkdownContent(long, 1000)

	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 1000)
	}
	assert.Equal(t, long, strings.Join(chunks, "\n"))
}
